package services

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"phishscan/pkg/logger"
)

// fallbackLegitDomains seeds the top-legit set when the remote list is
// unavailable or not configured.
var fallbackLegitDomains = []string{
	"google.com", "youtube.com", "facebook.com", "instagram.com", "twitter.com",
	"x.com", "wikipedia.org", "yahoo.com", "amazon.com", "reddit.com",
	"tiktok.com", "bing.com", "linkedin.com", "netflix.com", "microsoft.com",
	"office.com", "live.com", "pinterest.com", "twitch.tv", "whatsapp.com",
	"ebay.com", "apple.com", "paypal.com", "github.com", "stackoverflow.com",
	"wordpress.com", "dropbox.com", "adobe.com", "spotify.com", "zoom.us",
	"salesforce.com", "cloudflare.com", "mozilla.org", "shopify.com",
	"walmart.com", "target.com", "chase.com", "wellsfargo.com", "hsbc.com",
	"bankofamerica.com", "irs.gov", "usa.gov", "bbc.com", "cnn.com",
	"nytimes.com", "dhl.com", "fedex.com", "ups.com", "aol.com", "booking.com",
}

// ReferenceSets holds the process-wide legit-domain and phishing-URL sets.
// Loaded once at startup; immutable afterwards, so concurrent reads need no
// locking.
type ReferenceSets struct {
	legitDomains map[string]struct{}
	legitLabels  []string
	legitTLDs    map[string]struct{}
	phishingURLs map[string]struct{}
	logger       *logger.Logger
}

// RefDataConfig configures the reference list sources
type RefDataConfig struct {
	LegitDomainsURL string
	PhishingFeedURL string
	FetchTimeout    time.Duration
}

// LoadReferenceSets fetches both lists, falling back to built-in defaults on
// any failure. It never returns an error: missing lists must not prevent
// startup.
func LoadReferenceSets(ctx context.Context, cfg RefDataConfig, log *logger.Logger) *ReferenceSets {
	log = log.WithComponent("refdata")

	timeout := cfg.FetchTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	legit := fetchDomainList(ctx, client, cfg.LegitDomainsURL, log)
	if len(legit) == 0 {
		legit = fallbackLegitDomains
		log.Info().Int("count", len(legit)).Msg("using built-in legit domain set")
	} else {
		log.Info().Int("count", len(legit)).Msg("loaded legit domain list")
	}

	phishing := fetchURLList(ctx, client, cfg.PhishingFeedURL, log)
	log.Info().Int("count", len(phishing)).Msg("loaded phishing URL feed")

	rs := &ReferenceSets{
		legitDomains: make(map[string]struct{}, len(legit)),
		legitTLDs:    make(map[string]struct{}),
		phishingURLs: make(map[string]struct{}, len(phishing)),
		logger:       log,
	}

	for _, d := range legit {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if _, seen := rs.legitDomains[d]; seen {
			continue
		}
		rs.legitDomains[d] = struct{}{}
		rs.legitLabels = append(rs.legitLabels, domainLabel(d))
		if _, tld, ok := strings.Cut(d, "."); ok {
			rs.legitTLDs[tld] = struct{}{}
		}
	}
	for _, u := range phishing {
		rs.phishingURLs[strings.TrimSpace(u)] = struct{}{}
	}

	return rs
}

// IsLegitDomain reports membership of a registered domain in the top set
func (rs *ReferenceSets) IsLegitDomain(domain string) bool {
	_, ok := rs.legitDomains[strings.ToLower(domain)]
	return ok
}

// IsLegitTLD reports whether the TLD belongs to any domain in the top set
func (rs *ReferenceSets) IsLegitTLD(tld string) bool {
	_, ok := rs.legitTLDs[strings.ToLower(strings.TrimPrefix(tld, "."))]
	return ok
}

// IsKnownPhishingURL reports membership in the loaded phishing feed
func (rs *ReferenceSets) IsKnownPhishingURL(url string) bool {
	_, ok := rs.phishingURLs[url]
	return ok
}

// LegitLabels returns the second-level labels of the top set, for similarity
// features. The returned slice must not be modified.
func (rs *ReferenceSets) LegitLabels() []string {
	return rs.legitLabels
}

// HasPhishingFeed reports whether the phishing feed loaded with any entries
func (rs *ReferenceSets) HasPhishingFeed() bool {
	return len(rs.phishingURLs) > 0
}

func fetchDomainList(ctx context.Context, client *http.Client, url string, log *logger.Logger) []string {
	lines := fetchLines(ctx, client, url, log)
	domains := make([]string, 0, len(lines))
	for _, line := range lines {
		// Tolerate rank,domain CSV rows
		if _, domain, ok := strings.Cut(line, ","); ok {
			line = domain
		}
		line = strings.TrimSpace(line)
		if line != "" && strings.Contains(line, ".") {
			domains = append(domains, line)
		}
	}
	return domains
}

func fetchURLList(ctx context.Context, client *http.Client, url string, log *logger.Logger) []string {
	lines := fetchLines(ctx, client, url, log)
	urls := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "http") {
			urls = append(urls, line)
		}
	}
	return urls
}

func fetchLines(ctx context.Context, client *http.Client, url string, log *logger.Logger) []string {
	if url == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("invalid reference list URL")
		return nil
	}

	resp, err := client.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("failed to fetch reference list")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Str("url", url).Msg("reference list fetch returned non-OK status")
		return nil
	}

	var lines []string
	scanner := bufio.NewScanner(io.LimitReader(resp.Body, 32<<20))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}

// domainLabel strips the public suffix and returns the second-level label
func domainLabel(domain string) string {
	suffix, _ := publicsuffix.PublicSuffix(domain)
	label := strings.TrimSuffix(domain, "."+suffix)
	if i := strings.LastIndex(label, "."); i >= 0 {
		label = label[i+1:]
	}
	return label
}

// RegisteredDomain returns the effective TLD plus one label for a host,
// falling back to the host itself when derivation fails (IP literals,
// single-label hosts).
func RegisteredDomain(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if net.ParseIP(host) != nil {
		return host
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}
