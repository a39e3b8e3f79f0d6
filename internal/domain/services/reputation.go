package services

import (
	"context"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"phishscan/internal/domain/models"
	"phishscan/internal/infrastructure/cache"
	"phishscan/pkg/logger"
)

// brandSimilarityThreshold is the LCS ratio above which a domain label is
// considered an impersonation attempt
const brandSimilarityThreshold = 0.8

// Probe sources
const (
	SourceBlocklist    = "blocklist"
	SourceExecutable   = "executable_download"
	SourceBrand        = "brand_impersonation"
	SourceRedirects    = "redirect_count"
	SourceDomainAge    = "domain_age"
	SourceStructure    = "url_structure"
	SourceShortener    = "shortener"
	SourceKeywords     = "keyword_scan"
	SourcePhishingFeed = "phishing_feed"
)

// ReputationConfig tunes the probes
type ReputationConfig struct {
	MaxRedirects  int
	DomainAgeDays int
	ProbeTimeout  time.Duration
	BlocklistTTL  time.Duration
}

// ReputationChecker runs all single-signal probes for one URL. Probes are
// independent and never fail: an internal error yields NONE.
type ReputationChecker struct {
	cfg       ReputationConfig
	blocklist BlocklistClient
	cache     *cache.RedisCache
	refs      *ReferenceSets
	logger    *logger.Logger
}

// NewReputationChecker creates a checker. blocklist, redisCache, and refs
// may be nil; the affected probes then report NONE or skip caching.
func NewReputationChecker(cfg ReputationConfig, blocklist BlocklistClient, redisCache *cache.RedisCache, refs *ReferenceSets, log *logger.Logger) *ReputationChecker {
	if cfg.MaxRedirects == 0 {
		cfg.MaxRedirects = 3
	}
	if cfg.DomainAgeDays == 0 {
		cfg.DomainAgeDays = 30
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = 10 * time.Second
	}
	if cfg.BlocklistTTL == 0 {
		cfg.BlocklistTTL = 10 * time.Minute
	}

	return &ReputationChecker{
		cfg:       cfg,
		blocklist: blocklist,
		cache:     redisCache,
		refs:      refs,
		logger:    log.WithComponent("reputation"),
	}
}

type probe struct {
	source string
	run    func(ctx context.Context, rawURL string, bundle *models.FetchBundle) models.ReputationSignal
}

// Check dispatches every probe concurrently and collects their signals.
// rawURL is the URL as submitted, before any redirects: shorteners and
// lure tokens live in the submitted URL and would vanish behind the
// landing page otherwise. Probes that also care about the destination
// consult the bundle. The slice always holds one signal per probe, NONE
// included. skipBlocklist suppresses the network lookup for domains
// already known to be legitimate.
func (c *ReputationChecker) Check(ctx context.Context, rawURL string, bundle *models.FetchBundle, skipBlocklist bool) []models.ReputationSignal {
	probes := []probe{
		{SourceExecutable, c.checkExecutableExtension},
		{SourceBrand, c.checkBrandImpersonation},
		{SourceRedirects, c.checkRedirectCount},
		{SourceDomainAge, c.checkDomainAge},
		{SourceStructure, c.checkURLStructure},
		{SourceShortener, c.checkShortener},
		{SourceKeywords, c.checkKeywords},
		{SourcePhishingFeed, c.checkPhishingFeed},
	}
	if !skipBlocklist {
		probes = append(probes, probe{SourceBlocklist, c.checkBlocklist})
	}

	signals := make([]models.ReputationSignal, len(probes))
	var wg sync.WaitGroup
	for i, p := range probes {
		wg.Add(1)
		go func(i int, p probe) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					c.logger.Warn().Interface("panic", r).Str("probe", p.source).Msg("probe panicked")
					signals[i] = models.ReputationSignal{Source: p.source, Level: models.SignalNone}
				}
			}()
			signals[i] = p.run(ctx, rawURL, bundle)
		}(i, p)
	}
	wg.Wait()

	return signals
}

// checkBlocklist queries the known-threat service, memoized in Redis
func (c *ReputationChecker) checkBlocklist(ctx context.Context, rawURL string, bundle *models.FetchBundle) models.ReputationSignal {
	none := models.ReputationSignal{Source: SourceBlocklist, Level: models.SignalNone}

	if c.blocklist == nil || !c.blocklist.Enabled() {
		return none
	}

	if c.cache != nil {
		var cached models.ReputationSignal
		if err := c.cache.GetCachedBlocklistVerdict(ctx, rawURL, &cached); err == nil {
			return cached
		}
	}

	probeCtx, cancel := context.WithTimeout(ctx, c.cfg.ProbeTimeout)
	defer cancel()

	matches, err := c.blocklist.CheckURL(probeCtx, rawURL)
	if err != nil {
		c.logger.Debug().Err(err).Str("url", rawURL).Msg("blocklist check failed")
		return none
	}

	signal := none
	for _, m := range matches {
		level := threatTypeLevel(m.ThreatType)
		if rankLevel(level) > rankLevel(signal.Level) {
			signal = models.ReputationSignal{
				Source: SourceBlocklist,
				Level:  level,
				Detail: m.ThreatType,
			}
		}
	}

	if c.cache != nil {
		if err := c.cache.CacheBlocklistVerdict(ctx, rawURL, signal, c.cfg.BlocklistTTL); err != nil {
			c.logger.Debug().Err(err).Msg("failed to cache blocklist verdict")
		}
	}

	return signal
}

func threatTypeLevel(threatType string) models.SignalLevel {
	switch threatType {
	case "MALWARE", "POTENTIALLY_HARMFUL_APPLICATION":
		return models.SignalCritical
	case "SOCIAL_ENGINEERING", "UNWANTED_SOFTWARE":
		return models.SignalHigh
	default:
		return models.SignalNone
	}
}

// checkExecutableExtension flags direct links to dangerous payloads,
// on the submitted URL and on the redirect destination
func (c *ReputationChecker) checkExecutableExtension(_ context.Context, rawURL string, bundle *models.FetchBundle) models.ReputationSignal {
	for _, candidate := range probeURLs(rawURL, bundle) {
		u, err := url.Parse(candidate)
		if err != nil {
			continue
		}

		path := strings.ToLower(u.Path)
		for _, ext := range executableExtensions {
			if strings.HasSuffix(path, ext) {
				return models.ReputationSignal{
					Source: SourceExecutable,
					Level:  models.SignalHigh,
					Detail: ext,
				}
			}
		}
	}
	return models.ReputationSignal{Source: SourceExecutable, Level: models.SignalNone}
}

// checkBrandImpersonation flags domains similar-but-unequal to known brands
func (c *ReputationChecker) checkBrandImpersonation(_ context.Context, rawURL string, bundle *models.FetchBundle) models.ReputationSignal {
	none := models.ReputationSignal{Source: SourceBrand, Level: models.SignalNone}

	regDomain := registeredDomainOf(rawURL, bundle)
	label := strings.ToLower(domainLabel(regDomain))
	if label == "" {
		return none
	}

	for _, brand := range phishingTargetBrands {
		compact := strings.ReplaceAll(brand, " ", "")
		if label == compact {
			continue
		}
		if lcsRatio(label, compact) > brandSimilarityThreshold {
			return models.ReputationSignal{
				Source: SourceBrand,
				Level:  models.SignalHigh,
				Detail: brand,
			}
		}
	}
	return none
}

// checkRedirectCount flags chains longer than the configured threshold
func (c *ReputationChecker) checkRedirectCount(_ context.Context, _ string, bundle *models.FetchBundle) models.ReputationSignal {
	if bundle != nil && len(bundle.Redirects) > c.cfg.MaxRedirects {
		return models.ReputationSignal{
			Source: SourceRedirects,
			Level:  models.SignalMedium,
			Detail: "excessive redirects",
		}
	}
	return models.ReputationSignal{Source: SourceRedirects, Level: models.SignalNone}
}

// checkDomainAge flags domains registered within the threshold window
func (c *ReputationChecker) checkDomainAge(_ context.Context, _ string, bundle *models.FetchBundle) models.ReputationSignal {
	none := models.ReputationSignal{Source: SourceDomainAge, Level: models.SignalNone}
	if bundle == nil || bundle.Whois == nil {
		return none
	}

	age := bundle.Whois.AgeDays(time.Now())
	if age >= 0 && age < c.cfg.DomainAgeDays {
		return models.ReputationSignal{
			Source: SourceDomainAge,
			Level:  models.SignalMedium,
			Detail: "newly registered domain",
		}
	}
	return none
}

// checkURLStructure inspects the host shape: IP literal is MEDIUM,
// suspicious TLD, non-standard port, or deep subdomain nesting is LOW
func (c *ReputationChecker) checkURLStructure(_ context.Context, rawURL string, bundle *models.FetchBundle) models.ReputationSignal {
	none := models.ReputationSignal{Source: SourceStructure, Level: models.SignalNone}

	u, err := url.Parse(rawURL)
	if err != nil {
		return none
	}
	host := u.Hostname()

	if net.ParseIP(host) != nil {
		return models.ReputationSignal{
			Source: SourceStructure,
			Level:  models.SignalMedium,
			Detail: "IP literal host",
		}
	}

	regDomain := registeredDomainOf(rawURL, bundle)

	if tld := lastLabel(host); tld != "" {
		if _, ok := suspiciousTLDs[tld]; ok {
			return models.ReputationSignal{
				Source: SourceStructure,
				Level:  models.SignalLow,
				Detail: "suspicious TLD ." + tld,
			}
		}
	}

	if port := u.Port(); port != "" && port != "80" && port != "443" {
		return models.ReputationSignal{
			Source: SourceStructure,
			Level:  models.SignalLow,
			Detail: "non-standard port " + port,
		}
	}

	if subdomainDepth(host, regDomain) >= 3 {
		return models.ReputationSignal{
			Source: SourceStructure,
			Level:  models.SignalLow,
			Detail: "deep subdomain nesting",
		}
	}

	return none
}

// checkShortener tags known URL-shortening hosts without raising severity
func (c *ReputationChecker) checkShortener(_ context.Context, rawURL string, _ *models.FetchBundle) models.ReputationSignal {
	host := strings.ToLower(hostname(rawURL))
	if _, ok := knownShorteners[host]; ok {
		return models.ReputationSignal{
			Source: SourceShortener,
			Level:  models.SignalShortener,
			Detail: host,
		}
	}
	return models.ReputationSignal{Source: SourceShortener, Level: models.SignalNone}
}

// checkKeywords scans the submitted and landing URLs for lure tokens
func (c *ReputationChecker) checkKeywords(_ context.Context, rawURL string, bundle *models.FetchBundle) models.ReputationSignal {
	signal := models.ReputationSignal{Source: SourceKeywords, Level: models.SignalNone}

	for _, candidate := range probeURLs(rawURL, bundle) {
		lower := strings.ToLower(candidate)

		for _, kw := range actionKeywords {
			if strings.Contains(lower, kw) {
				return models.ReputationSignal{
					Source: SourceKeywords,
					Level:  models.SignalMedium,
					Detail: kw,
				}
			}
		}
		for _, kw := range promoKeywords {
			if strings.Contains(lower, kw) && signal.Level == models.SignalNone {
				signal = models.ReputationSignal{
					Source: SourceKeywords,
					Level:  models.SignalLow,
					Detail: kw,
				}
			}
		}
	}
	return signal
}

// checkPhishingFeed flags URLs present in the loaded phishing feed
func (c *ReputationChecker) checkPhishingFeed(_ context.Context, rawURL string, bundle *models.FetchBundle) models.ReputationSignal {
	none := models.ReputationSignal{Source: SourcePhishingFeed, Level: models.SignalNone}
	if c.refs == nil {
		return none
	}

	for _, u := range probeURLs(rawURL, bundle) {
		if c.refs.IsKnownPhishingURL(u) {
			return models.ReputationSignal{
				Source: SourcePhishingFeed,
				Level:  models.SignalHigh,
				Detail: "listed in phishing feed",
			}
		}
	}
	return none
}

// probeURLs returns the submitted URL plus the landing URL when a
// redirect moved the scan elsewhere
func probeURLs(rawURL string, bundle *models.FetchBundle) []string {
	urls := []string{rawURL}
	if bundle != nil && bundle.FinalURL != "" && bundle.FinalURL != rawURL {
		urls = append(urls, bundle.FinalURL)
	}
	return urls
}

// registeredDomainOf resolves the registered domain of the submitted URL.
// The bundle's precomputed value describes the final host, so it only
// applies when redirects stayed on the same host.
func registeredDomainOf(rawURL string, bundle *models.FetchBundle) string {
	if bundle != nil && bundle.RegisteredDomain != "" && hostname(bundle.FinalURL) == hostname(rawURL) {
		return bundle.RegisteredDomain
	}
	return RegisteredDomain(hostname(rawURL))
}

func lastLabel(host string) string {
	if i := strings.LastIndex(host, "."); i >= 0 {
		return strings.ToLower(host[i+1:])
	}
	return ""
}

func rankLevel(l models.SignalLevel) int {
	if sev, ok := l.Severity(); ok {
		return sev.Rank() + 1
	}
	return 0
}
