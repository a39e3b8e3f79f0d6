package services

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"phishscan/internal/domain/models"
	"phishscan/pkg/logger"
)

// redirectHardCap bounds cyclic or transitive redirect chains
const redirectHardCap = 8

// FetcherConfig tunes the network behavior of the fetcher
type FetcherConfig struct {
	UserAgent    string
	FetchTimeout time.Duration
	ProbeTimeout time.Duration
	MaxBodyBytes int64
}

// Fetcher retrieves everything knowable about one URL: the page, its
// redirect chain, the TLS peer certificate, and the WHOIS record. Every
// operation is best-effort; a fully empty FetchBundle is a valid result.
type Fetcher struct {
	cfg    FetcherConfig
	whois  WhoisClient
	logger *logger.Logger
}

// NewFetcher creates a fetcher. whois may be nil to disable WHOIS lookups.
func NewFetcher(cfg FetcherConfig, whois WhoisClient, log *logger.Logger) *Fetcher {
	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = 15 * time.Second
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = 5 * time.Second
	}
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = 2 << 20
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	}

	return &Fetcher{
		cfg:    cfg,
		whois:  whois,
		logger: log.WithComponent("fetcher"),
	}
}

// Fetch builds a FetchBundle for a validated URL. It never returns an
// error: network, TLS, and WHOIS failures leave the affected fields absent.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) *models.FetchBundle {
	resolved := f.inferScheme(ctx, rawURL)

	bundle := &models.FetchBundle{
		InputURL: resolved,
		FinalURL: resolved,
	}

	f.fetchPage(ctx, resolved, bundle)

	finalHost := hostname(bundle.FinalURL)
	bundle.RegisteredDomain = RegisteredDomain(finalHost)

	if strings.HasPrefix(bundle.FinalURL, "https://") {
		bundle.Cert = f.fetchCert(ctx, finalHost)
	}

	if f.whois != nil && finalHost != "" && net.ParseIP(finalHost) == nil {
		record, err := f.whois.Lookup(ctx, bundle.RegisteredDomain)
		if err != nil {
			f.logger.Debug().Err(err).Str("domain", bundle.RegisteredDomain).Msg("WHOIS lookup failed")
		} else {
			bundle.Whois = record
		}
	}

	return bundle
}

// inferScheme resolves a scheme-less URL by probing https first, then http.
// URLs that already carry a scheme pass through unchanged.
func (f *Fetcher) inferScheme(ctx context.Context, rawURL string) string {
	if strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://") {
		return rawURL
	}

	client := f.newClient(f.cfg.ProbeTimeout, nil)

	for _, scheme := range []string{"https://", "http://"} {
		candidate := scheme + rawURL
		req, err := http.NewRequestWithContext(ctx, "GET", candidate, nil)
		if err != nil {
			continue
		}
		req.Header.Set("User-Agent", f.cfg.UserAgent)

		resp, err := client.Do(req)
		if err != nil {
			continue
		}
		final := resp.Request.URL.String()
		status := resp.StatusCode
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()

		if status < 400 {
			return final
		}
	}

	return "http://" + rawURL
}

// fetchPage performs the main GET and fills FinalURL, StatusCode, Body,
// Doc, and Redirects.
func (f *Fetcher) fetchPage(ctx context.Context, rawURL string, bundle *models.FetchBundle) {
	var hops []models.RedirectHop

	client := f.newClient(f.cfg.FetchTimeout, func(req *http.Request, via []*http.Request) error {
		status := 0
		if req.Response != nil {
			status = req.Response.StatusCode
		}
		hops = append(hops, models.RedirectHop{
			URL:        req.URL.String(),
			StatusCode: status,
		})
		if len(via) >= redirectHardCap {
			return http.ErrUseLastResponse
		}
		return nil
	})

	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		f.logger.Debug().Err(err).Str("url", rawURL).Msg("failed to build request")
		return
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		bundle.Redirects = hops
		f.logger.Debug().Err(err).Str("url", rawURL).Msg("fetch failed")
		return
	}
	defer resp.Body.Close()

	bundle.Redirects = hops
	bundle.FinalURL = resp.Request.URL.String()
	bundle.StatusCode = resp.StatusCode

	if resp.StatusCode >= 400 {
		return
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodyBytes))
	if err != nil {
		f.logger.Debug().Err(err).Str("url", rawURL).Msg("failed to read body")
		return
	}
	bundle.Body = string(body)

	doc, err := html.Parse(strings.NewReader(bundle.Body))
	if err != nil {
		f.logger.Debug().Err(err).Str("url", rawURL).Msg("failed to parse HTML")
		return
	}
	bundle.Doc = doc
}

// fetchCert captures the peer certificate from a TLS handshake. Verification
// stays off: a broken certificate is itself a signal, not a reason to bail.
func (f *Fetcher) fetchCert(ctx context.Context, host string) *models.CertInfo {
	if host == "" {
		return nil
	}

	dialer := &net.Dialer{Timeout: f.cfg.ProbeTimeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", net.JoinHostPort(host, "443"), &tls.Config{
		InsecureSkipVerify: true,
		ServerName:         host,
	})
	if err != nil {
		f.logger.Debug().Err(err).Str("host", host).Msg("TLS handshake failed")
		return nil
	}
	defer conn.Close()

	certs := conn.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return nil
	}

	leaf := certs[0]
	return &models.CertInfo{
		Subject:   leaf.Subject.String(),
		Issuer:    leaf.Issuer.String(),
		NotBefore: leaf.NotBefore,
		NotAfter:  leaf.NotAfter,
		DNSNames:  leaf.DNSNames,
	}
}

func (f *Fetcher) newClient(timeout time.Duration, checkRedirect func(*http.Request, []*http.Request) error) *http.Client {
	return &http.Client{
		Timeout:       timeout,
		CheckRedirect: checkRedirect,
		Transport: &http.Transport{
			TLSClientConfig:   &tls.Config{InsecureSkipVerify: true},
			DisableKeepAlives: true,
		},
	}
}

func hostname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
