package models

import (
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// RedirectHop is one entry in the redirect chain of a fetch
type RedirectHop struct {
	URL        string `json:"url"`
	StatusCode int    `json:"status_code"`
}

// CertInfo holds the peer certificate fields captured from a TLS handshake
type CertInfo struct {
	Subject   string    `json:"subject"`
	Issuer    string    `json:"issuer"`
	NotBefore time.Time `json:"not_before"`
	NotAfter  time.Time `json:"not_after"`
	DNSNames  []string  `json:"dns_names,omitempty"`
}

// WhoisRecord holds registration data for a registered domain
type WhoisRecord struct {
	Domain      string     `json:"domain"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	Registrar   string     `json:"registrar,omitempty"`
	NameServers []string   `json:"name_servers,omitempty"`
}

// AgeDays returns the domain age in days, or -1 when the creation date is unknown
func (w *WhoisRecord) AgeDays(now time.Time) int {
	if w == nil || w.CreatedAt == nil {
		return -1
	}
	return int(now.Sub(*w.CreatedAt).Hours() / 24)
}

// RegistrationYears returns the registration span in whole years, or -1 when unknown
func (w *WhoisRecord) RegistrationYears() int {
	if w == nil || w.CreatedAt == nil || w.ExpiresAt == nil {
		return -1
	}
	return int(w.ExpiresAt.Sub(*w.CreatedAt).Hours() / 24 / 365)
}

// FetchBundle carries everything the fetcher learned about one URL. Every
// field is best-effort: consumers must tolerate zero values and nil pointers.
type FetchBundle struct {
	// InputURL is the normalized URL the scan started from
	InputURL string
	// FinalURL is the URL after following redirects; equals InputURL when
	// no fetch succeeded
	FinalURL string
	// RegisteredDomain is the effective TLD plus one label of the final host
	RegisteredDomain string
	// StatusCode of the main fetch, 0 when the fetch failed
	StatusCode int
	// Body is the response text, empty when unavailable or non-2xx/3xx
	Body string
	// Doc is the parsed DOM, nil when the body was absent or unparseable
	Doc *html.Node
	// Redirects is the ordered chain of intermediate responses
	Redirects []RedirectHop
	// Cert is the TLS peer certificate, nil for http or on handshake failure
	Cert *CertInfo
	// Whois is the registration record, nil on lookup failure
	Whois *WhoisRecord
}

// HasDOM reports whether DOM-dependent features can be computed
func (b *FetchBundle) HasDOM() bool {
	return b != nil && b.Doc != nil
}

// SelfRedirects counts hops that stayed on the given registered domain
func (b *FetchBundle) SelfRedirects(registeredDomain string) int {
	if b == nil || registeredDomain == "" {
		return 0
	}
	n := 0
	for _, hop := range b.Redirects {
		if hostOf(hop.URL) == "" {
			continue
		}
		if containsDomain(hostOf(hop.URL), registeredDomain) {
			n++
		}
	}
	return n
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func containsDomain(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}
