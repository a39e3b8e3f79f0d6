package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phishscan/internal/domain/models"
)

func testChecker(t *testing.T, blocklist BlocklistClient, refs *ReferenceSets) *ReputationChecker {
	t.Helper()
	return NewReputationChecker(ReputationConfig{}, blocklist, nil, refs, testLogger())
}

func findSignal(t *testing.T, signals []models.ReputationSignal, source string) models.ReputationSignal {
	t.Helper()
	for _, s := range signals {
		if s.Source == source {
			return s
		}
	}
	t.Fatalf("no signal from source %q", source)
	return models.ReputationSignal{}
}

func TestCheck_OneSignalPerProbe(t *testing.T) {
	c := testChecker(t, NewMockBlocklistClient(), testRefs(t))

	signals := c.Check(context.Background(), "https://example.com", nil, false)
	assert.Len(t, signals, 9)

	seen := map[string]bool{}
	for _, s := range signals {
		assert.False(t, seen[s.Source], "duplicate source %s", s.Source)
		seen[s.Source] = true
	}

	// Known-legit domains skip the blocklist probe entirely.
	signals = c.Check(context.Background(), "https://example.com", nil, true)
	assert.Len(t, signals, 8)
	for _, s := range signals {
		assert.NotEqual(t, SourceBlocklist, s.Source)
	}
}

func TestCheckBlocklist(t *testing.T) {
	mock := NewMockBlocklistClient()
	mock.ThreatURLs["https://malware.test/x"] = []string{"MALWARE"}
	mock.ThreatURLs["https://phish.test/x"] = []string{"SOCIAL_ENGINEERING"}
	mock.ThreatURLs["https://both.test/x"] = []string{"SOCIAL_ENGINEERING", "MALWARE"}

	c := testChecker(t, mock, nil)

	tests := []struct {
		url  string
		want models.SignalLevel
	}{
		{"https://malware.test/x", models.SignalCritical},
		{"https://phish.test/x", models.SignalHigh},
		{"https://both.test/x", models.SignalCritical},
		{"https://clean.test/x", models.SignalNone},
	}

	for _, tt := range tests {
		signals := c.Check(context.Background(), tt.url, nil, false)
		got := findSignal(t, signals, SourceBlocklist)
		assert.Equal(t, tt.want, got.Level, "url=%s", tt.url)
	}
}

func TestCheckExecutableExtension(t *testing.T) {
	c := testChecker(t, nil, nil)

	signals := c.Check(context.Background(), "https://example.com/setup.exe", nil, true)
	got := findSignal(t, signals, SourceExecutable)
	require.Equal(t, models.SignalHigh, got.Level)
	assert.Equal(t, ".exe", got.Detail)

	signals = c.Check(context.Background(), "https://example.com/page.html", nil, true)
	assert.Equal(t, models.SignalNone, findSignal(t, signals, SourceExecutable).Level)
}

func TestCheckBrandImpersonation(t *testing.T) {
	c := testChecker(t, nil, nil)

	signals := c.Check(context.Background(), "https://paypa1.com/", nil, true)
	got := findSignal(t, signals, SourceBrand)
	require.Equal(t, models.SignalHigh, got.Level)
	assert.Equal(t, "paypal", got.Detail)

	// The genuine brand domain is not an impersonation of itself.
	signals = c.Check(context.Background(), "https://paypal.com/", nil, true)
	assert.Equal(t, models.SignalNone, findSignal(t, signals, SourceBrand).Level)

	signals = c.Check(context.Background(), "https://unrelated-site.com/", nil, true)
	assert.Equal(t, models.SignalNone, findSignal(t, signals, SourceBrand).Level)
}

func TestCheckRedirectCount(t *testing.T) {
	c := testChecker(t, nil, nil)

	hops := func(n int) []models.RedirectHop {
		out := make([]models.RedirectHop, n)
		for i := range out {
			out[i] = models.RedirectHop{URL: "https://example.com/r", StatusCode: 302}
		}
		return out
	}

	bundle := &models.FetchBundle{Redirects: hops(4)}
	signals := c.Check(context.Background(), "https://example.com", bundle, true)
	assert.Equal(t, models.SignalMedium, findSignal(t, signals, SourceRedirects).Level)

	bundle = &models.FetchBundle{Redirects: hops(3)}
	signals = c.Check(context.Background(), "https://example.com", bundle, true)
	assert.Equal(t, models.SignalNone, findSignal(t, signals, SourceRedirects).Level)
}

func TestCheckDomainAge(t *testing.T) {
	c := testChecker(t, nil, nil)

	young := time.Now().AddDate(0, 0, -10)
	old := time.Now().AddDate(-3, 0, 0)

	bundle := &models.FetchBundle{Whois: &models.WhoisRecord{CreatedAt: &young}}
	signals := c.Check(context.Background(), "https://newsite.com", bundle, true)
	assert.Equal(t, models.SignalMedium, findSignal(t, signals, SourceDomainAge).Level)

	bundle = &models.FetchBundle{Whois: &models.WhoisRecord{CreatedAt: &old}}
	signals = c.Check(context.Background(), "https://oldsite.com", bundle, true)
	assert.Equal(t, models.SignalNone, findSignal(t, signals, SourceDomainAge).Level)

	// Unknown age is not a signal.
	bundle = &models.FetchBundle{Whois: &models.WhoisRecord{}}
	signals = c.Check(context.Background(), "https://unknown.com", bundle, true)
	assert.Equal(t, models.SignalNone, findSignal(t, signals, SourceDomainAge).Level)
}

func TestCheckURLStructure(t *testing.T) {
	c := testChecker(t, nil, nil)

	tests := []struct {
		url  string
		want models.SignalLevel
	}{
		{"http://192.168.1.5/login", models.SignalMedium},
		{"https://example.xyz/", models.SignalLow},
		{"https://example.com:8080/", models.SignalLow},
		{"https://a.b.c.example.com/", models.SignalLow},
		{"https://www.example.com/", models.SignalNone},
	}

	for _, tt := range tests {
		signals := c.Check(context.Background(), tt.url, nil, true)
		got := findSignal(t, signals, SourceStructure)
		assert.Equal(t, tt.want, got.Level, "url=%s detail=%s", tt.url, got.Detail)
	}
}

func TestCheckShortener(t *testing.T) {
	c := testChecker(t, nil, nil)

	signals := c.Check(context.Background(), "https://bit.ly/3xYz", nil, true)
	got := findSignal(t, signals, SourceShortener)
	require.Equal(t, models.SignalShortener, got.Level)
	assert.Equal(t, "bit.ly", got.Detail)

	signals = c.Check(context.Background(), "https://example.com/short", nil, true)
	assert.Equal(t, models.SignalNone, findSignal(t, signals, SourceShortener).Level)
}

func TestCheckKeywords(t *testing.T) {
	c := testChecker(t, nil, nil)

	tests := []struct {
		url  string
		want models.SignalLevel
	}{
		{"https://example.com/verify-account", models.SignalMedium},
		{"https://example.com/special-offer", models.SignalLow},
		{"https://example.com/products", models.SignalNone},
	}

	for _, tt := range tests {
		signals := c.Check(context.Background(), tt.url, nil, true)
		assert.Equal(t, tt.want, findSignal(t, signals, SourceKeywords).Level, "url=%s", tt.url)
	}
}

func TestCheckShortener_RedirectedInput(t *testing.T) {
	c := testChecker(t, nil, nil)

	// A live shortener always redirects; the tag must come from the
	// submitted URL, not the landing page.
	bundle := &models.FetchBundle{
		InputURL:         "https://bit.ly/abc123",
		FinalURL:         "https://landing.example.net/offer",
		RegisteredDomain: "example.net",
		Redirects: []models.RedirectHop{
			{URL: "https://bit.ly/abc123", StatusCode: 301},
		},
	}

	signals := c.Check(context.Background(), "https://bit.ly/abc123", bundle, true)
	got := findSignal(t, signals, SourceShortener)
	require.Equal(t, models.SignalShortener, got.Level)
	assert.Equal(t, "bit.ly", got.Detail)

	arb := Arbitrate(signals, 0.2)
	assert.True(t, arb.IsShortener)
	assert.Equal(t, "bit.ly", arb.ShortenerDomain)
}

func TestCheckExecutableExtension_RedirectDestination(t *testing.T) {
	c := testChecker(t, nil, nil)

	bundle := &models.FetchBundle{
		InputURL: "https://example.com/download",
		FinalURL: "https://cdn.example.net/payload.exe",
	}

	signals := c.Check(context.Background(), "https://example.com/download", bundle, true)
	got := findSignal(t, signals, SourceExecutable)
	require.Equal(t, models.SignalHigh, got.Level)
	assert.Equal(t, ".exe", got.Detail)
}

func TestCheckKeywords_LandingURL(t *testing.T) {
	c := testChecker(t, nil, nil)

	bundle := &models.FetchBundle{
		InputURL: "https://t.ly/x9",
		FinalURL: "https://example.net/verify-account",
	}

	signals := c.Check(context.Background(), "https://t.ly/x9", bundle, true)
	assert.Equal(t, models.SignalMedium, findSignal(t, signals, SourceKeywords).Level)
}

func TestCheckBrandImpersonation_CrossHostRedirect(t *testing.T) {
	c := testChecker(t, nil, nil)

	// The bundle describes the landing host; the impersonating label
	// still lives in the submitted URL.
	bundle := &models.FetchBundle{
		InputURL:         "https://paypa1.com/login",
		FinalURL:         "https://landing.example.net/",
		RegisteredDomain: "example.net",
	}

	signals := c.Check(context.Background(), "https://paypa1.com/login", bundle, true)
	got := findSignal(t, signals, SourceBrand)
	require.Equal(t, models.SignalHigh, got.Level)
	assert.Equal(t, "paypal", got.Detail)
}

func TestCheckPhishingFeed(t *testing.T) {
	refs := &ReferenceSets{
		phishingURLs: map[string]struct{}{
			"https://phish.example.test/login": {},
		},
	}
	c := testChecker(t, nil, refs)

	signals := c.Check(context.Background(), "https://phish.example.test/login", nil, true)
	assert.Equal(t, models.SignalHigh, findSignal(t, signals, SourcePhishingFeed).Level)

	// The final URL after redirects is checked too.
	bundle := &models.FetchBundle{FinalURL: "https://phish.example.test/login"}
	signals = c.Check(context.Background(), "https://short.test/x", bundle, true)
	assert.Equal(t, models.SignalHigh, findSignal(t, signals, SourcePhishingFeed).Level)

	signals = c.Check(context.Background(), "https://clean.test/", nil, true)
	assert.Equal(t, models.SignalNone, findSignal(t, signals, SourcePhishingFeed).Level)
}
