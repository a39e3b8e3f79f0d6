package services

import (
	"math"
	"net"
	"net/url"
	"strings"
	"time"
	"unicode"

	"golang.org/x/net/publicsuffix"

	"phishscan/internal/domain/models"
	"phishscan/pkg/logger"
)

// featureContext carries the precomputed inputs for one extraction
type featureContext struct {
	raw       string
	parsed    *url.URL
	host      string
	regDomain string
	tld       string
	bundle    *models.FetchBundle
	dom       *domStats
	refs      *ReferenceSets
	now       time.Time
}

type featureFunc func(*featureContext) float64

// FeatureExtractor computes an ordered numeric vector from a URL and its
// FetchBundle. The schema comes from the model artifact so extraction order
// always matches training order.
type FeatureExtractor struct {
	schema []string
	refs   *ReferenceSets
	logger *logger.Logger
}

// NewFeatureExtractor binds an extractor to a schema. Names missing from
// the registry are logged once and always yield 0.
func NewFeatureExtractor(schema []string, refs *ReferenceSets, log *logger.Logger) *FeatureExtractor {
	log = log.WithComponent("features")
	for _, name := range schema {
		if _, ok := featureRegistry[name]; !ok {
			log.Warn().Str("feature", name).Msg("unknown feature in schema, will yield 0")
		}
	}
	return &FeatureExtractor{
		schema: schema,
		refs:   refs,
		logger: log,
	}
}

// Arity returns the vector length this extractor produces
func (e *FeatureExtractor) Arity() int {
	return len(e.schema)
}

// Schema returns the bound feature names in order
func (e *FeatureExtractor) Schema() []string {
	return e.schema
}

// Extract computes the vector. It never fails: uncomputable features are 0
// and the result always has exactly len(schema) entries.
func (e *FeatureExtractor) Extract(rawURL string, bundle *models.FetchBundle) []float64 {
	fc := e.buildContext(rawURL, bundle)

	vec := make([]float64, len(e.schema))
	for i, name := range e.schema {
		fn, ok := featureRegistry[name]
		if !ok {
			continue
		}
		v := fn(fc)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		vec[i] = v
	}
	return vec
}

func (e *FeatureExtractor) buildContext(rawURL string, bundle *models.FetchBundle) *featureContext {
	if bundle == nil {
		bundle = &models.FetchBundle{InputURL: rawURL, FinalURL: rawURL}
	}

	fc := &featureContext{
		raw:    rawURL,
		bundle: bundle,
		refs:   e.refs,
		now:    time.Now(),
	}

	if u, err := url.Parse(rawURL); err == nil {
		fc.parsed = u
		fc.host = u.Hostname()
	}

	fc.regDomain = bundle.RegisteredDomain
	if fc.regDomain == "" && fc.host != "" {
		fc.regDomain = RegisteredDomain(fc.host)
	}
	if fc.host != "" && net.ParseIP(fc.host) == nil {
		fc.tld, _ = publicsuffix.PublicSuffix(fc.host)
	}

	fc.dom = collectDOMStats(bundle.Doc, fc.regDomain)

	return fc
}

// featureRegistry maps feature names to their implementations. The model
// manifest selects and orders a subset of these at startup.
var featureRegistry = map[string]featureFunc{
	// Lexical URL features
	"URLLength":    func(fc *featureContext) float64 { return float64(len(fc.raw)) },
	"DomainLength": func(fc *featureContext) float64 { return float64(len(fc.host)) },
	"IsDomainIP": func(fc *featureContext) float64 {
		return boolFeature(fc.host != "" && net.ParseIP(fc.host) != nil)
	},
	"TLDLength": func(fc *featureContext) float64 { return float64(len(fc.tld)) },
	"NoOfSubDomain": func(fc *featureContext) float64 {
		return float64(subdomainDepth(fc.host, fc.regDomain))
	},
	"NoOfLettersInURL": func(fc *featureContext) float64 { return float64(countClass(fc.raw, unicode.IsLetter)) },
	"NoOfDigitsInURL":  func(fc *featureContext) float64 { return float64(countClass(fc.raw, unicode.IsDigit)) },
	"LetterRatioInURL": func(fc *featureContext) float64 {
		return ratio(countClass(fc.raw, unicode.IsLetter), len(fc.raw))
	},
	"DigitRatioInURL": func(fc *featureContext) float64 {
		return ratio(countClass(fc.raw, unicode.IsDigit), len(fc.raw))
	},
	"NoOfEqualsInURL":    func(fc *featureContext) float64 { return float64(strings.Count(fc.raw, "=")) },
	"NoOfQMarkInURL":     func(fc *featureContext) float64 { return float64(strings.Count(fc.raw, "?")) },
	"NoOfAmpersandInURL": func(fc *featureContext) float64 { return float64(strings.Count(fc.raw, "&")) },
	"NoOfOtherSpecialCharsInURL": func(fc *featureContext) float64 {
		return float64(countSpecial(fc.raw) - strings.Count(fc.raw, "=") - strings.Count(fc.raw, "?") - strings.Count(fc.raw, "&"))
	},
	"SpecialCharRatioInURL": func(fc *featureContext) float64 {
		return ratio(countSpecial(fc.raw), len(fc.raw))
	},
	"IsHTTPS": func(fc *featureContext) float64 {
		return boolFeature(strings.HasPrefix(fc.raw, "https://"))
	},

	// Encoding features
	"HasObfuscation": func(fc *featureContext) float64 {
		return boolFeature(countEncodedChars(fc.raw) > 0)
	},
	"NoOfObfuscatedChar": func(fc *featureContext) float64 { return float64(countEncodedChars(fc.raw)) },
	"ObfuscationRatio": func(fc *featureContext) float64 {
		return ratio(countEncodedChars(fc.raw), len(fc.raw))
	},
	"CharContinuationRate": func(fc *featureContext) float64 { return charContinuationRate(fc.raw) },
	"URLCharProb":          func(fc *featureContext) float64 { return urlCharProb(fc.raw) },

	// TLD and reference-list reputation
	"TLDLegitimateProb": func(fc *featureContext) float64 { return tldLegitimateProb(fc.tld, fc.refs) },
	"ShortURL": func(fc *featureContext) float64 {
		_, ok := knownShorteners[strings.ToLower(fc.host)]
		return boolFeature(ok)
	},
	"WebsiteTraffic": func(fc *featureContext) float64 {
		if fc.refs == nil {
			return 0
		}
		return boolFeature(fc.refs.IsLegitDomain(fc.regDomain))
	},
	"URLSimilarityIndex": func(fc *featureContext) float64 {
		if fc.refs == nil {
			return 0
		}
		return maxLabelSimilarity(domainLabel(fc.regDomain), fc.refs.LegitLabels()) * 100
	},

	// DOM features
	"HasTitle": func(fc *featureContext) float64 { return boolFeature(fc.dom.title != "") },
	"DomainTitleMatchScore": func(fc *featureContext) float64 {
		if fc.dom.title == "" {
			return 0
		}
		return lcsRatio(domainLabel(fc.regDomain), fc.dom.title) * 100
	},
	"URLTitleMatchScore": func(fc *featureContext) float64 {
		if fc.dom.title == "" {
			return 0
		}
		return lcsRatio(fc.raw, fc.dom.title) * 100
	},
	"HasFavicon":     func(fc *featureContext) float64 { return boolFeature(fc.dom.hasFavicon) },
	"HasDescription": func(fc *featureContext) float64 { return boolFeature(fc.dom.hasDescription) },
	"HasSocialNet": func(fc *featureContext) float64 {
		return boolFeature(hasSocialLinks(fc.bundle.Body))
	},
	"HasPasswordField": func(fc *featureContext) float64 { return boolFeature(fc.dom.hasPasswordField) },
	"HasSubmitButton":  func(fc *featureContext) float64 { return boolFeature(fc.dom.hasSubmitButton) },
	"HasHiddenFields":  func(fc *featureContext) float64 { return boolFeature(fc.dom.hasHiddenFields) },
	"HasCopyrightInfo": func(fc *featureContext) float64 {
		return boolFeature(hasCopyrightMarker(fc.bundle.Body))
	},
	"IsResponsive": func(fc *featureContext) float64 { return boolFeature(fc.dom.hasViewport) },
	"NoOfiFrame":   func(fc *featureContext) float64 { return float64(fc.dom.iframes) },
	"NoOfImage":    func(fc *featureContext) float64 { return float64(fc.dom.images) },
	"NoOfCSS":      func(fc *featureContext) float64 { return float64(fc.dom.cssLinks) },
	"NoOfJS":       func(fc *featureContext) float64 { return float64(fc.dom.scripts) },
	"LineOfCode": func(fc *featureContext) float64 {
		if fc.bundle.Body == "" {
			return 0
		}
		return float64(strings.Count(fc.bundle.Body, "\n") + 1)
	},
	"LargestLineLength": func(fc *featureContext) float64 { return float64(largestLine(fc.bundle.Body)) },

	// Link topology
	"NoOfSelfRef":     func(fc *featureContext) float64 { return float64(fc.dom.selfRefs) },
	"NoOfEmptyRef":    func(fc *featureContext) float64 { return float64(fc.dom.emptyRefs) },
	"NoOfExternalRef": func(fc *featureContext) float64 { return float64(fc.dom.externalRefs) },
	"HasExternalFormSubmit": func(fc *featureContext) float64 {
		return boolFeature(fc.dom.externalFormSubmit)
	},
	"RequestURLRatio": func(fc *featureContext) float64 {
		return ratio(fc.dom.requestExternal, fc.dom.requestTotal)
	},

	// Redirects
	"NoOfURLRedirect": func(fc *featureContext) float64 { return float64(len(fc.bundle.Redirects)) },
	"NoOfSelfRedirect": func(fc *featureContext) float64 {
		return float64(fc.bundle.SelfRedirects(fc.regDomain))
	},

	// WHOIS
	"AgeOfDomain": func(fc *featureContext) float64 {
		age := fc.bundle.Whois.AgeDays(fc.now)
		if age < 0 {
			return 0
		}
		return float64(age)
	},
	"DomainRegLen": func(fc *featureContext) float64 {
		years := fc.bundle.Whois.RegistrationYears()
		if years < 0 {
			return 0
		}
		return float64(years)
	},
	"DNSRecording": func(fc *featureContext) float64 {
		return boolFeature(fc.bundle.Whois != nil && len(fc.bundle.Whois.NameServers) > 0)
	},
}

// Helper computations

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

func countClass(s string, fn func(rune) bool) int {
	n := 0
	for _, r := range s {
		if fn(r) {
			n++
		}
	}
	return n
}

func countSpecial(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

// countEncodedChars counts %XX escape sequences
func countEncodedChars(s string) int {
	n := 0
	for i := 0; i+2 < len(s); i++ {
		if s[i] == '%' && isHexDigit(s[i+1]) && isHexDigit(s[i+2]) {
			n++
		}
	}
	return n
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

// charContinuationRate is the longest run of a single character class
// relative to the URL length. Long unbroken runs of letters or digits are
// typical of generated hostnames.
func charContinuationRate(s string) float64 {
	if s == "" {
		return 0
	}

	classOf := func(r rune) int {
		switch {
		case unicode.IsLetter(r):
			return 0
		case unicode.IsDigit(r):
			return 1
		default:
			return 2
		}
	}

	longest, run, prev := 0, 0, -1
	for _, r := range s {
		c := classOf(r)
		if c == prev {
			run++
		} else {
			run = 1
			prev = c
		}
		if run > longest {
			longest = run
		}
	}
	return float64(longest) / float64(len(s))
}

// english letter frequencies for URLCharProb
var letterFreq = map[byte]float64{
	'a': 0.082, 'b': 0.015, 'c': 0.028, 'd': 0.043, 'e': 0.127, 'f': 0.022,
	'g': 0.020, 'h': 0.061, 'i': 0.070, 'j': 0.002, 'k': 0.008, 'l': 0.040,
	'm': 0.024, 'n': 0.067, 'o': 0.075, 'p': 0.019, 'q': 0.001, 'r': 0.060,
	's': 0.063, 't': 0.091, 'u': 0.028, 'v': 0.010, 'w': 0.024, 'x': 0.002,
	'y': 0.020, 'z': 0.001,
}

// urlCharProb is the mean letter-frequency probability over the URL's
// letters. Random strings score lower than dictionary-like ones.
func urlCharProb(s string) float64 {
	sum, n := 0.0, 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		if p, ok := letterFreq[c]; ok {
			sum += p
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func tldLegitimateProb(tld string, refs *ReferenceSets) float64 {
	tld = strings.ToLower(tld)
	if tld == "" {
		return 0.5
	}
	if _, ok := suspiciousTLDs[tld]; ok {
		return 0.1
	}
	if refs != nil {
		if refs.IsLegitTLD(tld) {
			return 0.9
		}
		// ccTLD variant of a legit TLD, e.g. com.br
		if i := strings.Index(tld, "."); i > 0 && refs.IsLegitTLD(tld[:i]) {
			return 0.8
		}
	}
	return 0.5
}

func subdomainDepth(host, regDomain string) int {
	if host == "" || regDomain == "" || host == regDomain {
		return 0
	}
	prefix := strings.TrimSuffix(host, regDomain)
	prefix = strings.TrimSuffix(prefix, ".")
	if prefix == "" {
		return 0
	}
	return strings.Count(prefix, ".") + 1
}

func largestLine(body string) int {
	longest := 0
	for len(body) > 0 {
		i := strings.IndexByte(body, '\n')
		if i < 0 {
			if len(body) > longest {
				longest = len(body)
			}
			break
		}
		if i > longest {
			longest = i
		}
		body = body[i+1:]
	}
	return longest
}
