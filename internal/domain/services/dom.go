package services

import (
	"strings"

	"golang.org/x/net/html"
)

// domStats aggregates everything the feature registry needs from the DOM in
// a single walk.
type domStats struct {
	title              string
	hasFavicon         bool
	hasDescription     bool
	hasSocialNet       bool
	hasPasswordField   bool
	hasSubmitButton    bool
	hasHiddenFields    bool
	hasViewport        bool
	iframes            int
	images             int
	cssLinks           int
	scripts            int
	selfRefs           int
	emptyRefs          int
	externalRefs       int
	externalFormSubmit bool
	requestTotal       int
	requestExternal    int
}

var socialNetHosts = []string{
	"facebook.com", "twitter.com", "x.com", "instagram.com", "linkedin.com",
	"youtube.com", "tiktok.com", "pinterest.com", "whatsapp.com",
}

// collectDOMStats walks the parsed document once. registeredDomain decides
// whether a reference counts as self or external.
func collectDOMStats(doc *html.Node, registeredDomain string) *domStats {
	stats := &domStats{}
	if doc == nil {
		return stats
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if stats.title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					stats.title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "link":
				rel := strings.ToLower(attrVal(n, "rel"))
				if strings.Contains(rel, "icon") {
					stats.hasFavicon = true
				}
				if strings.Contains(rel, "stylesheet") {
					stats.cssLinks++
				}
				countRequestURL(stats, attrVal(n, "href"), registeredDomain)
			case "meta":
				name := strings.ToLower(attrVal(n, "name"))
				if name == "description" {
					stats.hasDescription = true
				}
				if name == "viewport" {
					stats.hasViewport = true
				}
			case "iframe":
				stats.iframes++
			case "img":
				stats.images++
				countRequestURL(stats, attrVal(n, "src"), registeredDomain)
			case "script":
				stats.scripts++
				countRequestURL(stats, attrVal(n, "src"), registeredDomain)
			case "input":
				typ := strings.ToLower(attrVal(n, "type"))
				switch typ {
				case "password":
					stats.hasPasswordField = true
				case "hidden":
					stats.hasHiddenFields = true
				case "submit":
					stats.hasSubmitButton = true
				}
			case "button":
				if strings.ToLower(attrVal(n, "type")) == "submit" || attrVal(n, "type") == "" {
					stats.hasSubmitButton = true
				}
			case "form":
				action := attrVal(n, "action")
				if isExternalRef(action, registeredDomain) {
					stats.externalFormSubmit = true
				}
			case "a":
				href := strings.TrimSpace(attrVal(n, "href"))
				classifyAnchor(stats, href, registeredDomain)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return stats
}

func classifyAnchor(stats *domStats, href, registeredDomain string) {
	switch {
	case href == "" || href == "#" || strings.HasPrefix(href, "javascript:"):
		stats.emptyRefs++
	case isExternalRef(href, registeredDomain):
		stats.externalRefs++
	default:
		stats.selfRefs++
	}
}

// countRequestURL tallies resource loads for the external-request ratio
func countRequestURL(stats *domStats, ref, registeredDomain string) {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "data:") {
		return
	}
	stats.requestTotal++
	if isExternalRef(ref, registeredDomain) {
		stats.requestExternal++
	}
}

// isExternalRef reports whether ref points outside the registered domain.
// Relative references are never external.
func isExternalRef(ref, registeredDomain string) bool {
	ref = strings.TrimSpace(strings.ToLower(ref))
	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") && !strings.HasPrefix(ref, "//") {
		return false
	}
	host := hostname(strings.TrimPrefix(ref, "//"))
	if strings.HasPrefix(ref, "//") {
		host = hostname("https:" + ref)
	}
	if host == "" || registeredDomain == "" {
		return false
	}
	return host != registeredDomain && !strings.HasSuffix(host, "."+registeredDomain)
}

// hasCopyrightMarker scans the body text for a copyright notice
func hasCopyrightMarker(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "©") ||
		strings.Contains(lower, "&copy;") ||
		strings.Contains(lower, "copyright")
}

func hasSocialLinks(body string) bool {
	lower := strings.ToLower(body)
	for _, host := range socialNetHosts {
		if strings.Contains(lower, host) {
			return true
		}
	}
	return false
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
