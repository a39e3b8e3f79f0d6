package services

// knownShorteners are URL-shortening hosts; matching one tags the record
// without changing severity.
var knownShorteners = map[string]struct{}{
	"bit.ly": {}, "goo.gl": {}, "t.co": {}, "tinyurl.com": {}, "ow.ly": {},
	"is.gd": {}, "buff.ly": {}, "adf.ly": {}, "bit.do": {}, "mcaf.ee": {},
	"su.pr": {}, "go.usa.gov": {}, "rebrand.ly": {}, "tiny.cc": {},
	"lc.chat": {}, "rb.gy": {}, "cutt.ly": {}, "qr.io": {}, "t.ly": {},
}

// suspiciousTLDs are cheap or abuse-heavy TLDs
var suspiciousTLDs = map[string]struct{}{
	"xyz": {}, "top": {}, "club": {}, "site": {}, "online": {}, "link": {},
	"live": {}, "digital": {}, "click": {}, "stream": {}, "gdn": {},
	"mom": {}, "lol": {}, "work": {}, "info": {}, "biz": {}, "men": {},
	"loan": {}, "zip": {}, "mov": {},
}

// executableExtensions flag direct download links for dangerous payloads
var executableExtensions = []string{
	".exe", ".msi", ".bat", ".cmd", ".scr", ".ps1", ".dmg", ".pkg",
	".apk", ".xapk", ".deb", ".rpm", ".jar", ".sh", ".js", ".vbs",
	".zip", ".rar", ".7z", ".tar.gz", ".iso",
}

// phishingTargetBrands are labels commonly impersonated in phishing domains
var phishingTargetBrands = []string{
	"paypal", "ebay", "amazon", "apple", "microsoft", "google", "facebook",
	"bank", "irs", "netflix", "dhl", "wells fargo", "chase", "hsbc",
	"yahoo", "aol",
}

// actionKeywords are urgency and credential-harvesting tokens
var actionKeywords = []string{
	"login", "signin", "verify", "account", "update", "secure", "confirm",
	"banking", "password", "urgent", "suspend", "expire", "invoice",
	"payment", "refund", "prize", "winner",
}

// promoKeywords are lower-confidence lure tokens
var promoKeywords = []string{
	"offer", "deal", "discount", "promo", "bonus", "free", "gift", "sale",
}
