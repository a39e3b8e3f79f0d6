package models

import (
	"time"

	"github.com/google/uuid"
)

// Severity is the final risk level of a scan, ordered SAFE < LOW < MEDIUM < HIGH < CRITICAL
type Severity string

const (
	SeveritySafe     Severity = "SAFE"
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Rank returns the ordinal position of the severity for comparisons
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	case SeveritySafe:
		return 0
	default:
		return -1
	}
}

func (s Severity) String() string {
	return string(s)
}

// ParseSeverity parses a string into Severity, defaulting to SAFE
func ParseSeverity(s string) Severity {
	switch s {
	case "CRITICAL":
		return SeverityCritical
	case "HIGH":
		return SeverityHigh
	case "MEDIUM":
		return SeverityMedium
	case "LOW":
		return SeverityLow
	default:
		return SeveritySafe
	}
}

// Verdict returns the coarse log label for the severity
func (s Severity) Verdict() string {
	switch s {
	case SeverityCritical:
		return "Critical"
	case SeverityHigh:
		return "High"
	case SeverityMedium:
		return "Medium"
	case SeverityLow:
		return "Low"
	default:
		return "Safe"
	}
}

// RecommendedAction returns the advisory string for the severity
func (s Severity) RecommendedAction() string {
	switch s {
	case SeverityCritical, SeverityHigh:
		return "Block URL"
	case SeverityMedium:
		return "Review URL Carefully"
	case SeverityLow:
		return "Proceed with Caution"
	default:
		return "Allow URL"
	}
}

// SignalLevel is the output of a single reputation probe. It is a superset
// of Severity: SHORTENER tags the record without affecting severity, NONE
// means the probe found nothing (or failed).
type SignalLevel string

const (
	SignalNone      SignalLevel = "NONE"
	SignalShortener SignalLevel = "SHORTENER"
	SignalLow       SignalLevel = SignalLevel(SeverityLow)
	SignalMedium    SignalLevel = SignalLevel(SeverityMedium)
	SignalHigh      SignalLevel = SignalLevel(SeverityHigh)
	SignalCritical  SignalLevel = SignalLevel(SeverityCritical)
)

// Severity converts a signal level to a Severity and reports whether it
// carries one (NONE and SHORTENER do not).
func (l SignalLevel) Severity() (Severity, bool) {
	switch l {
	case SignalLow, SignalMedium, SignalHigh, SignalCritical:
		return Severity(l), true
	default:
		return SeveritySafe, false
	}
}

// ReputationSignal is one probe's verdict about a URL
type ReputationSignal struct {
	Source string      `json:"source"`
	Level  SignalLevel `json:"level"`
	Detail string      `json:"detail,omitempty"`
}

// Platform identifies where a scan request originated
const (
	PlatformUserScan = "User Scan"
	PlatformSMS      = "SMS"
)

// Detection is the persisted record of one scan
type Detection struct {
	DetectID        uuid.UUID          `json:"detect_id"`
	URL             string             `json:"url"`
	ScannedAt       time.Time          `json:"scanned_at"`
	Probability     float64            `json:"probability"`
	SubScores       map[string]float64 `json:"sub_scores,omitempty"`
	Features        []float64          `json:"features,omitempty"`
	Severity        Severity           `json:"severity"`
	IsShortener     bool               `json:"is_shortener"`
	ShortenerDomain string             `json:"shortener_domain,omitempty"`
	Source          string             `json:"source"`
}

// ScanLog is the append-only audit row linked to a Detection
type ScanLog struct {
	LogID       uuid.UUID `json:"log_id"`
	DetectID    uuid.UUID `json:"detect_id"`
	Probability float64   `json:"probability"`
	Severity    Severity  `json:"severity"`
	Platform    string    `json:"platform"`
	Verdict     string    `json:"verdict"`
	CreatedAt   time.Time `json:"created_at"`
}

// ScanRequest is the body of POST /scan
type ScanRequest struct {
	URL string `json:"url"`
}

// LogDetails echoes the persisted identifiers in the scan response
type LogDetails struct {
	LogID       uuid.UUID `json:"log_id"`
	DetectID    uuid.UUID `json:"detect_id"`
	Probability float64   `json:"probability"`
	Severity    Severity  `json:"severity"`
	Platform    string    `json:"platform"`
	Verdict     string    `json:"verdict"`
}

// ScanResponse is the success payload of POST /scan
type ScanResponse struct {
	URL                string     `json:"url"`
	PhishingPercentage float64    `json:"phishing_percentage"`
	Severity           Severity   `json:"severity"`
	Platform           string     `json:"platform"`
	DateScanned        string     `json:"date_scanned"`
	RecommendedAction  string     `json:"recommended_action"`
	IsShortener        bool       `json:"is_shortener"`
	ShortenerDomain    string     `json:"shortener_domain,omitempty"`
	LogDetails         LogDetails `json:"log_details"`
}

// ScanRecord is a Detection joined with its ScanLog, as returned by
// GET /scan/{detect_id}
type ScanRecord struct {
	Detection Detection `json:"detection"`
	Log       ScanLog   `json:"log"`
}
