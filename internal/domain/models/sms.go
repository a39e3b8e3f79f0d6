package models

// SMSScanRequest is the body of POST /scan/sms
type SMSScanRequest struct {
	Message string `json:"message"`
	Sender  string `json:"sender,omitempty"`
}

// SMSScanResponse reports per-URL scan results for one message
type SMSScanResponse struct {
	Sender          string         `json:"sender,omitempty"`
	URLsFound       int            `json:"urls_found"`
	OverallSeverity Severity       `json:"overall_severity"`
	KeywordHits     []string       `json:"keyword_hits,omitempty"`
	Results         []ScanResponse `json:"results"`
}
