package services

import (
	"context"
	"regexp"
	"strings"

	"phishscan/internal/domain/models"
	"phishscan/pkg/logger"
)

// urlPattern matches http(s) URLs and bare www. hosts inside message text
var urlPattern = regexp.MustCompile(`https?://[^\s<>"{}|\\^` + "`" + `\[\]]+|www\.[^\s<>"{}|\\^` + "`" + `\[\]]+`)

// maxURLsPerMessage bounds the work a single message can trigger
const maxURLsPerMessage = 5

// SMSAnalyzer extracts URLs from SMS text and runs each through the scan
// pipeline.
type SMSAnalyzer struct {
	scans  *ScanService
	logger *logger.Logger
}

// NewSMSAnalyzer creates an analyzer on top of the scan service
func NewSMSAnalyzer(scans *ScanService, log *logger.Logger) *SMSAnalyzer {
	return &SMSAnalyzer{
		scans:  scans,
		logger: log.WithComponent("sms"),
	}
}

// ExtractURLs returns the deduplicated URLs found in a message, trailing
// punctuation stripped
func ExtractURLs(message string) []string {
	matches := urlPattern.FindAllString(message, -1)

	seen := make(map[string]struct{}, len(matches))
	var urls []string
	for _, m := range matches {
		m = strings.TrimRight(m, ".,;:!)'\"")
		if _, dup := seen[m]; dup || m == "" {
			continue
		}
		seen[m] = struct{}{}
		urls = append(urls, m)
	}
	return urls
}

// Analyze scans every URL in the message and reports the worst severity.
// Per-URL failures are recorded as skipped results, not errors: one bad URL
// must not hide the verdict on the others.
func (a *SMSAnalyzer) Analyze(ctx context.Context, req *models.SMSScanRequest) *models.SMSScanResponse {
	urls := ExtractURLs(req.Message)
	if len(urls) > maxURLsPerMessage {
		urls = urls[:maxURLsPerMessage]
	}

	resp := &models.SMSScanResponse{
		Sender:          req.Sender,
		URLsFound:       len(urls),
		OverallSeverity: models.SeveritySafe,
		KeywordHits:     messageKeywordHits(req.Message),
	}

	for _, u := range urls {
		result, err := a.scans.Scan(ctx, u, models.PlatformSMS)
		if err != nil {
			a.logger.Warn().Err(err).Str("url", u).Msg("SMS URL scan failed")
			continue
		}
		resp.Results = append(resp.Results, *result)
		if result.Severity.Rank() > resp.OverallSeverity.Rank() {
			resp.OverallSeverity = result.Severity
		}
	}

	return resp
}

// messageKeywordHits collects lure tokens present in the message body
func messageKeywordHits(message string) []string {
	lower := strings.ToLower(message)
	var hits []string
	for _, kw := range actionKeywords {
		if strings.Contains(lower, kw) {
			hits = append(hits, kw)
		}
	}
	for _, kw := range promoKeywords {
		if strings.Contains(lower, kw) {
			hits = append(hits, kw)
		}
	}
	return hits
}
