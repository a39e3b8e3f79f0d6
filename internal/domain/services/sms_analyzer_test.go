package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phishscan/internal/domain/models"
)

func TestExtractURLs(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    []string
	}{
		{
			name:    "no urls",
			message: "Hi, running late, see you at 7",
			want:    nil,
		},
		{
			name:    "single url",
			message: "Your package: https://example.com/track/123",
			want:    []string{"https://example.com/track/123"},
		},
		{
			name:    "trailing punctuation stripped",
			message: "Click https://example.com/verify, now!",
			want:    []string{"https://example.com/verify"},
		},
		{
			name:    "www without scheme",
			message: "Visit www.example.com today",
			want:    []string{"www.example.com"},
		},
		{
			name:    "duplicates removed",
			message: "https://example.com and again https://example.com",
			want:    []string{"https://example.com"},
		},
		{
			name:    "multiple urls",
			message: "a https://one.test/x b http://two.test/y",
			want:    []string{"https://one.test/x", "http://two.test/y"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractURLs(tt.message))
		})
	}
}

func TestMessageKeywordHits(t *testing.T) {
	hits := messageKeywordHits("URGENT: verify your account to claim a free prize")
	assert.Contains(t, hits, "urgent")
	assert.Contains(t, hits, "verify")
	assert.Contains(t, hits, "account")
	assert.Contains(t, hits, "free")
	assert.Contains(t, hits, "prize")

	assert.Empty(t, messageKeywordHits("see you tomorrow"))
}

func TestSMSAnalyzer_Analyze(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>page</body></html>")
	}))
	defer srv.Close()

	mock := NewMockBlocklistClient()
	mock.ThreatURLs[srv.URL+"/bad"] = []string{"SOCIAL_ENGINEERING"}

	recorder := NewMemoryScanRecorder()
	svc := testScanService(t, mock, recorder)
	analyzer := NewSMSAnalyzer(svc, testLogger())

	resp := analyzer.Analyze(context.Background(), &models.SMSScanRequest{
		Message: fmt.Sprintf("urgent: verify at %s/bad or %s/ok", srv.URL, srv.URL),
		Sender:  "+15550100",
	})

	assert.Equal(t, "+15550100", resp.Sender)
	assert.Equal(t, 2, resp.URLsFound)
	require.Len(t, resp.Results, 2)

	assert.GreaterOrEqual(t, resp.OverallSeverity.Rank(), models.SeverityHigh.Rank(),
		"blocklisted URL drives the overall severity")
	assert.Contains(t, resp.KeywordHits, "urgent")

	for _, r := range resp.Results {
		assert.Equal(t, models.PlatformSMS, r.Platform)
	}

	assert.Len(t, recorder.Detections, 2, "every scanned URL is persisted")
}

func TestSMSAnalyzer_Analyze_NoURLs(t *testing.T) {
	svc := testScanService(t, nil, NewMemoryScanRecorder())
	analyzer := NewSMSAnalyzer(svc, testLogger())

	resp := analyzer.Analyze(context.Background(), &models.SMSScanRequest{Message: "hello"})

	assert.Equal(t, 0, resp.URLsFound)
	assert.Empty(t, resp.Results)
	assert.Equal(t, models.SeveritySafe, resp.OverallSeverity)
}

func TestSMSAnalyzer_Analyze_CapsURLCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html></html>")
	}))
	defer srv.Close()

	svc := testScanService(t, nil, NewMemoryScanRecorder())
	analyzer := NewSMSAnalyzer(svc, testLogger())

	message := ""
	for i := 0; i < 8; i++ {
		message += fmt.Sprintf(" %s/u%d", srv.URL, i)
	}

	resp := analyzer.Analyze(context.Background(), &models.SMSScanRequest{Message: message})
	assert.Equal(t, maxURLsPerMessage, resp.URLsFound)
}
