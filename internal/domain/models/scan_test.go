package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverityRankOrdering(t *testing.T) {
	ordered := []Severity{SeveritySafe, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	for i := 1; i < len(ordered); i++ {
		assert.Greater(t, ordered[i].Rank(), ordered[i-1].Rank())
	}
	assert.Equal(t, -1, Severity("BOGUS").Rank())
}

func TestParseSeverity(t *testing.T) {
	assert.Equal(t, SeverityCritical, ParseSeverity("CRITICAL"))
	assert.Equal(t, SeverityHigh, ParseSeverity("HIGH"))
	assert.Equal(t, SeverityMedium, ParseSeverity("MEDIUM"))
	assert.Equal(t, SeverityLow, ParseSeverity("LOW"))
	assert.Equal(t, SeveritySafe, ParseSeverity("SAFE"))
	assert.Equal(t, SeveritySafe, ParseSeverity("unknown"))
}

func TestSeverityVerdict(t *testing.T) {
	tests := []struct {
		severity Severity
		verdict  string
		action   string
	}{
		{SeverityCritical, "Critical", "Block URL"},
		{SeverityHigh, "High", "Block URL"},
		{SeverityMedium, "Medium", "Review URL Carefully"},
		{SeverityLow, "Low", "Proceed with Caution"},
		{SeveritySafe, "Safe", "Allow URL"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.verdict, tt.severity.Verdict())
		assert.Equal(t, tt.action, tt.severity.RecommendedAction())
	}
}

func TestSignalLevelSeverity(t *testing.T) {
	sev, ok := SignalCritical.Severity()
	assert.True(t, ok)
	assert.Equal(t, SeverityCritical, sev)

	sev, ok = SignalLow.Severity()
	assert.True(t, ok)
	assert.Equal(t, SeverityLow, sev)

	_, ok = SignalNone.Severity()
	assert.False(t, ok, "NONE carries no severity")

	_, ok = SignalShortener.Severity()
	assert.False(t, ok, "SHORTENER is a tag, not a severity")
}
