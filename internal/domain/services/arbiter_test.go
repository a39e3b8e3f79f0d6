package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"phishscan/internal/domain/models"
)

func sig(source string, level models.SignalLevel) models.ReputationSignal {
	return models.ReputationSignal{Source: source, Level: level}
}

func TestArbitrate_SignalElection(t *testing.T) {
	tests := []struct {
		name    string
		signals []models.ReputationSignal
		want    models.Severity
	}{
		{
			name:    "no signals",
			signals: nil,
			want:    models.SeveritySafe,
		},
		{
			name: "all none",
			signals: []models.ReputationSignal{
				sig(SourceKeywords, models.SignalNone),
				sig(SourceStructure, models.SignalNone),
			},
			want: models.SeveritySafe,
		},
		{
			name: "strongest wins",
			signals: []models.ReputationSignal{
				sig(SourceKeywords, models.SignalLow),
				sig(SourceBlocklist, models.SignalCritical),
				sig(SourceStructure, models.SignalMedium),
			},
			want: models.SeverityCritical,
		},
		{
			name: "high beats medium",
			signals: []models.ReputationSignal{
				sig(SourceRedirects, models.SignalMedium),
				sig(SourceBrand, models.SignalHigh),
			},
			want: models.SeverityHigh,
		},
		{
			name: "order does not matter",
			signals: []models.ReputationSignal{
				sig(SourceBrand, models.SignalHigh),
				sig(SourceRedirects, models.SignalMedium),
			},
			want: models.SeverityHigh,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Arbitrate(tt.signals, 0)
			assert.Equal(t, tt.want, got.Severity)
		})
	}
}

func TestArbitrate_ModelUpgrade(t *testing.T) {
	tests := []struct {
		name        string
		base        models.SignalLevel
		probability float64
		want        models.Severity
	}{
		{"safe stays safe below threshold", models.SignalNone, 0.29, models.SeveritySafe},
		{"safe to low at 30", models.SignalNone, 0.30, models.SeverityLow},
		{"safe to medium at 60", models.SignalNone, 0.60, models.SeverityMedium},
		{"safe to high at 80", models.SignalNone, 0.80, models.SeverityHigh},
		{"low to medium at 60", models.SignalLow, 0.60, models.SeverityMedium},
		{"low unchanged at 30", models.SignalLow, 0.35, models.SeverityLow},
		{"medium unchanged at 60", models.SignalMedium, 0.65, models.SeverityMedium},
		{"medium to high at 80", models.SignalMedium, 0.85, models.SeverityHigh},
		{"high never upgraded to itself", models.SignalHigh, 0.99, models.SeverityHigh},
		{"critical untouched by model", models.SignalCritical, 0.99, models.SeverityCritical},
		{"critical not downgraded by low probability", models.SignalCritical, 0.01, models.SeverityCritical},
		{"high not downgraded by low probability", models.SignalHigh, 0.01, models.SeverityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signals := []models.ReputationSignal{sig(SourceBlocklist, tt.base)}
			got := Arbitrate(signals, tt.probability)
			assert.Equal(t, tt.want, got.Severity)
		})
	}
}

func TestArbitrate_Idempotent(t *testing.T) {
	// Re-running arbitration on its own output must not change the outcome.
	for _, p := range []float64{0, 0.3, 0.6, 0.8, 0.99} {
		for _, base := range []models.SignalLevel{
			models.SignalNone, models.SignalLow, models.SignalMedium,
			models.SignalHigh, models.SignalCritical,
		} {
			first := Arbitrate([]models.ReputationSignal{sig(SourceBlocklist, base)}, p)
			second := Arbitrate([]models.ReputationSignal{sig(SourceBlocklist, models.SignalLevel(first.Severity))}, p)
			assert.Equal(t, first.Severity, second.Severity,
				"base=%s p=%v", base, p)
		}
	}
}

func TestArbitrate_ShortenerTag(t *testing.T) {
	signals := []models.ReputationSignal{
		{Source: SourceShortener, Level: models.SignalShortener, Detail: "bit.ly"},
		sig(SourceKeywords, models.SignalNone),
	}

	got := Arbitrate(signals, 0)

	assert.True(t, got.IsShortener)
	assert.Equal(t, "bit.ly", got.ShortenerDomain)
	assert.Equal(t, models.SeveritySafe, got.Severity, "shortener tag must not raise severity")
}

func TestArbitrate_RecommendedAction(t *testing.T) {
	tests := []struct {
		level models.SignalLevel
		want  string
	}{
		{models.SignalCritical, "Block URL"},
		{models.SignalHigh, "Block URL"},
		{models.SignalMedium, "Review URL Carefully"},
		{models.SignalLow, "Proceed with Caution"},
		{models.SignalNone, "Allow URL"},
	}

	for _, tt := range tests {
		got := Arbitrate([]models.ReputationSignal{sig(SourceBlocklist, tt.level)}, 0)
		assert.Equal(t, tt.want, got.RecommendedAction)
	}
}
