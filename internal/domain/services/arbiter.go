package services

import (
	"phishscan/internal/domain/models"
)

// ML upgrade thresholds on the 0..100 probability scale
const (
	mlHighThreshold   = 80
	mlMediumThreshold = 60
	mlLowThreshold    = 30
)

// Arbitration is the final outcome of one scan
type Arbitration struct {
	Severity          models.Severity
	RecommendedAction string
	IsShortener       bool
	ShortenerDomain   string
}

// Arbitrate combines the probe signals and the model probability into one
// severity. Signal election picks the strongest probe verdict; the model
// can then upgrade a SAFE, LOW, or MEDIUM result but never downgrades, and
// the shortener tag never affects severity.
func Arbitrate(signals []models.ReputationSignal, phishingProbability float64) Arbitration {
	result := Arbitration{Severity: models.SeveritySafe}

	for _, signal := range signals {
		if signal.Level == models.SignalShortener {
			result.IsShortener = true
			result.ShortenerDomain = signal.Detail
			continue
		}
		if sev, ok := signal.Level.Severity(); ok && sev.Rank() > result.Severity.Rank() {
			result.Severity = sev
		}
	}

	result.Severity = applyModelUpgrade(result.Severity, phishingProbability)
	result.RecommendedAction = result.Severity.RecommendedAction()

	return result
}

// applyModelUpgrade promotes low severities on strong model evidence. The
// pass is idempotent: feeding its output back in yields the same severity.
func applyModelUpgrade(severity models.Severity, probability float64) models.Severity {
	if severity.Rank() > models.SeverityMedium.Rank() {
		return severity
	}

	pct := probability * 100
	switch {
	case pct >= mlHighThreshold:
		return models.SeverityHigh
	case pct >= mlMediumThreshold && severity.Rank() <= models.SeverityLow.Rank():
		return models.SeverityMedium
	case pct >= mlLowThreshold && severity == models.SeveritySafe:
		return models.SeverityLow
	default:
		return severity
	}
}
