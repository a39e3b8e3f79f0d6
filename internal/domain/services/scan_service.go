package services

import (
	"context"
	"net"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"phishscan/internal/domain/models"
	"phishscan/pkg/logger"
)

// ScanService runs the full risk pipeline for one URL: validate, fetch,
// extract, score, probe, arbitrate, record.
type ScanService struct {
	fetcher    *Fetcher
	extractor  *FeatureExtractor
	scorer     *ModelScorer
	reputation *ReputationChecker
	recorder   ScanRecorder
	refs       *ReferenceSets
	scanBudget time.Duration
	logger     *logger.Logger
}

// NewScanService wires the pipeline stages together
func NewScanService(
	fetcher *Fetcher,
	extractor *FeatureExtractor,
	scorer *ModelScorer,
	reputation *ReputationChecker,
	recorder ScanRecorder,
	refs *ReferenceSets,
	scanBudget time.Duration,
	log *logger.Logger,
) *ScanService {
	if scanBudget == 0 {
		scanBudget = 25 * time.Second
	}
	return &ScanService{
		fetcher:    fetcher,
		extractor:  extractor,
		scorer:     scorer,
		reputation: reputation,
		recorder:   recorder,
		refs:       refs,
		scanBudget: scanBudget,
		logger:     log.WithComponent("scan"),
	}
}

// ValidateURL enforces the structural input rules. It returns the trimmed
// URL accepted for scanning; a missing scheme is treated as https for
// validation purposes only, the fetcher probes the real scheme later.
func ValidateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &ValidationError{Message: MsgInvalidFormat}
	}

	if isPurelyNumeric(raw) {
		return "", &ValidationError{Message: MsgInvalidInput}
	}

	candidate := raw
	if !strings.HasPrefix(candidate, "http://") && !strings.HasPrefix(candidate, "https://") {
		candidate = "https://" + candidate
	}

	u, err := url.Parse(candidate)
	if err != nil || u.Hostname() == "" {
		return "", &ValidationError{Message: MsgInvalidFormat}
	}

	host := u.Hostname()
	if !strings.Contains(host, ".") && host != "localhost" {
		return "", &ValidationError{Message: MsgIncompleteDomain}
	}

	return raw, nil
}

// Scan assesses one URL and persists the result. The pipeline runs on a
// detached context so a client disconnect cannot abandon a half-finished
// scan; the per-scan budget still bounds it.
func (s *ScanService) Scan(ctx context.Context, rawURL, platform string) (*models.ScanResponse, error) {
	validated, err := ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}
	if platform == "" {
		platform = models.PlatformUserScan
	}

	scanCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.scanBudget)
	defer cancel()

	started := time.Now()
	log := s.logger.WithURL(validated)

	bundle := s.fetcher.Fetch(scanCtx, validated)

	features := s.extractor.Extract(bundle.FinalURL, bundle)

	phishing, _, err := s.scorer.Score(features)
	if err != nil {
		return nil, err
	}

	skipBlocklist := s.isKnownLegit(bundle)
	signals := s.reputation.Check(scanCtx, validated, bundle, skipBlocklist)

	arb := Arbitrate(signals, phishing)

	detection := &models.Detection{
		DetectID:        uuid.New(),
		URL:             bundle.FinalURL,
		ScannedAt:       time.Now().UTC(),
		Probability:     phishing,
		SubScores:       map[string]float64{"ensemble": phishing},
		Features:        features,
		Severity:        arb.Severity,
		IsShortener:     arb.IsShortener,
		ShortenerDomain: arb.ShortenerDomain,
		Source:          platform,
	}
	scanLog := &models.ScanLog{
		LogID:       uuid.New(),
		DetectID:    detection.DetectID,
		Probability: phishing,
		Severity:    arb.Severity,
		Platform:    platform,
		Verdict:     arb.Severity.Verdict(),
	}

	response, err := s.recorder.Record(scanCtx, detection, scanLog)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("detect_id", detection.DetectID.String()).
		Str("severity", arb.Severity.String()).
		Float64("probability", phishing).
		Dur("elapsed", time.Since(started)).
		Msg("scan completed")

	return response, nil
}

// isKnownLegit reports whether the final host is a top-legit registered
// domain; those skip the paid blocklist lookup.
func (s *ScanService) isKnownLegit(bundle *models.FetchBundle) bool {
	if s.refs == nil || bundle.RegisteredDomain == "" {
		return false
	}
	host := hostname(bundle.FinalURL)
	if host == "" || net.ParseIP(host) != nil {
		return false
	}
	return s.refs.IsLegitDomain(bundle.RegisteredDomain)
}

// isPurelyNumeric reports whether the input is digits only (dots and
// colons excluded so IP literals still validate as URLs)
func isPurelyNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(s) > 0
}
