package services

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"phishscan/internal/domain/models"
	"phishscan/internal/infrastructure/database"
	"phishscan/internal/infrastructure/database/repository"
	"phishscan/pkg/logger"
)

// ScanRecorder persists a Detection and its Log atomically and builds the
// response payload.
type ScanRecorder interface {
	Record(ctx context.Context, detection *models.Detection, scanLog *models.ScanLog) (*models.ScanResponse, error)
}

// PostgresScanRecorder writes both rows in one transaction
type PostgresScanRecorder struct {
	db         *database.PostgresDB
	detections *repository.DetectionRepository
	logs       *repository.ScanLogRepository
	logger     *logger.Logger
}

// NewPostgresScanRecorder creates a recorder over the given repositories
func NewPostgresScanRecorder(db *database.PostgresDB, detections *repository.DetectionRepository, logs *repository.ScanLogRepository, log *logger.Logger) *PostgresScanRecorder {
	return &PostgresScanRecorder{
		db:         db,
		detections: detections,
		logs:       logs,
		logger:     log.WithComponent("recorder"),
	}
}

// Record persists the pair. A failure on either row rolls back the whole
// write; a replay with the same detect_id is a no-op on both rows.
func (r *PostgresScanRecorder) Record(ctx context.Context, detection *models.Detection, scanLog *models.ScanLog) (*models.ScanResponse, error) {
	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		if err := r.detections.Insert(ctx, tx, detection); err != nil {
			return err
		}
		scanLog.DetectID = detection.DetectID
		return r.logs.Insert(ctx, tx, scanLog)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	r.logger.Info().
		Str("detect_id", detection.DetectID.String()).
		Str("severity", detection.Severity.String()).
		Msg("scan recorded")

	return BuildScanResponse(detection, scanLog), nil
}

// BuildScanResponse shapes the API payload from the persisted pair
func BuildScanResponse(detection *models.Detection, scanLog *models.ScanLog) *models.ScanResponse {
	return &models.ScanResponse{
		URL:                detection.URL,
		PhishingPercentage: roundPercent(detection.Probability),
		Severity:           detection.Severity,
		Platform:           scanLog.Platform,
		DateScanned:        detection.ScannedAt.UTC().Format(time.RFC3339),
		RecommendedAction:  detection.Severity.RecommendedAction(),
		IsShortener:        detection.IsShortener,
		ShortenerDomain:    detection.ShortenerDomain,
		LogDetails: models.LogDetails{
			LogID:       scanLog.LogID,
			DetectID:    scanLog.DetectID,
			Probability: scanLog.Probability,
			Severity:    scanLog.Severity,
			Platform:    scanLog.Platform,
			Verdict:     scanLog.Verdict,
		},
	}
}

// roundPercent converts a probability to a percentage with 2 decimals
func roundPercent(probability float64) float64 {
	return math.Round(probability*100*100) / 100
}

// MemoryScanRecorder keeps records in memory. Used by tests and by
// deployments without a database.
type MemoryScanRecorder struct {
	mu         sync.Mutex
	Detections map[uuid.UUID]*models.Detection
	Logs       map[uuid.UUID]*models.ScanLog
}

// NewMemoryScanRecorder creates an empty in-memory recorder
func NewMemoryScanRecorder() *MemoryScanRecorder {
	return &MemoryScanRecorder{
		Detections: make(map[uuid.UUID]*models.Detection),
		Logs:       make(map[uuid.UUID]*models.ScanLog),
	}
}

// Record stores the pair under the detection's identifier
func (r *MemoryScanRecorder) Record(_ context.Context, detection *models.Detection, scanLog *models.ScanLog) (*models.ScanResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if detection.DetectID == uuid.Nil {
		detection.DetectID = uuid.New()
	}
	if scanLog.LogID == uuid.Nil {
		scanLog.LogID = uuid.New()
	}
	scanLog.DetectID = detection.DetectID

	if _, exists := r.Detections[detection.DetectID]; !exists {
		r.Detections[detection.DetectID] = detection
		r.Logs[scanLog.LogID] = scanLog
	}

	return BuildScanResponse(detection, scanLog), nil
}
