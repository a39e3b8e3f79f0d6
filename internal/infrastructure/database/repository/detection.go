package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"phishscan/internal/domain/models"
	"phishscan/internal/infrastructure/database"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("record not found")

// DetectionRepository handles detection persistence
type DetectionRepository struct {
	pool *pgxpool.Pool
}

// NewDetectionRepository creates a new detection repository
func NewDetectionRepository(pool *pgxpool.Pool) *DetectionRepository {
	return &DetectionRepository{pool: pool}
}

// Insert writes a detection row. The insert is idempotent by detect_id:
// replaying a scan with the same identifier is a no-op.
func (r *DetectionRepository) Insert(ctx context.Context, tx database.DBTX, d *models.Detection) error {
	if d.DetectID == uuid.Nil {
		d.DetectID = uuid.New()
	}
	if d.ScannedAt.IsZero() {
		d.ScannedAt = time.Now().UTC()
	}

	subScores, err := json.Marshal(d.SubScores)
	if err != nil {
		return fmt.Errorf("failed to marshal sub scores: %w", err)
	}

	query := `
		INSERT INTO detections (
			detect_id, url, scanned_at, probability, sub_scores, features,
			severity, is_shortener, shortener_domain, source
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		) ON CONFLICT (detect_id) DO NOTHING`

	if _, err := tx.Exec(ctx, query,
		d.DetectID, d.URL, d.ScannedAt, d.Probability, subScores, d.Features,
		d.Severity.String(), d.IsShortener, nullIfEmpty(d.ShortenerDomain), d.Source,
	); err != nil {
		return fmt.Errorf("failed to insert detection: %w", err)
	}

	return nil
}

// GetByID retrieves a detection by its scan identifier
func (r *DetectionRepository) GetByID(ctx context.Context, detectID uuid.UUID) (*models.Detection, error) {
	query := `
		SELECT detect_id, url, scanned_at, probability, sub_scores, features,
			   severity, is_shortener, shortener_domain, source
		FROM detections
		WHERE detect_id = $1`

	return scanDetection(r.pool.QueryRow(ctx, query, detectID))
}

// ListRecent retrieves the most recent detections
func (r *DetectionRepository) ListRecent(ctx context.Context, limit int) ([]*models.Detection, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	query := `
		SELECT detect_id, url, scanned_at, probability, sub_scores, features,
			   severity, is_shortener, shortener_domain, source
		FROM detections
		ORDER BY scanned_at DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list detections: %w", err)
	}
	defer rows.Close()

	var detections []*models.Detection
	for rows.Next() {
		d, err := scanDetection(rows)
		if err != nil {
			return nil, err
		}
		detections = append(detections, d)
	}

	return detections, rows.Err()
}

func scanDetection(row pgx.Row) (*models.Detection, error) {
	var (
		d               models.Detection
		severity        string
		subScores       []byte
		shortenerDomain *string
	)

	err := row.Scan(
		&d.DetectID, &d.URL, &d.ScannedAt, &d.Probability, &subScores, &d.Features,
		&severity, &d.IsShortener, &shortenerDomain, &d.Source,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan detection: %w", err)
	}

	d.Severity = models.ParseSeverity(severity)
	if shortenerDomain != nil {
		d.ShortenerDomain = *shortenerDomain
	}
	if len(subScores) > 0 {
		if err := json.Unmarshal(subScores, &d.SubScores); err != nil {
			return nil, fmt.Errorf("failed to unmarshal sub scores: %w", err)
		}
	}

	return &d, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
