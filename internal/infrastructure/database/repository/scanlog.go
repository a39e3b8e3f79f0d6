package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"phishscan/internal/domain/models"
	"phishscan/internal/infrastructure/database"
)

// ScanLogRepository handles scan log persistence
type ScanLogRepository struct {
	pool *pgxpool.Pool
}

// NewScanLogRepository creates a new scan log repository
func NewScanLogRepository(pool *pgxpool.Pool) *ScanLogRepository {
	return &ScanLogRepository{pool: pool}
}

// Insert writes a log row linked to an existing detection. Idempotent by log_id.
func (r *ScanLogRepository) Insert(ctx context.Context, tx database.DBTX, l *models.ScanLog) error {
	if l.LogID == uuid.Nil {
		l.LogID = uuid.New()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO scan_logs (
			log_id, detect_id, probability, severity, platform, verdict, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		) ON CONFLICT (log_id) DO NOTHING`

	if _, err := tx.Exec(ctx, query,
		l.LogID, l.DetectID, l.Probability, l.Severity.String(), l.Platform, l.Verdict, l.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert scan log: %w", err)
	}

	return nil
}

// GetByDetectID retrieves the log row for a detection
func (r *ScanLogRepository) GetByDetectID(ctx context.Context, detectID uuid.UUID) (*models.ScanLog, error) {
	query := `
		SELECT log_id, detect_id, probability, severity, platform, verdict, created_at
		FROM scan_logs
		WHERE detect_id = $1`

	return scanLog(r.pool.QueryRow(ctx, query, detectID))
}

// ListRecent retrieves the most recent log rows
func (r *ScanLogRepository) ListRecent(ctx context.Context, limit int) ([]*models.ScanLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	query := `
		SELECT log_id, detect_id, probability, severity, platform, verdict, created_at
		FROM scan_logs
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scan logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.ScanLog
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}

	return logs, rows.Err()
}

func scanLog(row pgx.Row) (*models.ScanLog, error) {
	var (
		l        models.ScanLog
		severity string
	)

	err := row.Scan(&l.LogID, &l.DetectID, &l.Probability, &severity, &l.Platform, &l.Verdict, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan log row: %w", err)
	}

	l.Severity = models.ParseSeverity(severity)
	return &l, nil
}
