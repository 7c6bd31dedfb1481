package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"security_monitor/internal/domain"
	"security_monitor/pkg/logger"
)

type ThreatRepository interface {
	Create(ctx context.Context, record *domain.ThreatRecord) error
	CountUnresolvedBySeverity(ctx context.Context) (map[string]int64, error)
	CountByTypeBetween(ctx context.Context, from, to time.Time) (map[string]int64, error)
	CountBySeverityBetween(ctx context.Context, from, to time.Time) (map[string]int64, error)
}

type threatRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewThreatRepository(db *pgxpool.Pool, log logger.Logger) ThreatRepository {
	return &threatRepository{db: db, log: log}
}

func (r *threatRepository) Create(ctx context.Context, record *domain.ThreatRecord) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO threats (user_id, threat_type, severity, event_time, blocked, patterns, auto_generated, resolved)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE)
		RETURNING id
	`, record.UserID, record.ThreatType, record.Severity, record.Timestamp,
		record.Blocked, record.Patterns, record.AutoGenerated,
	).Scan(&record.ID)

	if err != nil {
		r.log.Error("Failed to create threat record", "error", err, "user_id", record.UserID)
		return err
	}
	return nil
}

func (r *threatRepository) CountUnresolvedBySeverity(ctx context.Context) (map[string]int64, error) {
	return r.countGrouped(ctx, `
		SELECT severity, count(*)
		FROM threats
		WHERE NOT resolved
		GROUP BY severity
	`)
}

func (r *threatRepository) CountByTypeBetween(ctx context.Context, from, to time.Time) (map[string]int64, error) {
	return r.countGrouped(ctx, `
		SELECT threat_type, count(*)
		FROM threats
		WHERE event_time >= $1 AND event_time < $2
		GROUP BY threat_type
	`, from, to)
}

func (r *threatRepository) CountBySeverityBetween(ctx context.Context, from, to time.Time) (map[string]int64, error) {
	return r.countGrouped(ctx, `
		SELECT severity, count(*)
		FROM threats
		WHERE event_time >= $1 AND event_time < $2
		GROUP BY severity
	`, from, to)
}

func (r *threatRepository) countGrouped(ctx context.Context, query string, args ...interface{}) (map[string]int64, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to count threats", "error", err)
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var key string
		var n int64
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		counts[key] = n
	}
	return counts, rows.Err()
}
