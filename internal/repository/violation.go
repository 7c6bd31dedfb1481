package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"security_monitor/internal/domain"
	"security_monitor/pkg/logger"
)

type ViolationRepository interface {
	// Record atomically increments the user's count, appends the event to
	// the history and recomputes severity from the new count.
	Record(ctx context.Context, userID uuid.UUID, event domain.ViolationEvent) (*domain.ViolationRecord, error)
	// Get returns the user's record; a user with no violations yet gets a
	// zero record with severity low.
	Get(ctx context.Context, userID uuid.UUID) (*domain.ViolationRecord, error)
	// CountByTypeBetween counts history events in [from, to) grouped by
	// violation type, for the daily report.
	CountByTypeBetween(ctx context.Context, from, to time.Time) (map[string]int64, error)
}

type violationRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewViolationRepository(db *pgxpool.Pool, log logger.Logger) ViolationRepository {
	return &violationRepository{db: db, log: log}
}

func (r *violationRepository) Record(ctx context.Context, userID uuid.UUID, event domain.ViolationEvent) (*domain.ViolationRecord, error) {
	var record *domain.ViolationRecord

	err := withTxRetry(ctx, r.db, func(tx pgx.Tx) error {
		var count int
		var history []domain.ViolationEvent

		err := tx.QueryRow(ctx, `
			SELECT count, history
			FROM violations
			WHERE user_id = $1
			FOR UPDATE
		`, userID).Scan(&count, &history)

		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		count++
		severity := domain.SeverityForCount(count)
		history = append(history, event)
		if len(history) > domain.MaxViolationHistory {
			history = history[len(history)-domain.MaxViolationHistory:]
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO violations (user_id, count, severity, history, updated_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (user_id) DO UPDATE
			SET count = $2, severity = $3, history = $4, updated_at = $5
		`, userID, count, severity, history, event.Timestamp)
		if err != nil {
			return err
		}

		record = &domain.ViolationRecord{
			UserID:    userID,
			Count:     count,
			Severity:  severity,
			History:   history,
			UpdatedAt: event.Timestamp,
		}
		return nil
	})

	if err != nil {
		r.log.Error("Failed to record violation", "error", err, "user_id", userID, "type", event.Type)
		return nil, err
	}
	return record, nil
}

func (r *violationRepository) Get(ctx context.Context, userID uuid.UUID) (*domain.ViolationRecord, error) {
	record := &domain.ViolationRecord{
		UserID:   userID,
		Severity: domain.SeverityLow,
	}

	err := r.db.QueryRow(ctx, `
		SELECT count, severity, history, updated_at
		FROM violations
		WHERE user_id = $1
	`, userID).Scan(&record.Count, &record.Severity, &record.History, &record.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return record, nil
	}
	if err != nil {
		r.log.Error("Failed to get violations", "error", err, "user_id", userID)
		return nil, err
	}
	return record, nil
}

func (r *violationRepository) CountByTypeBetween(ctx context.Context, from, to time.Time) (map[string]int64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT e->>'type', count(*)
		FROM violations, jsonb_array_elements(history) AS e
		WHERE (e->>'timestamp')::timestamptz >= $1
		  AND (e->>'timestamp')::timestamptz < $2
		GROUP BY 1
	`, from, to)
	if err != nil {
		r.log.Error("Failed to count violations", "error", err)
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var vtype string
		var n int64
		if err := rows.Scan(&vtype, &n); err != nil {
			return nil, err
		}
		counts[vtype] = n
	}
	return counts, rows.Err()
}
