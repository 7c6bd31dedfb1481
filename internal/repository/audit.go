package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"security_monitor/internal/domain"
	"security_monitor/pkg/logger"
)

// WindowStats are volume counts over a user's trailing window. The
// detector's volume predicates use these instead of the capped entry fetch,
// so thresholds above the fetch limit still trip.
type WindowStats struct {
	Total      int64
	Reads      int64
	CertEvents int64
}

// AuditRepository exposes append and windowed reads only. The retention
// delete exists solely for the maintenance sweeper; no component updates an
// entry after creation.
type AuditRepository interface {
	Append(ctx context.Context, entry *domain.AuditEntry) error
	// ListRecent returns the newest entries for a user since the given
	// time, newest first, at most limit.
	ListRecent(ctx context.Context, userID uuid.UUID, since time.Time, limit int) ([]domain.AuditEntry, error)
	// CountWindow counts a user's entries since the given time.
	CountWindow(ctx context.Context, userID uuid.UUID, since time.Time) (*WindowStats, error)
	// DeleteBefore removes entries older than cutoff, at most pageSize per
	// call. Deleting an already-deleted entry is a no-op.
	DeleteBefore(ctx context.Context, cutoff time.Time, pageSize int) (int64, error)
}

type auditRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewAuditRepository(db *pgxpool.Pool, log logger.Logger) AuditRepository {
	return &auditRepository{db: db, log: log}
}

func (r *auditRepository) Append(ctx context.Context, entry *domain.AuditEntry) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO audit_log (user_id, action, resource_type, resource_id, event_time, risk_level, metadata, schema_version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, entry.UserID, entry.Action, entry.ResourceType, entry.ResourceID,
		entry.Timestamp, entry.RiskLevel, entry.Metadata, entry.SchemaVersion,
	).Scan(&entry.ID)

	if err != nil {
		r.log.Error("Failed to append audit entry", "error", err, "user_id", entry.UserID)
		return err
	}
	return nil
}

func (r *auditRepository) ListRecent(ctx context.Context, userID uuid.UUID, since time.Time, limit int) ([]domain.AuditEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, action, resource_type, resource_id, event_time, risk_level, metadata, schema_version
		FROM audit_log
		WHERE user_id = $1 AND event_time >= $2
		ORDER BY event_time DESC
		LIMIT $3
	`, userID, since, limit)
	if err != nil {
		r.log.Error("Failed to list audit entries", "error", err, "user_id", userID)
		return nil, err
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.ResourceType, &e.ResourceID,
			&e.Timestamp, &e.RiskLevel, &e.Metadata, &e.SchemaVersion); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *auditRepository) CountWindow(ctx context.Context, userID uuid.UUID, since time.Time) (*WindowStats, error) {
	stats := &WindowStats{}
	err := r.db.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE action = 'read'),
		       count(*) FILTER (WHERE resource_type = 'certificate')
		FROM audit_log
		WHERE user_id = $1 AND event_time >= $2
	`, userID, since).Scan(&stats.Total, &stats.Reads, &stats.CertEvents)

	if err != nil {
		r.log.Error("Failed to count audit window", "error", err, "user_id", userID)
		return nil, err
	}
	return stats, nil
}

func (r *auditRepository) DeleteBefore(ctx context.Context, cutoff time.Time, pageSize int) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM audit_log
		WHERE id IN (
			SELECT id FROM audit_log
			WHERE event_time < $1
			ORDER BY event_time
			LIMIT $2
		)
	`, cutoff, pageSize)
	if err != nil {
		r.log.Error("Failed to delete audit entries", "error", err)
		return 0, err
	}
	return tag.RowsAffected(), nil
}
