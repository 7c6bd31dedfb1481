package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"security_monitor/internal/domain"
	"security_monitor/pkg/logger"
)

type ComplianceRepository interface {
	// UpsertSnapshot overwrites the daily snapshot for one category.
	UpsertSnapshot(ctx context.Context, snapshot *domain.ComplianceSnapshot) error
	// ExpiringVerified returns verified certificates expiring before the
	// given time.
	ExpiringVerified(ctx context.Context, before time.Time) ([]domain.Certificate, error)
	// CreateAlert raises an expiration alert. Re-raising the same alert is
	// a no-op, so the scan can run daily without duplicates.
	CreateAlert(ctx context.Context, alert *domain.CertificateAlert) error
}

type complianceRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewComplianceRepository(db *pgxpool.Pool, log logger.Logger) ComplianceRepository {
	return &complianceRepository{db: db, log: log}
}

func (r *complianceRepository) UpsertSnapshot(ctx context.Context, snapshot *domain.ComplianceSnapshot) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO compliance_snapshots (category, status, violations, risk_score, details, checked_at, next_check)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (category) DO UPDATE
		SET status = $2, violations = $3, risk_score = $4, details = $5, checked_at = $6, next_check = $7
	`, snapshot.Category, snapshot.Status, snapshot.Violations, snapshot.RiskScore,
		snapshot.Details, snapshot.CheckedAt, snapshot.NextCheck)

	if err != nil {
		r.log.Error("Failed to upsert compliance snapshot", "error", err, "category", snapshot.Category)
		return err
	}
	return nil
}

func (r *complianceRepository) ExpiringVerified(ctx context.Context, before time.Time) ([]domain.Certificate, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, holder_id, type, verified, expires_at
		FROM certificates
		WHERE verified AND expires_at <= $1 AND expires_at > now()
	`, before)
	if err != nil {
		r.log.Error("Failed to scan expiring certificates", "error", err)
		return nil, err
	}
	defer rows.Close()

	var certs []domain.Certificate
	for rows.Next() {
		var c domain.Certificate
		if err := rows.Scan(&c.ID, &c.HolderID, &c.Type, &c.Verified, &c.ExpiresAt); err != nil {
			return nil, err
		}
		certs = append(certs, c)
	}
	return certs, rows.Err()
}

func (r *complianceRepository) CreateAlert(ctx context.Context, alert *domain.CertificateAlert) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO certificate_alerts (certificate_id, holder_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (certificate_id, expires_at) DO NOTHING
	`, alert.CertificateID, alert.HolderID, alert.ExpiresAt)

	if err != nil {
		r.log.Error("Failed to create certificate alert", "error", err, "certificate_id", alert.CertificateID)
		return err
	}
	return nil
}
