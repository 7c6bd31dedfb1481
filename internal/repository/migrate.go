package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		role TEXT NOT NULL DEFAULT 'default',
		suspended BOOLEAN NOT NULL DEFAULT FALSE,
		suspension_reason TEXT,
		suspension_type TEXT,
		suspended_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS rate_limit_windows (
		user_id UUID NOT NULL,
		operation TEXT NOT NULL,
		window_start TIMESTAMPTZ NOT NULL,
		request_count INT NOT NULL DEFAULT 0,
		last_request TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (user_id, operation)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rate_limit_windows_last_request
		ON rate_limit_windows (last_request)`,
	`CREATE TABLE IF NOT EXISTS violations (
		user_id UUID PRIMARY KEY,
		count INT NOT NULL DEFAULT 0,
		severity TEXT NOT NULL DEFAULT 'low',
		history JSONB NOT NULL DEFAULT '[]'::jsonb,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS audit_log (
		id BIGSERIAL PRIMARY KEY,
		user_id UUID NOT NULL,
		action TEXT NOT NULL,
		resource_type TEXT NOT NULL,
		resource_id TEXT NOT NULL DEFAULT '',
		event_time TIMESTAMPTZ NOT NULL,
		risk_level TEXT NOT NULL DEFAULT 'low',
		metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
		schema_version INT NOT NULL DEFAULT 1
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_log_user_time
		ON audit_log (user_id, event_time DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_log_time
		ON audit_log (event_time)`,
	`CREATE TABLE IF NOT EXISTS threats (
		id BIGSERIAL PRIMARY KEY,
		user_id UUID NOT NULL,
		threat_type TEXT NOT NULL,
		severity TEXT NOT NULL,
		event_time TIMESTAMPTZ NOT NULL,
		blocked BOOLEAN NOT NULL DEFAULT FALSE,
		patterns TEXT[] NOT NULL DEFAULT '{}',
		auto_generated BOOLEAN NOT NULL DEFAULT TRUE,
		resolved BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_threats_time ON threats (event_time)`,
	`CREATE TABLE IF NOT EXISTS compliance_snapshots (
		category TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		violations INT NOT NULL DEFAULT 0,
		risk_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		details JSONB NOT NULL DEFAULT '{}'::jsonb,
		checked_at TIMESTAMPTZ NOT NULL,
		next_check TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS certificates (
		id UUID PRIMARY KEY,
		holder_id UUID NOT NULL,
		type TEXT NOT NULL,
		verified BOOLEAN NOT NULL DEFAULT FALSE,
		expires_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS certificate_alerts (
		id BIGSERIAL PRIMARY KEY,
		certificate_id UUID NOT NULL,
		holder_id UUID NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (certificate_id, expires_at)
	)`,
}

// Migrate applies the schema at startup. Every statement is idempotent so
// repeated runs are safe.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}
