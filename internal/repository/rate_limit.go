package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"security_monitor/pkg/logger"
)

// ConsumeResult reports the outcome of one atomic check-and-increment.
type ConsumeResult struct {
	Allowed bool
	// Count is the number of accepted requests in the current window after
	// this call.
	Count int
	// Attempts is the ordinal of this request within the window, counting
	// the rejected one.
	Attempts int
}

type RateLimitRepository interface {
	// Consume atomically applies the window rules for one (user, operation)
	// pair: reset the window if it has elapsed, reject if the count already
	// reached the limit, otherwise increment. Concurrent calls for the same
	// pair serialize on the row lock; at most `limit` of them are allowed
	// per window.
	Consume(ctx context.Context, userID uuid.UUID, operation string, limit int, window time.Duration, now time.Time) (*ConsumeResult, error)
	// PurgeInactive deletes windows whose last request is older than cutoff,
	// at most pageSize per call.
	PurgeInactive(ctx context.Context, cutoff time.Time, pageSize int) (int64, error)
}

type rateLimitRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewRateLimitRepository(db *pgxpool.Pool, log logger.Logger) RateLimitRepository {
	return &rateLimitRepository{db: db, log: log}
}

func (r *rateLimitRepository) Consume(ctx context.Context, userID uuid.UUID, operation string, limit int, window time.Duration, now time.Time) (*ConsumeResult, error) {
	var result *ConsumeResult

	err := withTxRetry(ctx, r.db, func(tx pgx.Tx) error {
		var windowStart time.Time
		var count int

		err := tx.QueryRow(ctx, `
			SELECT window_start, request_count
			FROM rate_limit_windows
			WHERE user_id = $1 AND operation = $2
			FOR UPDATE
		`, userID, operation).Scan(&windowStart, &count)

		switch {
		case errors.Is(err, pgx.ErrNoRows):
			if limit <= 0 {
				result = &ConsumeResult{Allowed: false, Count: 0, Attempts: 1}
				return nil
			}
			_, err := tx.Exec(ctx, `
				INSERT INTO rate_limit_windows (user_id, operation, window_start, request_count, last_request)
				VALUES ($1, $2, $3, 1, $3)
			`, userID, operation, now)
			if err != nil {
				return err
			}
			result = &ConsumeResult{Allowed: true, Count: 1, Attempts: 1}
			return nil
		case err != nil:
			return err
		}

		// Window elapsed: the count resets before this request is counted.
		if now.Sub(windowStart) >= window {
			windowStart = now
			count = 0
		}

		if count >= limit {
			result = &ConsumeResult{Allowed: false, Count: count, Attempts: count + 1}
			return nil
		}

		count++
		_, err = tx.Exec(ctx, `
			UPDATE rate_limit_windows
			SET window_start = $3, request_count = $4, last_request = $5
			WHERE user_id = $1 AND operation = $2
		`, userID, operation, windowStart, count, now)
		if err != nil {
			return err
		}
		result = &ConsumeResult{Allowed: true, Count: count, Attempts: count}
		return nil
	})

	if err != nil {
		r.log.Error("Failed to consume rate limit", "error", err, "user_id", userID, "operation", operation)
		return nil, err
	}
	return result, nil
}

func (r *rateLimitRepository) PurgeInactive(ctx context.Context, cutoff time.Time, pageSize int) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM rate_limit_windows
		WHERE (user_id, operation) IN (
			SELECT user_id, operation
			FROM rate_limit_windows
			WHERE last_request < $1
			LIMIT $2
		)
	`, cutoff, pageSize)
	if err != nil {
		r.log.Error("Failed to purge rate limit windows", "error", err)
		return 0, err
	}
	return tag.RowsAffected(), nil
}
