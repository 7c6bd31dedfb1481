package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"security_monitor/pkg/logger"
)

// LockRepository hands out one-shot locks. The response coordinator uses
// them to suspend an account exactly once under racing evaluations, and the
// sweeper to run the daily report once per date.
type LockRepository interface {
	// Acquire returns true for exactly one caller per key until the TTL
	// expires.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release frees a key early so the guarded work can be retried before
	// the TTL runs out. Releasing an unheld key is a no-op.
	Release(ctx context.Context, key string) error
}

type lockRepository struct {
	redis *redis.Client
	log   logger.Logger
}

func NewLockRepository(redis *redis.Client, log logger.Logger) LockRepository {
	return &lockRepository{redis: redis, log: log}
}

func (r *lockRepository) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := r.redis.SetNX(ctx, key, 1, ttl).Result()
	if err != nil {
		r.log.Error("Failed to acquire lock", "error", err, "key", key)
		return false, err
	}
	return ok, nil
}

func (r *lockRepository) Release(ctx context.Context, key string) error {
	if err := r.redis.Del(ctx, key).Err(); err != nil {
		r.log.Error("Failed to release lock", "error", err, "key", key)
		return err
	}
	return nil
}
