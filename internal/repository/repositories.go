package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"security_monitor/pkg/logger"
)

type Repositories struct {
	RateLimit  RateLimitRepository
	Violation  ViolationRepository
	Audit      AuditRepository
	Threat     ThreatRepository
	Compliance ComplianceRepository
	User       UserRepository
	Locks      LockRepository
}

func NewRepositories(db *pgxpool.Pool, redis *redis.Client, log logger.Logger) *Repositories {
	return &Repositories{
		RateLimit:  NewRateLimitRepository(db, log),
		Violation:  NewViolationRepository(db, log),
		Audit:      NewAuditRepository(db, log),
		Threat:     NewThreatRepository(db, log),
		Compliance: NewComplianceRepository(db, log),
		User:       NewUserRepository(db, log),
		Locks:      NewLockRepository(redis, log),
	}
}
