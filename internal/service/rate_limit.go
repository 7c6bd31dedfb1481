package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"security_monitor/internal/config"
	"security_monitor/internal/domain"
	"security_monitor/internal/repository"
	pkgerrors "security_monitor/pkg/errors"
	"security_monitor/pkg/logger"
)

type RateLimitService interface {
	// CheckAndConsume applies the user's effective limit for one operation
	// and consumes one slot on success. A rejection records a rate_limit
	// violation and returns a *errors.RateLimitError; it is the expected
	// error path, not a fault.
	CheckAndConsume(ctx context.Context, userID uuid.UUID, operation, role string) (*domain.Decision, error)
}

type rateLimitService struct {
	limits        config.LimitTable
	rateLimitRepo repository.RateLimitRepository
	violations    ViolationService
	log           logger.Logger
	now           func() time.Time
}

func NewRateLimitService(limits config.LimitTable, rateLimitRepo repository.RateLimitRepository, violations ViolationService, log logger.Logger) RateLimitService {
	return &rateLimitService{
		limits:        limits,
		rateLimitRepo: rateLimitRepo,
		violations:    violations,
		log:           log,
		now:           time.Now,
	}
}

func (s *rateLimitService) CheckAndConsume(ctx context.Context, userID uuid.UUID, operation, role string) (*domain.Decision, error) {
	opLimit := s.limits.Lookup(operation)
	baseLimit := opLimit.ForRole(role)

	record, err := s.violations.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	effectiveLimit := domain.EffectiveLimit(baseLimit, record.Count)

	now := s.now()
	result, err := s.rateLimitRepo.Consume(ctx, userID, operation, effectiveLimit, opLimit.Window, now)
	if err != nil {
		return nil, err
	}

	decision := &domain.Decision{
		Allowed:   result.Allowed,
		Operation: operation,
		Role:      role,
		Limit:     effectiveLimit,
		Remaining: effectiveLimit - result.Count,
		Attempts:  result.Attempts,
		Timestamp: now,
	}

	if !result.Allowed {
		// Rejections always count toward the violation history; a failed
		// bookkeeping write must not mask the rejection itself.
		if err := s.violations.Record(ctx, userID, domain.ViolationTypeRateLimit, map[string]interface{}{
			"operation": operation,
			"limit":     effectiveLimit,
			"attempts":  result.Attempts,
		}); err != nil {
			s.log.Error("Failed to record rate limit violation", "error", err, "user_id", userID, "operation", operation)
		}
		return decision, pkgerrors.NewRateLimitError(operation, effectiveLimit, result.Attempts)
	}

	return decision, nil
}
