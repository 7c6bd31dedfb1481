package domain

import (
	"time"

	"github.com/google/uuid"
)

// RateLimitWindow tracks request counts for one (user, operation) pair over
// a rolling window. Created lazily on first request, reset in place when the
// window elapses, deleted only by the maintenance sweeper.
type RateLimitWindow struct {
	UserID       uuid.UUID `json:"user_id"`
	Operation    string    `json:"operation"`
	WindowStart  time.Time `json:"window_start"`
	RequestCount int       `json:"request_count"`
	LastRequest  time.Time `json:"last_request"`
}

// Decision is the outcome of one rate-limit check.
type Decision struct {
	Allowed   bool      `json:"allowed"`
	Operation string    `json:"operation"`
	Role      string    `json:"role"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Attempts  int       `json:"attempts"`
	Timestamp time.Time `json:"timestamp"`
}

// PenaltyMultiplier shrinks a user's base limit as their violation count
// grows. Boundaries: count in (2,5] -> 0.5, (5,10] -> 0.2, >10 -> 0.1.
func PenaltyMultiplier(violationCount int) float64 {
	switch {
	case violationCount > 10:
		return 0.1
	case violationCount > 5:
		return 0.2
	case violationCount > 2:
		return 0.5
	default:
		return 1.0
	}
}

// EffectiveLimit applies the penalty multiplier to a base limit, rounding
// down.
func EffectiveLimit(baseLimit, violationCount int) int {
	return int(float64(baseLimit) * PenaltyMultiplier(violationCount))
}
