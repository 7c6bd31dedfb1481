package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

const (
	ViolationTypeRateLimit          = "rate_limit"
	ViolationTypeSuspiciousActivity = "suspicious_activity"
)

// MaxViolationHistory caps the stored history list. The count stays
// monotonic regardless, and severity depends on count alone, so trimming
// old entries changes no observable behavior.
const MaxViolationHistory = 100

// ViolationEvent is one entry in a user's violation history.
type ViolationEvent struct {
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// ViolationRecord accumulates a user's violations. Count never decreases.
type ViolationRecord struct {
	UserID    uuid.UUID        `json:"user_id"`
	Count     int              `json:"count"`
	Severity  string           `json:"severity"`
	History   []ViolationEvent `json:"history"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// SeverityForCount derives the violation tier from the accumulated count:
// >10 critical, >5 high, >2 medium, else low.
func SeverityForCount(count int) string {
	switch {
	case count > 10:
		return SeverityCritical
	case count > 5:
		return SeverityHigh
	case count > 2:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
