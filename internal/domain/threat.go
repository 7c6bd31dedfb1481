package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskCritical = "critical"
)

const (
	PatternRapidFire           = "rapid_fire"
	PatternMassAccess          = "mass_access"
	PatternCertManipulation    = "cert_manipulation"
	PatternPrivilegeEscalation = "privilege_escalation"
	PatternBSNAccess           = "bsn_access"
	PatternUnusualTiming       = "unusual_timing"
)

// WriteEvent describes one create/update on an application data record,
// delivered to the monitoring pipeline.
type WriteEvent struct {
	UserID     uuid.UUID              `json:"user_id"`
	Collection string                 `json:"collection"`
	EventType  string                 `json:"event_type"`
	Action     string                 `json:"action"`
	ResourceID string                 `json:"resource_id"`
	Before     map[string]interface{} `json:"before,omitempty"`
	After      map[string]interface{} `json:"after,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// ThreatAssessment is the detector's verdict for one event.
type ThreatAssessment struct {
	UserID    uuid.UUID `json:"user_id"`
	Patterns  []string  `json:"patterns"`
	RiskLevel string    `json:"risk_level"`
}

// ThreatRecord is the persisted form of a detected threat.
type ThreatRecord struct {
	ID            int64     `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	ThreatType    string    `json:"threat_type"`
	Severity      string    `json:"severity"`
	Timestamp     time.Time `json:"timestamp"`
	Blocked       bool      `json:"blocked"`
	Patterns      []string  `json:"patterns"`
	AutoGenerated bool      `json:"auto_generated"`
	Resolved      bool      `json:"resolved"`
}

// monitoringCollections are the engine's own tables. Writes to them are
// never fed back into the detector.
var monitoringCollections = map[string]bool{
	"audit_log":            true,
	"threats":              true,
	"violations":           true,
	"rate_limit_windows":   true,
	"compliance_snapshots": true,
	"certificate_alerts":   true,
}

func IsMonitoringCollection(name string) bool {
	return monitoringCollections[name]
}

// ClassifyRisk maps a detected pattern set to a risk level. Priority order,
// first match wins: escalation/BSN/cert patterns are critical, volume
// patterns are high, more than two patterns of any kind are medium.
func ClassifyRisk(patterns []string) string {
	has := func(name string) bool {
		for _, p := range patterns {
			if p == name {
				return true
			}
		}
		return false
	}

	if has(PatternPrivilegeEscalation) || has(PatternBSNAccess) || has(PatternCertManipulation) {
		return RiskCritical
	}
	if has(PatternRapidFire) || has(PatternMassAccess) {
		return RiskHigh
	}
	if len(patterns) > 2 {
		return RiskMedium
	}
	return RiskLow
}
