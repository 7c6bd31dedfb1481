package domain

import (
	"time"

	"github.com/google/uuid"
)

// Compliance categories form a small closed set; each gets one snapshot
// row, overwritten daily.
const (
	ComplianceAbusePrevention     = "abuse_prevention"
	ComplianceThreatActivity      = "threat_activity"
	ComplianceDataRetention       = "data_retention"
	ComplianceCertificateValidity = "certificate_validity"
)

const (
	ComplianceStatusCompliant = "compliant"
	ComplianceStatusAttention = "attention"
	ComplianceStatusViolation = "violation"
)

// ComplianceSnapshot is the daily summary for one category.
type ComplianceSnapshot struct {
	Category   string                 `json:"category"`
	Status     string                 `json:"status"`
	Violations int                    `json:"violations"`
	RiskScore  float64                `json:"risk_score"`
	Details    map[string]interface{} `json:"details,omitempty"`
	CheckedAt  time.Time              `json:"checked_at"`
	NextCheck  time.Time              `json:"next_check"`
}

// Certificate is the slice of the certificate entity the sweeper needs for
// its expiration scan.
type Certificate struct {
	ID        uuid.UUID `json:"id"`
	HolderID  uuid.UUID `json:"holder_id"`
	Type      string    `json:"type"`
	Verified  bool      `json:"verified"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CertificateAlert is raised for a verified certificate expiring soon.
type CertificateAlert struct {
	ID            int64     `json:"id"`
	CertificateID uuid.UUID `json:"certificate_id"`
	HolderID      uuid.UUID `json:"holder_id"`
	ExpiresAt     time.Time `json:"expires_at"`
	CreatedAt     time.Time `json:"created_at"`
}
