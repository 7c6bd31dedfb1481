package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditSchemaVersion is stamped on every entry so the retention sweep and
// future readers can distinguish formats.
const AuditSchemaVersion = 1

const (
	ActionCreate = "create"
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// AuditEntry is an immutable record of a security-relevant action. Entries
// are append-only: nothing in the codebase updates one after creation, and
// only the retention sweep deletes them.
type AuditEntry struct {
	ID            int64                  `json:"id"`
	UserID        uuid.UUID              `json:"user_id"`
	Action        string                 `json:"action"`
	ResourceType  string                 `json:"resource_type"`
	ResourceID    string                 `json:"resource_id"`
	Timestamp     time.Time              `json:"timestamp"`
	RiskLevel     string                 `json:"risk_level"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	SchemaVersion int                    `json:"schema_version"`
}
