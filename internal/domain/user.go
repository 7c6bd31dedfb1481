package domain

import (
	"time"

	"github.com/google/uuid"
)

const SuspensionTypeAutomatic = "automatic"

// User is the slice of the account entity the engine reads and, on a
// critical threat, mutates as an emergency action.
type User struct {
	ID               uuid.UUID  `json:"id"`
	Email            string     `json:"email"`
	Role             string     `json:"role"`
	Suspended        bool       `json:"suspended"`
	SuspensionReason *string    `json:"suspension_reason,omitempty"`
	SuspensionType   *string    `json:"suspension_type,omitempty"`
	SuspendedAt      *time.Time `json:"suspended_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
