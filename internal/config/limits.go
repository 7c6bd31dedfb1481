package config

import "time"

// OperationLimit holds the per-role base limits for one operation, counted
// over Window.
type OperationLimit struct {
	Default int
	Guard   int
	Company int
	Admin   int
	Window  time.Duration
}

// LimitTable maps operation names to their base limits. It is injected into
// the rate limiter so deployments can override it without a rebuild.
type LimitTable map[string]OperationLimit

const (
	RoleDefault = "default"
	RoleGuard   = "guard"
	RoleCompany = "company"
	RoleAdmin   = "admin"
)

// DefaultOperationLimit applies when an operation is missing from the table.
var DefaultOperationLimit = OperationLimit{
	Default: 100,
	Guard:   100,
	Company: 100,
	Admin:   100,
	Window:  time.Minute,
}

func (l OperationLimit) ForRole(role string) int {
	switch role {
	case RoleGuard:
		return l.Guard
	case RoleCompany:
		return l.Company
	case RoleAdmin:
		return l.Admin
	default:
		return l.Default
	}
}

// Lookup returns the limit row for an operation. Unknown operations fall
// back to 100/min rather than failing.
func (t LimitTable) Lookup(operation string) OperationLimit {
	if limit, ok := t[operation]; ok {
		return limit
	}
	return DefaultOperationLimit
}

func DefaultLimitTable() LimitTable {
	return LimitTable{
		"user_reads":          {Default: 100, Guard: 150, Company: 200, Admin: 1000, Window: time.Minute},
		"job_reads":           {Default: 200, Guard: 300, Company: 100, Admin: 500, Window: time.Minute},
		"certificate_reads":   {Default: 10, Guard: 20, Company: 5, Admin: 100, Window: time.Minute},
		"certificate_creates": {Default: 5, Guard: 10, Company: 0, Admin: 50, Window: time.Minute},
		"chat_uploads":        {Default: 20, Guard: 30, Company: 10, Admin: 100, Window: time.Minute},
		"profile_uploads":     {Default: 5, Guard: 5, Company: 5, Admin: 20, Window: time.Minute},
		"cert_uploads":        {Default: 3, Guard: 5, Company: 0, Admin: 10, Window: time.Minute},
		"gdpr_requests":       {Default: 3, Guard: 3, Company: 3, Admin: 50, Window: time.Hour},
		"password_resets":     {Default: 5, Guard: 5, Company: 5, Admin: 20, Window: time.Hour},
	}
}
