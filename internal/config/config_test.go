package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLimitTable(t *testing.T) {
	table := DefaultLimitTable()

	certReads := table.Lookup("certificate_reads")
	assert.Equal(t, 10, certReads.ForRole(RoleDefault))
	assert.Equal(t, 20, certReads.ForRole(RoleGuard))
	assert.Equal(t, 5, certReads.ForRole(RoleCompany))
	assert.Equal(t, 100, certReads.ForRole(RoleAdmin))
	assert.Equal(t, time.Minute, certReads.Window)

	// Companies cannot create certificates at all.
	assert.Equal(t, 0, table.Lookup("certificate_creates").ForRole(RoleCompany))

	// Security-sensitive operations use hourly windows.
	assert.Equal(t, time.Hour, table.Lookup("gdpr_requests").Window)
	assert.Equal(t, time.Hour, table.Lookup("password_resets").Window)

	// Unknown roles fall back to the default column.
	assert.Equal(t, 100, table.Lookup("user_reads").ForRole("visitor"))
}

func TestLookupUnknownOperationFallsBack(t *testing.T) {
	table := DefaultLimitTable()

	limit := table.Lookup("no_such_operation")
	assert.Equal(t, 100, limit.ForRole(RoleGuard))
	assert.Equal(t, time.Minute, limit.Window)
}

func TestLoadLimitTableOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "limits.json")
	content := `{
		"certificate_reads": {"default": 1, "guard": 2, "company": 3, "admin": 4, "window_seconds": 120},
		"custom_op": {"default": 7, "guard": 7, "company": 7, "admin": 7}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	table, err := LoadLimitTable(path)
	require.NoError(t, err)

	certReads := table.Lookup("certificate_reads")
	assert.Equal(t, 2, certReads.ForRole(RoleGuard))
	assert.Equal(t, 2*time.Minute, certReads.Window)

	// Window defaults to one minute when omitted.
	assert.Equal(t, time.Minute, table.Lookup("custom_op").Window)
}

func TestLoadLimitTableMissingFile(t *testing.T) {
	_, err := LoadLimitTable(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestValidateBusinessHours(t *testing.T) {
	cfg := &Config{
		JWT:      JWTConfig{Secret: "secret"},
		Database: DatabaseConfig{DSN: "postgres://localhost/db"},
		Limits:   DefaultLimitTable(),
		Monitor:  MonitorConfig{BusinessHourStart: 22, BusinessHourEnd: 6},
	}
	assert.Error(t, cfg.validate())

	cfg.Monitor.BusinessHourStart = 6
	cfg.Monitor.BusinessHourEnd = 22
	assert.NoError(t, cfg.validate())
}
