package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyRiskPriority(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		want     string
	}{
		{"no patterns", nil, RiskLow},
		{"single benign pattern", []string{PatternUnusualTiming}, RiskLow},
		{"volume pattern is high", []string{PatternRapidFire}, RiskHigh},
		{"mass access is high", []string{PatternMassAccess}, RiskHigh},
		{"escalation wins over volume", []string{PatternRapidFire, PatternPrivilegeEscalation}, RiskCritical},
		{"bsn is critical", []string{PatternBSNAccess}, RiskCritical},
		{"cert manipulation is critical", []string{PatternCertManipulation}, RiskCritical},
		{"three benign patterns are medium", []string{PatternUnusualTiming, "other", "another"}, RiskMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyRisk(tt.patterns))
		})
	}
}

func TestIsMonitoringCollection(t *testing.T) {
	assert.True(t, IsMonitoringCollection("audit_log"))
	assert.True(t, IsMonitoringCollection("threats"))
	assert.True(t, IsMonitoringCollection("violations"))
	assert.False(t, IsMonitoringCollection("certificates"))
	assert.False(t, IsMonitoringCollection("jobs"))
}
