package service

import (
	"context"
	"reflect"
	"strings"
	"time"

	"security_monitor/internal/config"
	"security_monitor/internal/domain"
	"security_monitor/internal/repository"
	"security_monitor/pkg/logger"
)

const (
	rapidFireThreshold  = 200
	massAccessThreshold = 500
	certEventThreshold  = 20
)

// bsnFields are the national-ID field names checked for unencrypted
// exposure. Encrypted values carry the "enc:" prefix.
var bsnFields = []string{"holder_bsn", "bsn"}

const encryptedPrefix = "enc:"

type ThreatService interface {
	// Evaluate inspects the user's trailing audit window and classifies the
	// event. Given a frozen window and clock the result is deterministic.
	Evaluate(ctx context.Context, event domain.WriteEvent) (*domain.ThreatAssessment, error)
}

type threatService struct {
	auditRepo repository.AuditRepository
	cfg       config.MonitorConfig
	location  *time.Location
	log       logger.Logger
	now       func() time.Time
}

func NewThreatService(auditRepo repository.AuditRepository, cfg config.MonitorConfig, log logger.Logger) ThreatService {
	location, err := time.LoadLocation(cfg.BusinessTimezone)
	if err != nil {
		log.Warn("Unknown business timezone, falling back to UTC", "timezone", cfg.BusinessTimezone)
		location = time.UTC
	}
	return &threatService{
		auditRepo: auditRepo,
		cfg:       cfg,
		location:  location,
		log:       log,
		now:       time.Now,
	}
}

func (s *threatService) Evaluate(ctx context.Context, event domain.WriteEvent) (*domain.ThreatAssessment, error) {
	now := s.now()
	since := now.Add(-s.cfg.WindowSpan)

	stats, err := s.auditRepo.CountWindow(ctx, event.UserID, since)
	if err != nil {
		return nil, err
	}

	var patterns []string
	if stats.Total > rapidFireThreshold {
		patterns = append(patterns, domain.PatternRapidFire)
	}
	if stats.Reads > massAccessThreshold {
		patterns = append(patterns, domain.PatternMassAccess)
	}
	if event.Collection == "certificates" && stats.CertEvents > certEventThreshold {
		patterns = append(patterns, domain.PatternCertManipulation)
	}
	if privilegeEscalation(event) {
		patterns = append(patterns, domain.PatternPrivilegeEscalation)
	}
	if bsnAccess(event) {
		patterns = append(patterns, domain.PatternBSNAccess)
	}
	if s.unusualTiming(now) {
		patterns = append(patterns, domain.PatternUnusualTiming)
	}

	return &domain.ThreatAssessment{
		UserID:    event.UserID,
		Patterns:  patterns,
		RiskLevel: domain.ClassifyRisk(patterns),
	}, nil
}

// privilegeEscalation fires when an update changes the role or type field
// between the before and after snapshots.
func privilegeEscalation(event domain.WriteEvent) bool {
	if event.EventType != "update" || event.Before == nil || event.After == nil {
		return false
	}
	for _, field := range []string{"role", "type"} {
		before, beforeOK := event.Before[field]
		after, afterOK := event.After[field]
		// Snapshots come from untrusted JSON; the values can be maps or
		// slices, so a plain == would panic on uncomparable types.
		if (beforeOK || afterOK) && !reflect.DeepEqual(before, after) {
			return true
		}
	}
	return false
}

// bsnAccess fires when a certificate write exposes a national-ID field
// without the encryption prefix.
func bsnAccess(event domain.WriteEvent) bool {
	if event.Collection != "certificates" || event.After == nil {
		return false
	}
	for _, field := range bsnFields {
		value, ok := event.After[field].(string)
		if ok && value != "" && !strings.HasPrefix(value, encryptedPrefix) {
			return true
		}
	}
	return false
}

// unusualTiming fires outside configured business hours or on weekends,
// evaluated in the deployment's business timezone.
func (s *threatService) unusualTiming(now time.Time) bool {
	local := now.In(s.location)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return true
	}
	hour := local.Hour()
	return hour < s.cfg.BusinessHourStart || hour >= s.cfg.BusinessHourEnd
}
