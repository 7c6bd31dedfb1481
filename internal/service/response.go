package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"security_monitor/internal/domain"
	"security_monitor/internal/repository"
	"security_monitor/pkg/logger"
)

// suspendLockTTL bounds how long the suspension guard key lives. The SQL
// update is itself conditional, so an expired key cannot cause a second
// suspension, only a redundant no-op update.
const suspendLockTTL = 24 * time.Hour

type ResponseService interface {
	// Respond persists the threat and escalates critical findings into an
	// account suspension. Every detected threat, critical or not, also
	// counts as a suspicious_activity violation.
	Respond(ctx context.Context, assessment *domain.ThreatAssessment) error
}

type responseService struct {
	threatRepo repository.ThreatRepository
	userRepo   repository.UserRepository
	locks      repository.LockRepository
	violations ViolationService
	log        logger.Logger
	now        func() time.Time
}

func NewResponseService(threatRepo repository.ThreatRepository, userRepo repository.UserRepository, locks repository.LockRepository, violations ViolationService, log logger.Logger) ResponseService {
	return &responseService{
		threatRepo: threatRepo,
		userRepo:   userRepo,
		locks:      locks,
		violations: violations,
		log:        log,
		now:        time.Now,
	}
}

func (s *responseService) Respond(ctx context.Context, assessment *domain.ThreatAssessment) error {
	threatType := "unknown"
	if len(assessment.Patterns) > 0 {
		threatType = assessment.Patterns[0]
	}

	record := &domain.ThreatRecord{
		UserID:        assessment.UserID,
		ThreatType:    threatType,
		Severity:      assessment.RiskLevel,
		Timestamp:     s.now(),
		Blocked:       assessment.RiskLevel == domain.RiskCritical,
		Patterns:      assessment.Patterns,
		AutoGenerated: true,
	}
	if err := s.threatRepo.Create(ctx, record); err != nil {
		return err
	}

	if assessment.RiskLevel == domain.RiskCritical {
		if err := s.suspendOnce(ctx, assessment.UserID, threatType); err != nil {
			return err
		}
	}

	return s.violations.Record(ctx, assessment.UserID, domain.ViolationTypeSuspiciousActivity, map[string]interface{}{
		"patterns":   assessment.Patterns,
		"risk_level": assessment.RiskLevel,
	})
}

func (s *responseService) suspendOnce(ctx context.Context, userID uuid.UUID, threatType string) error {
	acquired, err := s.locks.Acquire(ctx, "suspend:"+userID.String(), suspendLockTTL)
	if err != nil {
		return err
	}
	if !acquired {
		return nil
	}

	suspended, err := s.userRepo.Suspend(ctx, userID, "automatic suspension: "+threatType)
	if err != nil {
		return err
	}
	if suspended {
		s.log.Warn("Account suspended after critical threat", "user_id", userID, "threat_type", threatType)
	}
	return nil
}
