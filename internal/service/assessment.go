package service

import (
	"context"
	"time"

	"security_monitor/internal/repository"
	"security_monitor/pkg/logger"
)

// assessmentWindow is how far back the violation counts in an on-demand
// assessment reach.
const assessmentWindow = 24 * time.Hour

// SecurityAssessment aggregates the current security posture for the
// admin-only assessment endpoint.
type SecurityAssessment struct {
	UnresolvedThreats map[string]int64 `json:"unresolved_threats"`
	RecentViolations  map[string]int64 `json:"recent_violations"`
	GeneratedAt       time.Time        `json:"generated_at"`
}

type AssessmentService interface {
	Assess(ctx context.Context) (*SecurityAssessment, error)
}

type assessmentService struct {
	threatRepo    repository.ThreatRepository
	violationRepo repository.ViolationRepository
	log           logger.Logger
	now           func() time.Time
}

func NewAssessmentService(threatRepo repository.ThreatRepository, violationRepo repository.ViolationRepository, log logger.Logger) AssessmentService {
	return &assessmentService{
		threatRepo:    threatRepo,
		violationRepo: violationRepo,
		log:           log,
		now:           time.Now,
	}
}

func (s *assessmentService) Assess(ctx context.Context) (*SecurityAssessment, error) {
	now := s.now()

	threats, err := s.threatRepo.CountUnresolvedBySeverity(ctx)
	if err != nil {
		return nil, err
	}
	violations, err := s.violationRepo.CountByTypeBetween(ctx, now.Add(-assessmentWindow), now)
	if err != nil {
		return nil, err
	}

	return &SecurityAssessment{
		UnresolvedThreats: threats,
		RecentViolations:  violations,
		GeneratedAt:       now,
	}, nil
}
