package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"security_monitor/internal/domain"
	"security_monitor/internal/repository"
	"security_monitor/pkg/logger"
)

// ViolationService is pure bookkeeping: it stamps events, delegates the
// atomic increment to the repository and exposes the resulting record. The
// severity thresholds live in the domain.
type ViolationService interface {
	Record(ctx context.Context, userID uuid.UUID, vtype string, metadata map[string]interface{}) error
	Get(ctx context.Context, userID uuid.UUID) (*domain.ViolationRecord, error)
}

type violationService struct {
	violationRepo repository.ViolationRepository
	log           logger.Logger
	now           func() time.Time
}

func NewViolationService(violationRepo repository.ViolationRepository, log logger.Logger) ViolationService {
	return &violationService{
		violationRepo: violationRepo,
		log:           log,
		now:           time.Now,
	}
}

func (s *violationService) Record(ctx context.Context, userID uuid.UUID, vtype string, metadata map[string]interface{}) error {
	if metadata == nil {
		metadata = make(map[string]interface{})
	}

	record, err := s.violationRepo.Record(ctx, userID, domain.ViolationEvent{
		Type:      vtype,
		Timestamp: s.now(),
		Metadata:  metadata,
	})
	if err != nil {
		return err
	}

	if record.Severity == domain.SeverityCritical || record.Severity == domain.SeverityHigh {
		s.log.Warn("User violation severity elevated",
			"user_id", userID, "count", record.Count, "severity", record.Severity)
	}
	return nil
}

func (s *violationService) Get(ctx context.Context, userID uuid.UUID) (*domain.ViolationRecord, error) {
	return s.violationRepo.Get(ctx, userID)
}
