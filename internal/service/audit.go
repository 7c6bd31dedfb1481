package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"security_monitor/internal/domain"
	"security_monitor/internal/repository"
	"security_monitor/pkg/logger"
)

type AuditService interface {
	// LogEvent appends one immutable entry. Risk level defaults to low when
	// the detector produced no verdict.
	LogEvent(ctx context.Context, userID uuid.UUID, action, resourceType, resourceID, riskLevel string, payload map[string]interface{}) error
	// ListRecent returns a user's newest entries within the trailing window.
	ListRecent(ctx context.Context, userID uuid.UUID, span time.Duration, limit int) ([]domain.AuditEntry, error)
}

type auditService struct {
	auditRepo repository.AuditRepository
	log       logger.Logger
	now       func() time.Time
}

func NewAuditService(auditRepo repository.AuditRepository, log logger.Logger) AuditService {
	return &auditService{
		auditRepo: auditRepo,
		log:       log,
		now:       time.Now,
	}
}

func (s *auditService) LogEvent(ctx context.Context, userID uuid.UUID, action, resourceType, resourceID, riskLevel string, payload map[string]interface{}) error {
	if riskLevel == "" {
		riskLevel = domain.RiskLow
	}

	metadata := map[string]interface{}{
		"data_size": payloadSize(payload),
	}

	return s.auditRepo.Append(ctx, &domain.AuditEntry{
		UserID:        userID,
		Action:        action,
		ResourceType:  resourceType,
		ResourceID:    resourceID,
		Timestamp:     s.now(),
		RiskLevel:     riskLevel,
		Metadata:      metadata,
		SchemaVersion: domain.AuditSchemaVersion,
	})
}

func (s *auditService) ListRecent(ctx context.Context, userID uuid.UUID, span time.Duration, limit int) ([]domain.AuditEntry, error) {
	return s.auditRepo.ListRecent(ctx, userID, s.now().Add(-span), limit)
}

func payloadSize(payload map[string]interface{}) int {
	if len(payload) == 0 {
		return 0
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return 0
	}
	return len(data)
}
