package service

import (
	"context"
	"fmt"

	"security_monitor/internal/domain"
	"security_monitor/pkg/logger"
)

// MonitorService is the passive pipeline behind every application write:
// threat evaluation, coordinated response, audit append. It is
// unconditionally fail-open — an internal error is logged and swallowed so
// monitoring never blocks the underlying write. The active rate-limit check
// does not pass through here and keeps its fail-closed semantics.
type MonitorService interface {
	HandleWriteEvent(ctx context.Context, event domain.WriteEvent)
}

type monitorService struct {
	threats   ThreatService
	responses ResponseService
	audit     AuditService
	log       logger.Logger
}

func NewMonitorService(threats ThreatService, responses ResponseService, audit AuditService, log logger.Logger) MonitorService {
	return &monitorService{
		threats:   threats,
		responses: responses,
		audit:     audit,
		log:       log,
	}
}

func (s *monitorService) HandleWriteEvent(ctx context.Context, event domain.WriteEvent) {
	// Writes to the engine's own collections never feed back into the
	// detector.
	if domain.IsMonitoringCollection(event.Collection) {
		return
	}

	if err := s.process(ctx, event); err != nil {
		s.log.Warn("Monitoring pipeline error swallowed",
			"error", err, "collection", event.Collection, "user_id", event.UserID)
	}
}

func (s *monitorService) process(ctx context.Context, event domain.WriteEvent) error {
	riskLevel := domain.RiskLow

	assessment, err := s.threats.Evaluate(ctx, event)
	if err != nil {
		// The audit append below still runs with the default risk level.
		s.log.Warn("Threat evaluation failed", "error", err, "user_id", event.UserID)
	} else if len(assessment.Patterns) > 0 {
		riskLevel = assessment.RiskLevel
		if err := s.responses.Respond(ctx, assessment); err != nil {
			s.log.Warn("Threat response failed", "error", err, "user_id", event.UserID)
		}
	}

	action := event.Action
	if action == "" {
		action = event.EventType
	}
	if err := s.audit.LogEvent(ctx, event.UserID, action, event.Collection, event.ResourceID, riskLevel, event.After); err != nil {
		return fmt.Errorf("audit append: %w", err)
	}
	return nil
}
