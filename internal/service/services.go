package service

import (
	"security_monitor/internal/config"
	"security_monitor/internal/repository"
	"security_monitor/pkg/logger"
)

type Services struct {
	RateLimit  RateLimitService
	Violation  ViolationService
	Threat     ThreatService
	Response   ResponseService
	Audit      AuditService
	Monitor    MonitorService
	Assessment AssessmentService
	Sweeper    SweeperService
	Bus        *EventBus
}

func NewServices(repos *repository.Repositories, cfg *config.Config, log logger.Logger) *Services {
	violations := NewViolationService(repos.Violation, log)
	threats := NewThreatService(repos.Audit, cfg.Monitor, log)
	responses := NewResponseService(repos.Threat, repos.User, repos.Locks, violations, log)
	audit := NewAuditService(repos.Audit, log)
	monitor := NewMonitorService(threats, responses, audit, log)

	services := &Services{
		RateLimit:  NewRateLimitService(cfg.Limits, repos.RateLimit, violations, log),
		Violation:  violations,
		Threat:     threats,
		Response:   responses,
		Audit:      audit,
		Monitor:    monitor,
		Assessment: NewAssessmentService(repos.Threat, repos.Violation, log),
		Sweeper:    NewSweeperService(repos, cfg.Sweeper, log),
	}
	services.Bus = NewEventBus(cfg.Monitor.BusBuffer, cfg.Monitor.Workers, monitor.HandleWriteEvent, log)
	return services
}
