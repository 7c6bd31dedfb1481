package handler

import (
	"security_monitor/internal/config"
	"security_monitor/internal/service"
	"security_monitor/pkg/logger"
)

type Handlers struct {
	Health   *HealthHandler
	Security *SecurityHandler
	Events   *EventsHandler
}

func NewHandlers(services *service.Services, cfg *config.Config, log logger.Logger) *Handlers {
	return &Handlers{
		Health:   NewHealthHandler(cfg),
		Security: NewSecurityHandler(services.RateLimit, services.Assessment, services.Violation, services.Audit, log),
		Events:   NewEventsHandler(services.Bus, log),
	}
}
