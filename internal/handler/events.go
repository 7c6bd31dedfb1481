package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"security_monitor/internal/domain"
	"security_monitor/internal/middleware"
	"security_monitor/internal/service"
	"security_monitor/pkg/logger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Callers are backend services authenticated by token, not browsers.
		return true
	},
}

// EventsHandler ingests the write-event stream from the data-layer
// services. Delivery is best-effort: a bad frame is logged and skipped,
// never bounced back to the producer.
type EventsHandler struct {
	bus *service.EventBus
	log logger.Logger
}

func NewEventsHandler(bus *service.EventBus, log logger.Logger) *EventsHandler {
	return &EventsHandler{bus: bus, log: log}
}

func (h *EventsHandler) Stream(c *gin.Context) {
	role := c.GetString("user_role")
	if role != middleware.RoleService && role != "admin" {
		c.JSON(http.StatusForbidden, gin.H{"error": "service role required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error("Failed to upgrade event stream", "error", err)
		return
	}
	defer conn.Close()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Warn("Event stream closed unexpectedly", "error", err)
			}
			return
		}

		var event domain.WriteEvent
		if err := json.Unmarshal(message, &event); err != nil {
			h.log.Warn("Dropping malformed write event", "error", err)
			continue
		}
		if event.OccurredAt.IsZero() {
			event.OccurredAt = time.Now()
		}

		h.bus.Publish(event)
	}
}
