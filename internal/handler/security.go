package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"security_monitor/internal/service"
	pkgerrors "security_monitor/pkg/errors"
	"security_monitor/pkg/logger"
)

const auditListSpan = time.Hour

type SecurityHandler struct {
	rateLimits  service.RateLimitService
	assessments service.AssessmentService
	violations  service.ViolationService
	audit       service.AuditService
	log         logger.Logger
}

func NewSecurityHandler(rateLimits service.RateLimitService, assessments service.AssessmentService, violations service.ViolationService, audit service.AuditService, log logger.Logger) *SecurityHandler {
	return &SecurityHandler{
		rateLimits:  rateLimits,
		assessments: assessments,
		violations:  violations,
		audit:       audit,
		log:         log,
	}
}

type checkRateLimitRequest struct {
	Operation string `json:"operation"`
	Role      string `json:"role"`
}

// CheckRateLimit is the synchronous, fail-closed entry point: callers get
// allowed=true or a 429, never a pending state.
func (h *SecurityHandler) CheckRateLimit(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.Error(pkgerrors.ErrUnauthenticated)
		return
	}

	var req checkRateLimitRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Operation == "" {
		c.Error(pkgerrors.ErrInvalidArgument)
		return
	}

	// The token role is authoritative; the body role only fills in when the
	// token carries none.
	role := c.GetString("user_role")
	if role == "" {
		role = req.Role
	}

	decision, err := h.rateLimits.CheckAndConsume(c.Request.Context(), userID, req.Operation, role)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"allowed":   decision.Allowed,
		"operation": decision.Operation,
		"role":      decision.Role,
		"timestamp": decision.Timestamp,
	})
}

// TriggerAssessment is admin-only; the route gates on role before this
// handler runs.
func (h *SecurityHandler) TriggerAssessment(c *gin.Context) {
	assessment, err := h.assessments.Assess(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, assessment)
}

// GetMyViolations lets a user read their own violation record.
func (h *SecurityHandler) GetMyViolations(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.Error(pkgerrors.ErrUnauthenticated)
		return
	}

	record, err := h.violations.Get(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// GetMyAudit returns the caller's recent audit trail, newest first.
func (h *SecurityHandler) GetMyAudit(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.Error(pkgerrors.ErrUnauthenticated)
		return
	}

	entries, err := h.audit.ListRecent(c.Request.Context(), userID, auditListSpan, 100)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	return userID, ok
}
