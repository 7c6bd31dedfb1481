package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"security_monitor/internal/domain"
	"security_monitor/internal/middleware"
	"security_monitor/internal/service"
	pkgerrors "security_monitor/pkg/errors"
	"security_monitor/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeRateLimitService struct {
	decision *domain.Decision
	err      error
	lastOp   string
	lastRole string
}

func (f *fakeRateLimitService) CheckAndConsume(ctx context.Context, userID uuid.UUID, operation, role string) (*domain.Decision, error) {
	f.lastOp = operation
	f.lastRole = role
	return f.decision, f.err
}

type fakeAssessmentService struct {
	assessment *service.SecurityAssessment
	err        error
}

func (f *fakeAssessmentService) Assess(ctx context.Context) (*service.SecurityAssessment, error) {
	return f.assessment, f.err
}

type fakeViolationService struct {
	record *domain.ViolationRecord
}

func (f *fakeViolationService) Record(ctx context.Context, userID uuid.UUID, vtype string, metadata map[string]interface{}) error {
	return nil
}

func (f *fakeViolationService) Get(ctx context.Context, userID uuid.UUID) (*domain.ViolationRecord, error) {
	return f.record, nil
}

type fakeAuditService struct {
	entries []domain.AuditEntry
}

func (f *fakeAuditService) LogEvent(ctx context.Context, userID uuid.UUID, action, resourceType, resourceID, riskLevel string, payload map[string]interface{}) error {
	return nil
}

func (f *fakeAuditService) ListRecent(ctx context.Context, userID uuid.UUID, span time.Duration, limit int) ([]domain.AuditEntry, error) {
	return f.entries, nil
}

type handlerFixture struct {
	router      *gin.Engine
	rateLimits  *fakeRateLimitService
	assessments *fakeAssessmentService
	violations  *fakeViolationService
	audit       *fakeAuditService
	userID      uuid.UUID
}

// authAs mimics the auth middleware for an authenticated request.
func authAs(userID uuid.UUID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("user_role", role)
		c.Next()
	}
}

func newHandlerFixture(t *testing.T, auth gin.HandlerFunc) *handlerFixture {
	t.Helper()

	f := &handlerFixture{
		rateLimits:  &fakeRateLimitService{},
		assessments: &fakeAssessmentService{},
		violations:  &fakeViolationService{},
		audit:       &fakeAuditService{},
		userID:      uuid.New(),
	}

	h := NewSecurityHandler(f.rateLimits, f.assessments, f.violations, f.audit, logger.NewNop())

	router := gin.New()
	router.Use(middleware.ErrorHandler())
	group := router.Group("/api/v1/security")
	if auth != nil {
		group.Use(auth)
	}
	group.POST("/rate-limit/check", h.CheckRateLimit)
	group.POST("/assessment", h.TriggerAssessment)
	group.GET("/violations/me", h.GetMyViolations)
	group.GET("/audit/me", h.GetMyAudit)

	f.router = router
	return f
}

func (f *handlerFixture) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestCheckRateLimitRequiresAuth(t *testing.T) {
	f := newHandlerFixture(t, nil)

	w := f.do(http.MethodPost, "/api/v1/security/rate-limit/check", gin.H{"operation": "user_reads"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCheckRateLimitRejectsMissingOperation(t *testing.T) {
	f := newHandlerFixture(t, authAs(uuid.New(), "guard"))

	w := f.do(http.MethodPost, "/api/v1/security/rate-limit/check", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckRateLimitAllowed(t *testing.T) {
	f := newHandlerFixture(t, authAs(uuid.New(), "guard"))
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	f.rateLimits.decision = &domain.Decision{
		Allowed: true, Operation: "certificate_reads", Role: "guard",
		Limit: 20, Remaining: 19, Attempts: 1, Timestamp: now,
	}

	w := f.do(http.MethodPost, "/api/v1/security/rate-limit/check", gin.H{"operation": "certificate_reads"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["allowed"])
	assert.Equal(t, "certificate_reads", resp["operation"])
	assert.Equal(t, "guard", resp["role"])

	// The token role wins over whatever the body claims.
	assert.Equal(t, "guard", f.rateLimits.lastRole)
}

func TestCheckRateLimitRejected(t *testing.T) {
	f := newHandlerFixture(t, authAs(uuid.New(), "guard"))
	f.rateLimits.decision = &domain.Decision{Allowed: false, Operation: "certificate_reads", Limit: 20, Attempts: 21}
	f.rateLimits.err = pkgerrors.NewRateLimitError("certificate_reads", 20, 21)

	w := f.do(http.MethodPost, "/api/v1/security/rate-limit/check", gin.H{"operation": "certificate_reads"})
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "certificate_reads", resp["operation"])
	assert.Equal(t, float64(20), resp["limit"])
	assert.Equal(t, float64(21), resp["attempts"])
}

func TestBodyRoleFillsInWhenTokenHasNone(t *testing.T) {
	f := newHandlerFixture(t, authAs(uuid.New(), ""))
	f.rateLimits.decision = &domain.Decision{Allowed: true, Operation: "user_reads", Role: "company"}

	w := f.do(http.MethodPost, "/api/v1/security/rate-limit/check", gin.H{"operation": "user_reads", "role": "company"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "company", f.rateLimits.lastRole)
}

func TestTriggerAssessment(t *testing.T) {
	f := newHandlerFixture(t, authAs(uuid.New(), "admin"))
	f.assessments.assessment = &service.SecurityAssessment{
		UnresolvedThreats: map[string]int64{domain.RiskCritical: 2},
		RecentViolations:  map[string]int64{domain.ViolationTypeRateLimit: 5},
		GeneratedAt:       time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC),
	}

	w := f.do(http.MethodPost, "/api/v1/security/assessment", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp service.SecurityAssessment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.UnresolvedThreats[domain.RiskCritical])
	assert.Equal(t, int64(5), resp.RecentViolations[domain.ViolationTypeRateLimit])
}

func TestGetMyViolations(t *testing.T) {
	userID := uuid.New()
	f := newHandlerFixture(t, authAs(userID, "guard"))
	f.violations.record = &domain.ViolationRecord{UserID: userID, Count: 3, Severity: domain.SeverityMedium}

	w := f.do(http.MethodGet, "/api/v1/security/violations/me", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp domain.ViolationRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Count)
	assert.Equal(t, domain.SeverityMedium, resp.Severity)
}

func TestGetMyAudit(t *testing.T) {
	userID := uuid.New()
	f := newHandlerFixture(t, authAs(userID, "guard"))
	f.audit.entries = []domain.AuditEntry{
		{UserID: userID, Action: domain.ActionRead, ResourceType: "job", RiskLevel: domain.RiskLow},
	}

	w := f.do(http.MethodGet, "/api/v1/security/audit/me", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Entries []domain.AuditEntry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "job", resp.Entries[0].ResourceType)
}
