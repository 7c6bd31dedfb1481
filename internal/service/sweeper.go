package service

import (
	"context"
	"time"

	"security_monitor/internal/config"
	"security_monitor/internal/domain"
	"security_monitor/internal/repository"
	"security_monitor/pkg/logger"
)

// SweeperService runs the scheduled maintenance jobs: rate-limit state
// purge, audit retention purge and the daily compliance report. Jobs are
// idempotent and paginated; a partial run resumes on the next tick.
type SweeperService interface {
	Run(ctx context.Context, interval time.Duration)
	RunOnce(ctx context.Context)
	PurgeRateLimits(ctx context.Context) (int64, error)
	PurgeAudit(ctx context.Context) (int64, error)
	DailyReport(ctx context.Context) error
}

type sweeperService struct {
	rateLimitRepo  repository.RateLimitRepository
	auditRepo      repository.AuditRepository
	threatRepo     repository.ThreatRepository
	violationRepo  repository.ViolationRepository
	complianceRepo repository.ComplianceRepository
	locks          repository.LockRepository
	cfg            config.SweeperConfig
	log            logger.Logger
	now            func() time.Time
}

func NewSweeperService(repos *repository.Repositories, cfg config.SweeperConfig, log logger.Logger) SweeperService {
	return &sweeperService{
		rateLimitRepo:  repos.RateLimit,
		auditRepo:      repos.Audit,
		threatRepo:     repos.Threat,
		violationRepo:  repos.Violation,
		complianceRepo: repos.Compliance,
		locks:          repos.Locks,
		cfg:            cfg,
		log:            log,
		now:            time.Now,
	}
}

func (s *sweeperService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce executes the three jobs independently; one failing does not stop
// the others. Failures are retried on the next scheduled run, never
// immediately.
func (s *sweeperService) RunOnce(ctx context.Context) {
	if deleted, err := s.PurgeRateLimits(ctx); err != nil {
		s.log.Error("Rate limit purge failed", "error", err)
	} else if deleted > 0 {
		s.log.Info("Purged inactive rate limit windows", "deleted", deleted)
	}

	if deleted, err := s.PurgeAudit(ctx); err != nil {
		s.log.Error("Audit retention purge failed", "error", err)
	} else if deleted > 0 {
		s.log.Info("Purged expired audit entries", "deleted", deleted)
	}

	if err := s.DailyReport(ctx); err != nil {
		s.log.Error("Daily compliance report failed", "error", err)
	}
}

func (s *sweeperService) PurgeRateLimits(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.cfg.RateLimitTTL)
	return s.rateLimitRepo.PurgeInactive(ctx, cutoff, s.cfg.RateLimitPageSize)
}

func (s *sweeperService) PurgeAudit(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.cfg.AuditRetention)
	return s.auditRepo.DeleteBefore(ctx, cutoff, s.cfg.AuditPageSize)
}

func (s *sweeperService) DailyReport(ctx context.Context) error {
	now := s.now()
	dayEnd := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayStart := dayEnd.AddDate(0, 0, -1)

	// One report per calendar day, even with several replicas sweeping. A
	// failed report releases the key again so the next tick can retry
	// instead of waiting out the TTL.
	lockKey := "report:" + dayStart.Format("2006-01-02")
	acquired, err := s.locks.Acquire(ctx, lockKey, s.cfg.ReportLockTTL)
	if err != nil {
		return err
	}
	if !acquired {
		return nil
	}

	if err := s.writeReport(ctx, dayStart, dayEnd); err != nil {
		if relErr := s.locks.Release(ctx, lockKey); relErr != nil {
			s.log.Error("Failed to release report lock after error", "error", relErr, "key", lockKey)
		}
		return err
	}
	return nil
}

func (s *sweeperService) writeReport(ctx context.Context, dayStart, dayEnd time.Time) error {
	threatsBySeverity, err := s.threatRepo.CountBySeverityBetween(ctx, dayStart, dayEnd)
	if err != nil {
		return err
	}
	threatsByType, err := s.threatRepo.CountByTypeBetween(ctx, dayStart, dayEnd)
	if err != nil {
		return err
	}
	violationsByType, err := s.violationRepo.CountByTypeBetween(ctx, dayStart, dayEnd)
	if err != nil {
		return err
	}

	nextCheck := dayEnd.AddDate(0, 0, 1)

	snapshots := []*domain.ComplianceSnapshot{
		abusePreventionSnapshot(violationsByType, dayEnd, nextCheck),
		threatActivitySnapshot(threatsBySeverity, threatsByType, dayEnd, nextCheck),
		{
			Category:  domain.ComplianceDataRetention,
			Status:    domain.ComplianceStatusCompliant,
			CheckedAt: dayEnd,
			NextCheck: nextCheck,
			Details: map[string]interface{}{
				"audit_retention_days": int(s.cfg.AuditRetention.Hours() / 24),
			},
		},
	}

	certSnapshot, err := s.certificateScan(ctx, dayEnd, nextCheck)
	if err != nil {
		return err
	}
	snapshots = append(snapshots, certSnapshot)

	for _, snapshot := range snapshots {
		if err := s.complianceRepo.UpsertSnapshot(ctx, snapshot); err != nil {
			return err
		}
	}

	s.log.Info("Daily compliance report written",
		"day", dayStart.Format("2006-01-02"),
		"threats", sumCounts(threatsBySeverity),
		"violations", sumCounts(violationsByType))
	return nil
}

// certificateScan raises an alert for every verified certificate expiring
// within the configured window and summarizes the result as a snapshot.
func (s *sweeperService) certificateScan(ctx context.Context, checkedAt, nextCheck time.Time) (*domain.ComplianceSnapshot, error) {
	expiring, err := s.complianceRepo.ExpiringVerified(ctx, s.now().Add(s.cfg.CertExpiryWindow))
	if err != nil {
		return nil, err
	}

	for _, cert := range expiring {
		alert := &domain.CertificateAlert{
			CertificateID: cert.ID,
			HolderID:      cert.HolderID,
			ExpiresAt:     cert.ExpiresAt,
		}
		if err := s.complianceRepo.CreateAlert(ctx, alert); err != nil {
			return nil, err
		}
	}

	status := domain.ComplianceStatusCompliant
	if len(expiring) > 0 {
		status = domain.ComplianceStatusAttention
	}
	return &domain.ComplianceSnapshot{
		Category:   domain.ComplianceCertificateValidity,
		Status:     status,
		Violations: len(expiring),
		RiskScore:  float64(len(expiring)),
		CheckedAt:  checkedAt,
		NextCheck:  nextCheck,
		Details: map[string]interface{}{
			"expiring_within_days": int(s.cfg.CertExpiryWindow.Hours() / 24),
		},
	}, nil
}

func abusePreventionSnapshot(violationsByType map[string]int64, checkedAt, nextCheck time.Time) *domain.ComplianceSnapshot {
	total := sumCounts(violationsByType)
	status := domain.ComplianceStatusCompliant
	switch {
	case total > 100:
		status = domain.ComplianceStatusViolation
	case total > 10:
		status = domain.ComplianceStatusAttention
	}
	return &domain.ComplianceSnapshot{
		Category:   domain.ComplianceAbusePrevention,
		Status:     status,
		Violations: int(total),
		RiskScore:  float64(total),
		CheckedAt:  checkedAt,
		NextCheck:  nextCheck,
		Details:    countDetails(violationsByType),
	}
}

func threatActivitySnapshot(bySeverity, byType map[string]int64, checkedAt, nextCheck time.Time) *domain.ComplianceSnapshot {
	status := domain.ComplianceStatusCompliant
	if bySeverity[domain.RiskHigh] > 0 {
		status = domain.ComplianceStatusAttention
	}
	if bySeverity[domain.RiskCritical] > 0 {
		status = domain.ComplianceStatusViolation
	}

	// Criticals weigh an order of magnitude more than highs in the score.
	score := float64(bySeverity[domain.RiskCritical])*10 +
		float64(bySeverity[domain.RiskHigh])*3 +
		float64(bySeverity[domain.RiskMedium])

	details := countDetails(byType)
	details["by_severity"] = bySeverity

	return &domain.ComplianceSnapshot{
		Category:   domain.ComplianceThreatActivity,
		Status:     status,
		Violations: int(sumCounts(bySeverity)),
		RiskScore:  score,
		CheckedAt:  checkedAt,
		NextCheck:  nextCheck,
		Details:    details,
	}
}

func sumCounts(counts map[string]int64) int64 {
	var total int64
	for _, n := range counts {
		total += n
	}
	return total
}

func countDetails(counts map[string]int64) map[string]interface{} {
	details := make(map[string]interface{}, len(counts))
	for key, n := range counts {
		details[key] = n
	}
	return details
}
