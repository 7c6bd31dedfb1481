package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"security_monitor/internal/domain"
	"security_monitor/internal/repository"
)

// fakeRateLimitRepo mirrors the window semantics of the SQL implementation
// behind a mutex, so service tests can exercise the atomicity contract.
type fakeRateLimitRepo struct {
	mu      sync.Mutex
	windows map[string]*domain.RateLimitWindow
}

func newFakeRateLimitRepo() *fakeRateLimitRepo {
	return &fakeRateLimitRepo{windows: make(map[string]*domain.RateLimitWindow)}
}

func (f *fakeRateLimitRepo) Consume(ctx context.Context, userID uuid.UUID, operation string, limit int, window time.Duration, now time.Time) (*repository.ConsumeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := userID.String() + "/" + operation
	w, ok := f.windows[key]
	if !ok {
		if limit <= 0 {
			return &repository.ConsumeResult{Allowed: false, Count: 0, Attempts: 1}, nil
		}
		f.windows[key] = &domain.RateLimitWindow{
			UserID: userID, Operation: operation,
			WindowStart: now, RequestCount: 1, LastRequest: now,
		}
		return &repository.ConsumeResult{Allowed: true, Count: 1, Attempts: 1}, nil
	}

	if now.Sub(w.WindowStart) >= window {
		w.WindowStart = now
		w.RequestCount = 0
	}
	if w.RequestCount >= limit {
		return &repository.ConsumeResult{Allowed: false, Count: w.RequestCount, Attempts: w.RequestCount + 1}, nil
	}
	w.RequestCount++
	w.LastRequest = now
	return &repository.ConsumeResult{Allowed: true, Count: w.RequestCount, Attempts: w.RequestCount}, nil
}

func (f *fakeRateLimitRepo) PurgeInactive(ctx context.Context, cutoff time.Time, pageSize int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var deleted int64
	for key, w := range f.windows {
		if deleted >= int64(pageSize) {
			break
		}
		if w.LastRequest.Before(cutoff) {
			delete(f.windows, key)
			deleted++
		}
	}
	return deleted, nil
}

type fakeViolationRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*domain.ViolationRecord
}

func newFakeViolationRepo() *fakeViolationRepo {
	return &fakeViolationRepo{records: make(map[uuid.UUID]*domain.ViolationRecord)}
}

func (f *fakeViolationRepo) Record(ctx context.Context, userID uuid.UUID, event domain.ViolationEvent) (*domain.ViolationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	record, ok := f.records[userID]
	if !ok {
		record = &domain.ViolationRecord{UserID: userID}
		f.records[userID] = record
	}
	record.Count++
	record.Severity = domain.SeverityForCount(record.Count)
	record.History = append(record.History, event)
	if len(record.History) > domain.MaxViolationHistory {
		record.History = record.History[len(record.History)-domain.MaxViolationHistory:]
	}
	record.UpdatedAt = event.Timestamp

	copied := *record
	return &copied, nil
}

func (f *fakeViolationRepo) Get(ctx context.Context, userID uuid.UUID) (*domain.ViolationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if record, ok := f.records[userID]; ok {
		copied := *record
		return &copied, nil
	}
	return &domain.ViolationRecord{UserID: userID, Severity: domain.SeverityLow}, nil
}

func (f *fakeViolationRepo) CountByTypeBetween(ctx context.Context, from, to time.Time) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	counts := make(map[string]int64)
	for _, record := range f.records {
		for _, event := range record.History {
			if !event.Timestamp.Before(from) && event.Timestamp.Before(to) {
				counts[event.Type]++
			}
		}
	}
	return counts, nil
}

// setCount pre-seeds a violation count without history, for penalty tests.
func (f *fakeViolationRepo) setCount(userID uuid.UUID, count int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[userID] = &domain.ViolationRecord{
		UserID:   userID,
		Count:    count,
		Severity: domain.SeverityForCount(count),
	}
}

type fakeAuditRepo struct {
	mu        sync.Mutex
	entries   []domain.AuditEntry
	nextID    int64
	appendErr error
}

func newFakeAuditRepo() *fakeAuditRepo {
	return &fakeAuditRepo{}
}

func (f *fakeAuditRepo) Append(ctx context.Context, entry *domain.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.nextID++
	entry.ID = f.nextID
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditRepo) ListRecent(ctx context.Context, userID uuid.UUID, since time.Time, limit int) ([]domain.AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []domain.AuditEntry
	for i := len(f.entries) - 1; i >= 0 && len(result) < limit; i-- {
		e := f.entries[i]
		if e.UserID == userID && !e.Timestamp.Before(since) {
			result = append(result, e)
		}
	}
	return result, nil
}

func (f *fakeAuditRepo) CountWindow(ctx context.Context, userID uuid.UUID, since time.Time) (*repository.WindowStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stats := &repository.WindowStats{}
	for _, e := range f.entries {
		if e.UserID != userID || e.Timestamp.Before(since) {
			continue
		}
		stats.Total++
		if e.Action == domain.ActionRead {
			stats.Reads++
		}
		if e.ResourceType == "certificate" {
			stats.CertEvents++
		}
	}
	return stats, nil
}

func (f *fakeAuditRepo) DeleteBefore(ctx context.Context, cutoff time.Time, pageSize int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var kept []domain.AuditEntry
	var deleted int64
	for _, e := range f.entries {
		if e.Timestamp.Before(cutoff) && deleted < int64(pageSize) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	f.entries = kept
	return deleted, nil
}

type fakeThreatRepo struct {
	mu       sync.Mutex
	records  []domain.ThreatRecord
	countErr error
}

func newFakeThreatRepo() *fakeThreatRepo {
	return &fakeThreatRepo{}
}

func (f *fakeThreatRepo) Create(ctx context.Context, record *domain.ThreatRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	record.ID = int64(len(f.records) + 1)
	f.records = append(f.records, *record)
	return nil
}

func (f *fakeThreatRepo) CountUnresolvedBySeverity(ctx context.Context) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	counts := make(map[string]int64)
	for _, r := range f.records {
		if !r.Resolved {
			counts[r.Severity]++
		}
	}
	return counts, nil
}

func (f *fakeThreatRepo) CountByTypeBetween(ctx context.Context, from, to time.Time) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	counts := make(map[string]int64)
	for _, r := range f.records {
		if !r.Timestamp.Before(from) && r.Timestamp.Before(to) {
			counts[r.ThreatType]++
		}
	}
	return counts, nil
}

func (f *fakeThreatRepo) CountBySeverityBetween(ctx context.Context, from, to time.Time) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.countErr != nil {
		return nil, f.countErr
	}
	counts := make(map[string]int64)
	for _, r := range f.records {
		if !r.Timestamp.Before(from) && r.Timestamp.Before(to) {
			counts[r.Severity]++
		}
	}
	return counts, nil
}

type fakeUserRepo struct {
	mu        sync.Mutex
	users     map[uuid.UUID]*domain.User
	suspended map[uuid.UUID]int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:     make(map[uuid.UUID]*domain.User),
		suspended: make(map[uuid.UUID]int),
	}
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user, ok := f.users[id]; ok {
		copied := *user
		return &copied, nil
	}
	return &domain.User{ID: id}, nil
}

func (f *fakeUserRepo) Suspend(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[id]
	if !ok {
		user = &domain.User{ID: id}
		f.users[id] = user
	}
	if user.Suspended {
		return false, nil
	}
	user.Suspended = true
	user.SuspensionReason = &reason
	f.suspended[id]++
	return true, nil
}

func (f *fakeUserRepo) suspendCalls(id uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.suspended[id]
}

type fakeLockRepo struct {
	mu   sync.Mutex
	held map[string]bool
}

func newFakeLockRepo() *fakeLockRepo {
	return &fakeLockRepo{held: make(map[string]bool)}
}

func (f *fakeLockRepo) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held[key] {
		return false, nil
	}
	f.held[key] = true
	return true, nil
}

func (f *fakeLockRepo) Release(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.held, key)
	return nil
}

type fakeComplianceRepo struct {
	mu        sync.Mutex
	snapshots map[string]domain.ComplianceSnapshot
	certs     []domain.Certificate
	alerts    map[string]domain.CertificateAlert
}

func newFakeComplianceRepo() *fakeComplianceRepo {
	return &fakeComplianceRepo{
		snapshots: make(map[string]domain.ComplianceSnapshot),
		alerts:    make(map[string]domain.CertificateAlert),
	}
}

func (f *fakeComplianceRepo) UpsertSnapshot(ctx context.Context, snapshot *domain.ComplianceSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots[snapshot.Category] = *snapshot
	return nil
}

func (f *fakeComplianceRepo) ExpiringVerified(ctx context.Context, before time.Time) ([]domain.Certificate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []domain.Certificate
	for _, c := range f.certs {
		if c.Verified && !c.ExpiresAt.After(before) {
			result = append(result, c)
		}
	}
	return result, nil
}

func (f *fakeComplianceRepo) CreateAlert(ctx context.Context, alert *domain.CertificateAlert) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := alert.CertificateID.String() + "/" + alert.ExpiresAt.Format(time.RFC3339)
	if _, ok := f.alerts[key]; ok {
		return nil
	}
	f.alerts[key] = *alert
	return nil
}
