package tests

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"fleetaudit/internal/domain"
	"fleetaudit/internal/repository"
	"fleetaudit/internal/storage"
)

// ──────────────────────────────────────────────
// MOCK TRIP REPOSITORY
// ──────────────────────────────────────────────

// MockTripRepository is a mock implementation of TripRepository.
type MockTripRepository struct {
	mu    sync.RWMutex
	trips map[string]*domain.Trip

	// Counters for verification
	ListCallCount        int32
	UpdateCallCount      int32
	UpdateAuditCallCount int32
	BatchCallCount       int32

	// Error injection
	ListError        error
	UpdateError      error
	UpdateAuditError error
}

// NewMockTripRepository creates a new mock trip repository.
func NewMockTripRepository() *MockTripRepository {
	return &MockTripRepository{
		trips: make(map[string]*domain.Trip),
	}
}

// AddTrip adds a copy of trip to the mock repository.
func (m *MockTripRepository) AddTrip(trip *domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *trip
	m.trips[trip.ID] = &copy
}

func (m *MockTripRepository) List(ctx context.Context, filter repository.TripFilter) ([]*domain.Trip, error) {
	atomic.AddInt32(&m.ListCallCount, 1)
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	drivers := make(map[string]bool, len(filter.DriverIDs))
	for _, id := range filter.DriverIDs {
		drivers[id] = true
	}

	var out []*domain.Trip
	for _, t := range m.trips {
		day := t.Day()
		if !filter.From.IsZero() && day.Before(domain.Day(filter.From)) {
			continue
		}
		if !filter.To.IsZero() && day.After(domain.Day(filter.To)) {
			continue
		}
		if len(drivers) > 0 && !drivers[t.DriverID] {
			continue
		}
		if filter.AnomalyOnly && !t.AnomalyFlag {
			continue
		}
		copy := *t
		out = append(out, &copy)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *MockTripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *trip
	return &copy, nil
}

func (m *MockTripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trips[trip.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *trip
	m.trips[trip.ID] = &copy
	return nil
}

func (m *MockTripRepository) UpdateAudit(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.UpdateAuditCallCount, 1)
	if m.UpdateAuditError != nil {
		return m.UpdateAuditError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.trips[trip.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.AnomalyFlag = trip.AnomalyFlag
	stored.AuditStatus = trip.AuditStatus
	stored.Override = trip.Override
	return nil
}

// UpdateAuditBatch applies every update or none of them.
func (m *MockTripRepository) UpdateAuditBatch(ctx context.Context, trips []*domain.Trip) error {
	atomic.AddInt32(&m.BatchCallCount, 1)
	if m.UpdateAuditError != nil {
		return m.UpdateAuditError
	}

	m.mu.RLock()
	for _, t := range trips {
		if _, ok := m.trips[t.ID]; !ok {
			m.mu.RUnlock()
			return repository.ErrNotFound
		}
	}
	m.mu.RUnlock()

	for _, t := range trips {
		if err := m.UpdateAudit(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// GetTrip returns the stored trip (for test assertions).
func (m *MockTripRepository) GetTrip(id string) *domain.Trip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trips[id]
}

// ──────────────────────────────────────────────
// MOCK DRIVER REPOSITORY
// ──────────────────────────────────────────────

// MockDriverRepository is a mock implementation of DriverRepository.
type MockDriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]domain.Driver

	GetAllError error
}

// NewMockDriverRepository creates a new mock driver repository.
func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{
		drivers: make(map[string]domain.Driver),
	}
}

// AddDriver adds a driver to the mock repository.
func (m *MockDriverRepository) AddDriver(driver domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	driver, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &driver, nil
}

func (m *MockDriverRepository) GetAll(ctx context.Context) ([]domain.Driver, error) {
	if m.GetAllError != nil {
		return nil, m.GetAllError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Driver, 0, len(m.drivers))
	for _, d := range m.drivers {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ──────────────────────────────────────────────
// MOCK ASSIGNMENT REPOSITORY
// ──────────────────────────────────────────────

// MockAssignmentRepository is a mock implementation of AssignmentRepository.
type MockAssignmentRepository struct {
	mu          sync.RWMutex
	assignments []domain.PlatformAssignment

	ListError error
}

// NewMockAssignmentRepository creates a new mock assignment repository.
func NewMockAssignmentRepository() *MockAssignmentRepository {
	return &MockAssignmentRepository{}
}

// Assign records that driverID may take trips on platform.
func (m *MockAssignmentRepository) Assign(driverID, platform string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignments = append(m.assignments, domain.PlatformAssignment{DriverID: driverID, Platform: platform})
}

func (m *MockAssignmentRepository) List(ctx context.Context, driverIDs []string) ([]domain.PlatformAssignment, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	want := make(map[string]bool, len(driverIDs))
	for _, id := range driverIDs {
		want[id] = true
	}
	var out []domain.PlatformAssignment
	for _, a := range m.assignments {
		if len(want) == 0 || want[a.DriverID] {
			out = append(out, a)
		}
	}
	return out, nil
}

// ──────────────────────────────────────────────
// MOCK PAYMENT REPOSITORY
// ──────────────────────────────────────────────

// MockPaymentRepository is a mock implementation of PaymentRepository.
type MockPaymentRepository struct {
	mu       sync.RWMutex
	payments []domain.Payment
}

// NewMockPaymentRepository creates a new mock payment repository.
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{}
}

// AddPayment adds a payment to the mock repository.
func (m *MockPaymentRepository) AddPayment(payment domain.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments = append(m.payments, payment)
}

func (m *MockPaymentRepository) ListByStatus(ctx context.Context, statuses ...domain.PaymentStatus) ([]domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Payment
	for _, p := range m.payments {
		if len(statuses) == 0 {
			out = append(out, p)
			continue
		}
		for _, s := range statuses {
			if p.Status == s {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

// ──────────────────────────────────────────────
// MOCK ATTENDANCE REPOSITORY
// ──────────────────────────────────────────────

// MockAttendanceRepository is a mock implementation of AttendanceRepository.
type MockAttendanceRepository struct {
	mu      sync.RWMutex
	records []domain.Attendance
}

// NewMockAttendanceRepository creates a new mock attendance repository.
func NewMockAttendanceRepository() *MockAttendanceRepository {
	return &MockAttendanceRepository{}
}

// AddRecord adds an attendance record to the mock repository.
func (m *MockAttendanceRepository) AddRecord(record domain.Attendance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
}

func (m *MockAttendanceRepository) ListBetween(ctx context.Context, from, to time.Time, driverIDs []string) ([]domain.Attendance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	want := make(map[string]bool, len(driverIDs))
	for _, id := range driverIDs {
		want[id] = true
	}
	var out []domain.Attendance
	for _, r := range m.records {
		day := domain.Day(r.Date)
		if day.Before(domain.Day(from)) || day.After(domain.Day(to)) {
			continue
		}
		if len(want) > 0 && !want[r.DriverID] {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// ──────────────────────────────────────────────
// MOCK CACHE STORE
// ──────────────────────────────────────────────

// MockCacheStore is an in-memory CacheStore. Values round-trip through JSON
// like the Redis implementation.
type MockCacheStore struct {
	mu         sync.Mutex
	dashboards map[string][]byte
	trips      map[string][]byte

	// Counters
	DashboardHits         int32
	TripAuditHits         int32
	InvalidateCallCount   int32
	InvalidatedTripAudits []string
}

// NewMockCacheStore creates a new mock cache store.
func NewMockCacheStore() *MockCacheStore {
	return &MockCacheStore{
		dashboards: make(map[string][]byte),
		trips:      make(map[string][]byte),
	}
}

func (m *MockCacheStore) GetDashboard(ctx context.Context, key string, dst any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.dashboards[key]
	if !ok {
		return false, nil
	}
	atomic.AddInt32(&m.DashboardHits, 1)
	return true, json.Unmarshal(data, dst)
}

func (m *MockCacheStore) SetDashboard(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dashboards[key] = data
	return nil
}

func (m *MockCacheStore) InvalidateDashboards(ctx context.Context) error {
	atomic.AddInt32(&m.InvalidateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dashboards = make(map[string][]byte)
	return nil
}

func (m *MockCacheStore) GetTripAudit(ctx context.Context, tripID string, dst any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.trips[tripID]
	if !ok {
		return false, nil
	}
	atomic.AddInt32(&m.TripAuditHits, 1)
	return true, json.Unmarshal(data, dst)
}

func (m *MockCacheStore) SetTripAudit(ctx context.Context, tripID string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[tripID] = data
	return nil
}

func (m *MockCacheStore) InvalidateTripAudit(ctx context.Context, tripIDs ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range tripIDs {
		delete(m.trips, id)
		m.InvalidatedTripAudits = append(m.InvalidatedTripAudits, id)
	}
	return nil
}

// DashboardCount returns the number of cached dashboards.
func (m *MockCacheStore) DashboardCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.dashboards)
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStore.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]time.Time

	// Counters
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]time.Time),
	}
}

func (m *MockLockStore) AcquireTripLock(ctx context.Context, tripID string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := "lock:trip:" + tripID
	if expiry, exists := m.locks[key]; exists {
		if time.Now().Before(expiry) {
			return false, nil // Lock still held.
		}
	}

	m.locks[key] = time.Now().Add(ttl)
	return true, nil
}

func (m *MockLockStore) ReleaseTripLock(ctx context.Context, tripID string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, "lock:trip:"+tripID)
	return nil
}

// Hold takes the lock for tripID as another reviewer would.
func (m *MockLockStore) Hold(tripID string, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks["lock:trip:"+tripID] = time.Now().Add(ttl)
}

// IsLocked checks if a trip is locked (for test assertions).
func (m *MockLockStore) IsLocked(tripID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, exists := m.locks["lock:trip:"+tripID]
	return exists && time.Now().Before(expiry)
}

// ──────────────────────────────────────────────
// MOCK ARCHIVER
// ──────────────────────────────────────────────

// MockArchiver records archive requests instead of uploading them.
type MockArchiver struct {
	mu       sync.Mutex
	Requests []storage.ArchiveRequest

	ArchiveError error
}

// NewMockArchiver creates a new mock archiver.
func NewMockArchiver() *MockArchiver {
	return &MockArchiver{}
}

func (m *MockArchiver) Archive(ctx context.Context, req storage.ArchiveRequest) (*storage.ArchiveResult, error) {
	if m.ArchiveError != nil {
		return nil, m.ArchiveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, req)
	return &storage.ArchiveResult{
		Bucket:    "test-bucket",
		ReportKey: "reports/" + req.RunID + "/report.md",
		CSVKey:    "reports/" + req.RunID + "/trips.csv",
	}, nil
}

// ──────────────────────────────────────────────
// HELPER ERRORS
// ──────────────────────────────────────────────

var (
	ErrMockDBConnection = errors.New("mock: database connection failed")
	ErrMockRedis        = errors.New("mock: redis unavailable")
)
