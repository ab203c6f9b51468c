package tests

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fleetaudit/internal/audit"
	"fleetaudit/internal/domain"
	"fleetaudit/internal/logger"
	"fleetaudit/internal/service"
)

var auditDay = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

// auditFixture wires an AuditService to fresh mocks.
type auditFixture struct {
	trips       *MockTripRepository
	assignments *MockAssignmentRepository
	attendance  *MockAttendanceRepository
	cache       *MockCacheStore
	locks       *MockLockStore
	notifier    *service.NotificationService
	svc         *service.AuditService
}

func newAuditFixture(t *testing.T) *auditFixture {
	t.Helper()

	engine, err := audit.NewEngine(audit.DefaultConfig())
	require.NoError(t, err)

	f := &auditFixture{
		trips:       NewMockTripRepository(),
		assignments: NewMockAssignmentRepository(),
		attendance:  NewMockAttendanceRepository(),
		cache:       NewMockCacheStore(),
		locks:       NewMockLockStore(),
		notifier:    service.NewNotificationService(logger.Discard()),
	}
	f.svc = service.NewAuditService(engine, f.trips, f.assignments, f.attendance, f.cache, f.locks, f.notifier, logger.Discard()).
		WithClock(func() time.Time { return auditDay.Add(12 * time.Hour) })
	return f
}

// addDriver registers driverID on uber with attendance for auditDay.
func (f *auditFixture) addDriver(driverID string) {
	f.assignments.Assign(driverID, "uber")
	f.attendance.AddRecord(domain.Attendance{
		ID:       "att-" + driverID,
		DriverID: driverID,
		Date:     auditDay,
		Status:   domain.AttendanceStatusPresent,
	})
}

// cleanTrip returns a trip that passes every default rule.
func cleanTrip(id, driverID string) *domain.Trip {
	return &domain.Trip{
		ID:          id,
		DriverID:    driverID,
		Date:        auditDay,
		DistanceKm:  50,
		FuelCost:    domain.Float(500),
		Amount:      domain.Float(800),
		Platform:    "uber",
		Destination: "Airport",
		PhotoRef:    "photos/" + id + ".jpg",
	}
}

func hasRule(anomalies []audit.Anomaly, rule audit.Rule) bool {
	for _, a := range anomalies {
		if a.Rule == rule {
			return true
		}
	}
	return false
}

func resultFor(results []audit.Result, tripID string) (audit.Result, bool) {
	for _, r := range results {
		if r.TripID == tripID {
			return r, true
		}
	}
	return audit.Result{}, false
}

func notificationTypes(ns []service.Notification) []service.NotificationType {
	out := make([]service.NotificationType, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.Type)
	}
	return out
}
