package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetaudit/internal/domain"
)

func TestAuditBatch(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	clean := newTrip("clean", 40)
	shortTrip := newTrip("short", 2)
	shared1 := newTrip("shared-1", 40)
	shared1.PhotoRef = "photos/same.jpg"
	shared2 := newTrip("shared-2", 40)
	shared2.PhotoRef = "photos/same.jpg"
	offPlatform := newTrip("off-platform", 40)
	offPlatform.Platform = "ola"
	invalid := newTrip("invalid", 40)
	invalid.DriverID = ""

	trips := []*domain.Trip{clean, shortTrip, shared1, shared2, offPlatform, invalid}

	batch := engine.AuditBatch(trips, BatchInput{
		Assignments: []domain.PlatformAssignment{{DriverID: "driver-1", Platform: "uber"}},
		Attendance:  []domain.Attendance{{DriverID: "driver-1", Date: day, Status: domain.AttendanceStatusPresent}},
	})

	require.Len(t, batch.Results, 5)
	require.Len(t, batch.Trips, 5)
	require.Len(t, batch.Rejected, 1)
	assert.Equal(t, "invalid", batch.Rejected[0].TripID)
	require.Len(t, batch.ImageReuse, 1)
	assert.Empty(t, batch.DailyVolume)

	byID := make(map[string]Result)
	for _, r := range batch.Results {
		byID[r.TripID] = r
	}

	assert.Empty(t, byID["clean"].Anomalies)
	assert.Equal(t, domain.AuditStatusVerified, byID["clean"].Status)
	assert.Equal(t, VerdictClean, byID["clean"].Verdict)

	assert.Equal(t, []Rule{RuleVeryLowDistance}, Rules(byID["short"].Anomalies))
	assert.Equal(t, VerdictWarning, byID["short"].Verdict)
	assert.True(t, byID["short"].NeedsReview())

	assert.Equal(t, []Rule{RuleRepeatedImage}, Rules(byID["shared-1"].Anomalies))
	assert.Equal(t, []Rule{RuleRepeatedImage}, Rules(byID["shared-2"].Anomalies))
	assert.Equal(t, VerdictCritical, byID["shared-2"].Verdict)

	assert.Equal(t, []Rule{RulePlatformMismatch}, Rules(byID["off-platform"].Anomalies))

	for _, trip := range batch.Trips {
		assert.Equal(t, len(byID[trip.ID].Anomalies) > 0, trip.AnomalyFlag, trip.ID)
		assert.Equal(t, byID[trip.ID].Status, trip.AuditStatus, trip.ID)
	}

	assert.False(t, shortTrip.AnomalyFlag, "input trips must not change")
	assert.Empty(t, shortTrip.AuditStatus)
}

func TestAuditBatch_NilInputsSkipCollectionChecks(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	trip := newTrip("t", 40)
	trip.Platform = "unassigned"

	batch := engine.AuditBatch([]*domain.Trip{trip}, BatchInput{})
	require.Len(t, batch.Results, 1)
	assert.Empty(t, batch.Results[0].Anomalies)
}

func TestAuditBatch_OverrideSurvivesUnchangedTrip(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	trip, err := Override(newTrip("t", 2), domain.AuditStatusVerified, "ops", time.Now())
	require.NoError(t, err)

	batch := engine.AuditBatch([]*domain.Trip{trip}, BatchInput{})
	require.Len(t, batch.Results, 1)
	assert.Equal(t, domain.AuditStatusVerified, batch.Results[0].Status)
	assert.True(t, batch.Results[0].Overridden)
	assert.True(t, batch.Trips[0].AnomalyFlag)
	assert.NotNil(t, batch.Trips[0].Override)
}

func TestAuditBatch_DailyVolume(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.MaxTripsPerDay = 1
	engine, err := NewEngine(cfg)
	require.NoError(t, err)

	a := newTrip("a", 40)
	b := newTrip("b", 40)

	batch := engine.AuditBatch([]*domain.Trip{a, b}, BatchInput{})
	require.Len(t, batch.DailyVolume, 1)
	for _, r := range batch.Results {
		assert.Equal(t, []Rule{RuleExcessiveDailyTrips}, Rules(r.Anomalies))
		assert.Equal(t, domain.AuditStatusNeedsReview, r.Status)
	}
}

func TestAuditTrip(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	trip := newTrip("t", 500)
	trip.FuelCost = domain.Float(3000)

	res, classified, err := engine.AuditTrip(trip)
	require.NoError(t, err)
	assert.Equal(t, []Rule{RuleHighDistance, RuleHighFuelUsage}, Rules(res.Anomalies))
	assert.Equal(t, VerdictCritical, res.Verdict)
	assert.True(t, classified.AnomalyFlag)

	trip.DriverID = ""
	_, _, err = engine.AuditTrip(trip)
	assert.ErrorIs(t, err, domain.ErrInvalidRecord)
}
