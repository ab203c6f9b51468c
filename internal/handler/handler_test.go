package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetaudit/internal/audit"
	"fleetaudit/internal/domain"
	"fleetaudit/internal/logger"
	"fleetaudit/internal/repository"
	"fleetaudit/internal/service"
	"fleetaudit/internal/tests"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testDay = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

type testServer struct {
	router *gin.Engine
	trips  *tests.MockTripRepository
	locks  *tests.MockLockStore
}

func newTestServer(t *testing.T, archive service.Archiver) *testServer {
	t.Helper()

	engine, err := audit.NewEngine(audit.DefaultConfig())
	require.NoError(t, err)

	log := logger.Discard()
	trips := tests.NewMockTripRepository()
	drivers := tests.NewMockDriverRepository()
	assignments := tests.NewMockAssignmentRepository()
	attendance := tests.NewMockAttendanceRepository()
	locks := tests.NewMockLockStore()

	drivers.AddDriver(domain.Driver{ID: "driver-1", Name: "Asha", Status: domain.DriverStatusActive})
	assignments.Assign("driver-1", "uber")
	attendance.AddRecord(domain.Attendance{DriverID: "driver-1", Date: testDay, Status: domain.AttendanceStatusPresent})

	trips.AddTrip(&domain.Trip{
		ID: "trip-1", DriverID: "driver-1", Date: testDay, DistanceKm: 50,
		FuelCost: domain.Float(500), Amount: domain.Float(800),
		Platform: "uber", PhotoRef: "photos/trip-1.jpg",
	})
	trips.AddTrip(&domain.Trip{
		ID: "trip-2", DriverID: "driver-1", Date: testDay, DistanceKm: 2,
		FuelCost: domain.Float(100), Amount: domain.Float(150),
		Platform: "uber", PhotoRef: "photos/trip-2.jpg",
	})

	auditService := service.NewAuditService(engine, trips, assignments, attendance, nil, locks, nil, log)
	dashboardService := service.NewDashboardService(trips, drivers, nil, attendance, nil, audit.DefaultConfig(), log).
		WithClock(func() time.Time { return testDay })
	reportService := service.NewReportService(auditService, trips, drivers, archive, log)

	router := gin.New()
	auditHandler := NewAuditHandler(auditService)
	router.POST("/v1/audit/run", auditHandler.RunAudit)
	router.GET("/v1/audit/trips/:id", auditHandler.GetTripAudit)
	router.POST("/v1/audit/trips/:id/override", auditHandler.OverrideStatus)
	router.PATCH("/v1/trips/:id", NewTripHandler(auditService).UpdateTrip)
	router.GET("/v1/dashboard", NewDashboardHandler(dashboardService).GetDashboard)
	reportHandler := NewReportHandler(reportService)
	router.GET("/v1/reports/audit", reportHandler.GetAuditReport)
	router.GET("/v1/reports/trips.csv", reportHandler.ExportCSV)
	router.POST("/v1/reports/archive", reportHandler.Archive)

	return &testServer{router: router, trips: trips, locks: locks}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestMapErrorToHTTPStatus(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		err  error
		want int
	}{
		{repository.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("lookup: %w", repository.ErrNotFound), http.StatusNotFound},
		{service.ErrInvalidTripID, http.StatusBadRequest},
		{service.ErrInvalidActor, http.StatusBadRequest},
		{service.ErrEmptyEdit, http.StatusBadRequest},
		{service.ErrInvalidDateRange, http.StatusBadRequest},
		{audit.ErrUnknownStatus, http.StatusBadRequest},
		{&audit.ConfigError{Field: "max_distance_km", Reason: "negative"}, http.StatusBadRequest},
		{ErrInvalidQuery, http.StatusBadRequest},
		{fmt.Errorf("dashboard: %w", service.ErrInvalidDashboardSize), http.StatusBadRequest},
		{&domain.InvalidRecordError{TripID: "t", Field: "amount", Reason: "negative amount"}, http.StatusUnprocessableEntity},
		{service.ErrOverrideInProgress, http.StatusConflict},
		{service.ErrArchiveNotConfigured, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, mapErrorToHTTPStatus(tc.err), tc.err.Error())
	}
}

func TestGetTripAudit(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)

	w := s.do(http.MethodGet, "/v1/audit/trips/trip-2", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got service.TripAudit
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "trip-2", got.Trip.ID)
	assert.Equal(t, domain.AuditStatusNeedsReview, got.Result.Status)
	require.NotEmpty(t, got.Result.Anomalies)
	assert.Equal(t, audit.RuleVeryLowDistance, got.Result.Anomalies[0].Rule)

	w = s.do(http.MethodGet, "/v1/audit/trips/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRunAudit(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)

	w := s.do(http.MethodPost, "/v1/audit/run", `{"from":"2024-05-01","to":"2024-05-01"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var run service.RunResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
	assert.Len(t, run.Results, 2)
	assert.Equal(t, 1, run.NeedsReview)
	assert.Equal(t, 2, run.Updated)
	assert.Equal(t, domain.AuditStatusVerified, s.trips.GetTrip("trip-1").AuditStatus)
}

func TestRunAudit_EmptyBodyAuditsEverything(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)

	w := s.do(http.MethodPost, "/v1/audit/run", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, s.trips.UpdateAuditCallCount)
}

func TestRunAudit_BadInput(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)

	testCases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"from":`},
		{"bad date", `{"from":"May 1"}`},
		{"inverted range", `{"from":"2024-05-02","to":"2024-05-01"}`},
		{"invalid config", `{"config":{"max_distance_km":-1}}`},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/v1/audit/run", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
	assert.EqualValues(t, 0, s.trips.UpdateAuditCallCount)
}

func TestOverrideStatus(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)

	w := s.do(http.MethodPost, "/v1/audit/trips/trip-2/override", `{"status":"verified","actor":"alice"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var got service.TripAudit
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.True(t, got.Result.Overridden)
	require.NotNil(t, got.Trip.Override)
	assert.Equal(t, "alice", got.Trip.Override.Actor)

	w = s.do(http.MethodPost, "/v1/audit/trips/trip-2/override", `{"status":"approved","actor":"alice"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s.locks.Hold("trip-1", time.Minute)
	w = s.do(http.MethodPost, "/v1/audit/trips/trip-1/override", `{"status":"verified","actor":"bob"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdateTrip(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)

	w := s.do(http.MethodPatch, "/v1/trips/trip-2", `{"distance_km":40,"notes":"corrected"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var got service.TripAudit
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 40.0, got.Trip.DistanceKm)
	assert.Equal(t, domain.AuditStatusVerified, got.Result.Status)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPatch, "/v1/trips/trip-2", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPatch, "/v1/trips/trip-2", `{"date":"yesterday"}`).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, s.do(http.MethodPatch, "/v1/trips/trip-2", `{"amount":-5}`).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPatch, "/v1/trips/nope", `{"notes":"x"}`).Code)
}

func TestGetDashboard(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)

	w := s.do(http.MethodGet, "/v1/dashboard?days=7&top=1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got service.Dashboard
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 2, got.Fleet.TotalTrips)
	assert.Len(t, got.Daily, 7)
	assert.Len(t, got.Rankings, 1)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/v1/dashboard?days=-1", "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/v1/dashboard?top=many", "").Code)
}

func TestGetDashboard_RejectsOversizedSections(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)

	for _, query := range []string{
		"days=1000000000",
		"days=367",
		"top=101",
		"recent=5000",
		"efficiency=101",
	} {
		w := s.do(http.MethodGet, "/v1/dashboard?"+query, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, query)
	}

	w := s.do(http.MethodGet, "/v1/dashboard?days=366&top=100&recent=100&efficiency=100", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got service.Dashboard
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Len(t, got.Daily, 366)
}

func TestReports(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)

	w := s.do(http.MethodGet, "/v1/reports/audit?from=2024-05-01", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/markdown")
	assert.Contains(t, w.Body.String(), "- Total Trips: 2")

	w = s.do(http.MethodGet, "/v1/reports/trips.csv?driver=driver-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "trips.csv")
	assert.True(t, strings.HasPrefix(w.Body.String(), "Date,Driver,Platform"))

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/v1/reports/trips.csv?to=2024/05/01", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, s.do(http.MethodPost, "/v1/reports/archive", "").Code)
}

func TestArchiveReport(t *testing.T) {
	t.Parallel()

	archiver := tests.NewMockArchiver()
	s := newTestServer(t, archiver)

	w := s.do(http.MethodPost, "/v1/reports/archive", "")
	require.Equal(t, http.StatusCreated, w.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "test-bucket", got["bucket"])
	assert.NotEmpty(t, got["run_id"])
	assert.Len(t, archiver.Requests, 1)
}

func TestRunAudit_ConfigOverlaysServerThresholds(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)

	// Only the minimum distance changes; trip-1's 50km now falls below it.
	w := s.do(http.MethodPost, "/v1/audit/run", `{"dry_run":true,"config":{"min_distance_km":60}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var run service.RunResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
	assert.Equal(t, 2, run.NeedsReview)
	assert.EqualValues(t, 0, s.trips.UpdateAuditCallCount)
}
