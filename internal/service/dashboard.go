package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"fleetaudit/internal/aggregate"
	"fleetaudit/internal/audit"
	"fleetaudit/internal/domain"
	"fleetaudit/internal/redis"
	"fleetaudit/internal/repository"
)

// Dashboard is the full fleet dashboard view.
type Dashboard struct {
	GeneratedAt     time.Time                   `json:"generated_at"`
	Fleet           aggregate.Fleet             `json:"fleet"`
	Rankings        []aggregate.DriverRanking   `json:"rankings"`
	Daily           []aggregate.DailyBucket     `json:"daily"`
	RecentAnomalies []TripView                  `json:"recent_anomalies"`
	FuelEfficiency  []aggregate.EfficiencyPoint `json:"fuel_efficiency"`
	Platforms       []aggregate.PlatformShare   `json:"platforms"`
	Attendance      aggregate.Attendance        `json:"attendance"`
	Rejected        []RejectedTrip              `json:"rejected,omitempty"`
}

// DashboardRequest sizes the dashboard sections. Zero values use the defaults.
type DashboardRequest struct {
	Days       int
	Top        int
	Recent     int
	Efficiency int
}

func (r DashboardRequest) withDefaults() DashboardRequest {
	if r.Days <= 0 {
		r.Days = aggregate.DefaultSeriesDays
	}
	if r.Top <= 0 {
		r.Top = aggregate.DefaultRankingSize
	}
	if r.Recent <= 0 {
		r.Recent = aggregate.DefaultRecentLimit
	}
	if r.Efficiency <= 0 {
		r.Efficiency = aggregate.DefaultEfficiencyWindow
	}
	return r
}

func (r DashboardRequest) validate() error {
	limits := []struct {
		field string
		value int
		max   int
	}{
		{"days", r.Days, aggregate.MaxSeriesDays},
		{"top", r.Top, aggregate.MaxRankingSize},
		{"recent", r.Recent, aggregate.MaxRecentLimit},
		{"efficiency", r.Efficiency, aggregate.MaxEfficiencyWindow},
	}
	for _, l := range limits {
		if l.value < 0 || l.value > l.max {
			return eris.Wrapf(ErrInvalidDashboardSize, "%s must be between 0 and %d", l.field, l.max)
		}
	}
	return nil
}

func (r DashboardRequest) cacheKey() string {
	return fmt.Sprintf("%d:%d:%d:%d", r.Days, r.Top, r.Recent, r.Efficiency)
}

// DashboardService builds the dashboard from the stored trips.
type DashboardService struct {
	tripRepo       repository.TripRepository
	driverRepo     repository.DriverRepository
	paymentRepo    repository.PaymentRepository
	attendanceRepo repository.AttendanceRepository
	cacheStore     redis.CacheStoreInterface
	cacheTTL       time.Duration
	fuelPrice      float64
	log            logrus.FieldLogger
	now            func() time.Time
}

// NewDashboardService creates a new DashboardService. paymentRepo,
// attendanceRepo and cacheStore may be nil.
func NewDashboardService(
	tripRepo repository.TripRepository,
	driverRepo repository.DriverRepository,
	paymentRepo repository.PaymentRepository,
	attendanceRepo repository.AttendanceRepository,
	cacheStore redis.CacheStoreInterface,
	cfg audit.Config,
	log logrus.FieldLogger,
) *DashboardService {
	return &DashboardService{
		tripRepo:       tripRepo,
		driverRepo:     driverRepo,
		paymentRepo:    paymentRepo,
		attendanceRepo: attendanceRepo,
		cacheStore:     cacheStore,
		cacheTTL:       redis.DashboardCacheTTL,
		fuelPrice:      cfg.FuelPricePerLiter,
		log:            log,
		now:            time.Now,
	}
}

// WithCacheTTL sets how long a built dashboard is served from cache.
func (s *DashboardService) WithCacheTTL(ttl time.Duration) *DashboardService {
	if ttl > 0 {
		s.cacheTTL = ttl
	}
	return s
}

// WithClock replaces the service clock.
func (s *DashboardService) WithClock(now func() time.Time) *DashboardService {
	s.now = now
	return s
}

// GetDashboard returns the dashboard, served from cache when possible.
// Invalid trip records are left out of every section and listed in Rejected.
func (s *DashboardService) GetDashboard(ctx context.Context, req DashboardRequest) (*Dashboard, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	req = req.withDefaults()
	key := req.cacheKey()

	if s.cacheStore != nil {
		var cached Dashboard
		if hit, err := s.cacheStore.GetDashboard(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	today := domain.Day(s.now())
	from := today.AddDate(0, 0, -(req.Days - 1))

	var (
		trips      []*domain.Trip
		drivers    []domain.Driver
		payments   []domain.Payment
		attendance []domain.Attendance
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		trips, err = s.tripRepo.List(gctx, repository.TripFilter{})
		return eris.Wrap(err, "dashboard: list trips")
	})
	g.Go(func() error {
		var err error
		drivers, err = s.driverRepo.GetAll(gctx)
		return eris.Wrap(err, "dashboard: list drivers")
	})
	if s.paymentRepo != nil {
		g.Go(func() error {
			var err error
			payments, err = s.paymentRepo.ListByStatus(gctx, domain.PaymentStatusPending)
			return eris.Wrap(err, "dashboard: list payments")
		})
	}
	if s.attendanceRepo != nil {
		g.Go(func() error {
			var err error
			attendance, err = s.attendanceRepo.ListBetween(gctx, from, today, nil)
			return eris.Wrap(err, "dashboard: list attendance")
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	trips, rejected := audit.PartitionValid(trips)
	var skipped []RejectedTrip
	for _, r := range rejected {
		s.log.WithField("trip_id", r.TripID).WithError(r.Err).Warn("dashboard: skipping invalid trip")
		skipped = append(skipped, RejectedTrip{TripID: r.TripID, Reason: r.Err.Error()})
	}

	recent := aggregate.RecentAnomalies(trips, req.Recent)
	views := make([]TripView, 0, len(recent))
	for _, t := range recent {
		views = append(views, NewTripView(t))
	}

	dashboard := &Dashboard{
		GeneratedAt:     s.now(),
		Fleet:           aggregate.FleetSummary(trips, drivers, payments),
		Rankings:        aggregate.DriverRankings(trips, drivers, req.Top),
		Daily:           aggregate.DailySeries(trips, req.Days, today),
		RecentAnomalies: views,
		FuelEfficiency:  aggregate.FuelEfficiency(trips, s.fuelPrice, req.Efficiency),
		Platforms:       aggregate.PlatformBreakdown(trips),
		Attendance:      aggregate.AttendanceStats(attendance),
		Rejected:        skipped,
	}

	if s.cacheStore != nil {
		if err := s.cacheStore.SetDashboard(ctx, key, dashboard, s.cacheTTL); err != nil {
			s.log.WithError(err).Warn("failed to cache dashboard")
		}
	}

	return dashboard, nil
}
