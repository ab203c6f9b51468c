package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"fleetaudit/internal/audit"
	"fleetaudit/internal/domain"
	"fleetaudit/internal/redis"
	"fleetaudit/internal/report"
	"fleetaudit/internal/repository"
)

// DefaultLockTTL bounds how long a reviewer holds a trip lock.
const DefaultLockTTL = 10 * time.Second

// AuditService evaluates stored trips and persists their audit status.
type AuditService struct {
	engine         *audit.Engine
	tripRepo       repository.TripRepository
	assignmentRepo repository.AssignmentRepository
	attendanceRepo repository.AttendanceRepository
	cacheStore     redis.CacheStoreInterface
	lockStore      redis.LockStoreInterface
	notifier       *NotificationService
	log            logrus.FieldLogger
	lockTTL        time.Duration
	now            func() time.Time
}

// NewAuditService creates a new AuditService. assignmentRepo and
// attendanceRepo may be nil to skip their checks; cacheStore, lockStore and
// notifier may be nil.
func NewAuditService(
	engine *audit.Engine,
	tripRepo repository.TripRepository,
	assignmentRepo repository.AssignmentRepository,
	attendanceRepo repository.AttendanceRepository,
	cacheStore redis.CacheStoreInterface,
	lockStore redis.LockStoreInterface,
	notifier *NotificationService,
	log logrus.FieldLogger,
) *AuditService {
	return &AuditService{
		engine:         engine,
		tripRepo:       tripRepo,
		assignmentRepo: assignmentRepo,
		attendanceRepo: attendanceRepo,
		cacheStore:     cacheStore,
		lockStore:      lockStore,
		notifier:       notifier,
		log:            log,
		lockTTL:        DefaultLockTTL,
		now:            time.Now,
	}
}

// WithLockTTL sets how long override and edit locks are held at most.
func (s *AuditService) WithLockTTL(ttl time.Duration) *AuditService {
	if ttl > 0 {
		s.lockTTL = ttl
	}
	return s
}

// WithClock replaces the service clock.
func (s *AuditService) WithClock(now func() time.Time) *AuditService {
	s.now = now
	return s
}

// Engine returns the rule engine used for evaluation.
func (s *AuditService) Engine() *audit.Engine {
	return s.engine
}

// EvaluateTrip audits one stored trip without persisting the outcome.
func (s *AuditService) EvaluateTrip(ctx context.Context, tripID string) (*TripAudit, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	if s.cacheStore != nil {
		var cached TripAudit
		if hit, err := s.cacheStore.GetTripAudit(ctx, tripID, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	result, _, err := s.evaluate(ctx, s.engine, trip)
	if err != nil {
		return nil, err
	}

	if s.cacheStore != nil {
		if err := s.cacheStore.SetTripAudit(ctx, tripID, result); err != nil {
			s.log.WithError(err).WithField("trip_id", tripID).Warn("failed to cache trip audit")
		}
	}

	return result, nil
}

// RunRequest contains the parameters for an audit run.
type RunRequest struct {
	From      time.Time
	To        time.Time
	DriverIDs []string
	DryRun    bool
	Config    *audit.Config // overrides the engine thresholds for this run
}

// RejectedTrip is a trip left out of a run because it failed validation.
type RejectedTrip struct {
	TripID string `json:"trip_id"`
	Reason string `json:"reason"`
}

// RunResult is the outcome of an audit run.
type RunResult struct {
	RunID       string                `json:"run_id"`
	StartedAt   time.Time             `json:"started_at"`
	DryRun      bool                  `json:"dry_run"`
	Results     []audit.Result        `json:"results"`
	Rejected    []RejectedTrip        `json:"rejected"`
	ImageReuse  []audit.ImageReuse    `json:"image_reuse"`
	DailyVolume []audit.DailyVolume   `json:"daily_volume"`
	Summary     report.AnomalySummary `json:"summary"`
	NeedsReview int                   `json:"needs_review"`
	Updated     int                   `json:"updated"`
}

// RunAudit evaluates every trip matching the request and persists each
// changed audit status. Invalid records are reported and skipped.
func (s *AuditService) RunAudit(ctx context.Context, req RunRequest) (*RunResult, error) {
	if !req.From.IsZero() && !req.To.IsZero() && req.To.Before(req.From) {
		return nil, ErrInvalidDateRange
	}

	engine := s.engine
	if req.Config != nil {
		e, err := audit.NewEngine(*req.Config)
		if err != nil {
			return nil, err
		}
		engine = e
	}

	run := &RunResult{
		RunID:     uuid.New().String(),
		StartedAt: s.now(),
		DryRun:    req.DryRun,
	}
	log := s.log.WithField("run_id", run.RunID)

	trips, err := s.tripRepo.List(ctx, repository.TripFilter{
		From:      req.From,
		To:        req.To,
		DriverIDs: req.DriverIDs,
	})
	if err != nil {
		return nil, eris.Wrap(err, "audit run: list trips")
	}

	in, err := s.loadBatchInput(ctx, trips)
	if err != nil {
		return nil, err
	}

	batch := engine.AuditBatch(trips, in)
	run.Results = batch.Results
	run.ImageReuse = batch.ImageReuse
	run.DailyVolume = batch.DailyVolume
	run.Summary = report.Summarize(batch.Results)

	for _, r := range batch.Rejected {
		log.WithField("trip_id", r.TripID).WithError(r.Err).Warn("skipping invalid trip")
		run.Rejected = append(run.Rejected, RejectedTrip{TripID: r.TripID, Reason: r.Err.Error()})
	}

	before := make(map[string]*domain.Trip, len(trips))
	for _, t := range trips {
		before[t.ID] = t
	}

	var (
		changed    []*domain.Trip
		changedIDs []string
	)
	for i, classified := range batch.Trips {
		if batch.Results[i].NeedsReview() {
			run.NeedsReview++
		}
		if auditChanged(before[classified.ID], classified) {
			changed = append(changed, classified)
			changedIDs = append(changedIDs, classified.ID)
		}
	}
	run.Updated = len(changed)

	if !req.DryRun {
		if err := s.tripRepo.UpdateAuditBatch(ctx, changed); err != nil {
			return nil, eris.Wrap(err, "audit run: persist statuses")
		}
		s.invalidate(ctx, changedIDs...)
		if s.notifier != nil {
			for _, r := range batch.Results {
				_ = s.notifier.NotifyCriticalAnomaly(ctx, r)
			}
			_ = s.notifier.NotifyAuditCompleted(ctx, run)
		}
	}

	log.WithFields(logrus.Fields{
		"trips":        len(trips),
		"rejected":     len(run.Rejected),
		"needs_review": run.NeedsReview,
		"updated":      run.Updated,
		"dry_run":      req.DryRun,
		"elapsed_ms":   time.Since(run.StartedAt).Milliseconds(),
	}).Info("audit run completed")

	return run, nil
}

// OverrideRequest contains the parameters for a manual status override.
type OverrideRequest struct {
	TripID string
	Status string
	Actor  string
}

// OverrideStatus records a reviewer's status decision. The override holds
// until one of the trip's tracked fields is edited.
func (s *AuditService) OverrideStatus(ctx context.Context, req OverrideRequest) (*TripAudit, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}
	actor := strings.TrimSpace(req.Actor)
	if actor == "" {
		return nil, ErrInvalidActor
	}
	status, err := audit.ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}

	release, err := s.lockTrip(ctx, req.TripID)
	if err != nil {
		return nil, err
	}
	defer release()

	trip, err := s.tripRepo.GetByID(ctx, req.TripID)
	if err != nil {
		return nil, err
	}

	overridden, err := audit.Override(trip, status, actor, s.now())
	if err != nil {
		return nil, err
	}

	result, classified, err := s.evaluate(ctx, s.engine, overridden)
	if err != nil {
		return nil, err
	}

	if err := s.tripRepo.UpdateAudit(ctx, classified); err != nil {
		return nil, err
	}
	s.invalidate(ctx, req.TripID)

	if s.notifier != nil {
		_ = s.notifier.NotifyStatusOverride(ctx, classified)
	}

	s.log.WithFields(logrus.Fields{
		"trip_id": req.TripID,
		"from":    trip.AuditStatus,
		"to":      status,
		"actor":   actor,
	}).Info("audit status overridden")

	return result, nil
}

// UpdateTripRequest contains the parameters for editing a trip.
type UpdateTripRequest struct {
	TripID string
	Edit   domain.TripEdit
}

// UpdateTrip applies an edit and re-evaluates the trip. Editing a tracked
// field discards any manual override.
func (s *AuditService) UpdateTrip(ctx context.Context, req UpdateTripRequest) (*TripAudit, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}
	if req.Edit.IsEmpty() {
		return nil, ErrEmptyEdit
	}

	release, err := s.lockTrip(ctx, req.TripID)
	if err != nil {
		return nil, err
	}
	defer release()

	trip, err := s.tripRepo.GetByID(ctx, req.TripID)
	if err != nil {
		return nil, err
	}

	edited := req.Edit.Apply(trip)
	result, classified, err := s.evaluate(ctx, s.engine, edited)
	if err != nil {
		return nil, err
	}

	if err := s.tripRepo.Update(ctx, classified); err != nil {
		return nil, err
	}
	s.invalidate(ctx, req.TripID)

	log := s.log.WithFields(logrus.Fields{
		"trip_id": req.TripID,
		"status":  classified.AuditStatus,
	})
	if trip.Override != nil && classified.Override == nil {
		log = log.WithField("override_cleared", true)
	}
	log.Info("trip updated")

	return result, nil
}

// evaluate audits a single trip with the collection checks that apply to it.
func (s *AuditService) evaluate(ctx context.Context, engine *audit.Engine, trip *domain.Trip) (*TripAudit, *domain.Trip, error) {
	if err := trip.Validate(); err != nil {
		return nil, nil, err
	}

	in, err := s.loadBatchInput(ctx, []*domain.Trip{trip})
	if err != nil {
		return nil, nil, err
	}

	batch := engine.AuditBatch([]*domain.Trip{trip}, in)
	classified := batch.Trips[0]
	return &TripAudit{Trip: NewTripView(classified), Result: batch.Results[0]}, classified, nil
}

// loadBatchInput fetches the assignments and attendance covering trips.
func (s *AuditService) loadBatchInput(ctx context.Context, trips []*domain.Trip) (audit.BatchInput, error) {
	var in audit.BatchInput
	if len(trips) == 0 {
		return in, nil
	}

	seen := make(map[string]struct{})
	var driverIDs []string
	from, to := trips[0].Day(), trips[0].Day()
	for _, t := range trips {
		if _, ok := seen[t.DriverID]; !ok && t.DriverID != "" {
			seen[t.DriverID] = struct{}{}
			driverIDs = append(driverIDs, t.DriverID)
		}
		if d := t.Day(); d.Before(from) {
			from = d
		} else if d.After(to) {
			to = d
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	if s.assignmentRepo != nil {
		g.Go(func() error {
			assignments, err := s.assignmentRepo.List(gctx, driverIDs)
			if err != nil {
				return eris.Wrap(err, "load platform assignments")
			}
			if assignments == nil {
				assignments = []domain.PlatformAssignment{}
			}
			in.Assignments = assignments
			return nil
		})
	}
	if s.attendanceRepo != nil {
		g.Go(func() error {
			records, err := s.attendanceRepo.ListBetween(gctx, from, to, driverIDs)
			if err != nil {
				return eris.Wrap(err, "load attendance")
			}
			if records == nil {
				records = []domain.Attendance{}
			}
			in.Attendance = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return audit.BatchInput{}, err
	}
	return in, nil
}

// lockTrip takes the per-trip review lock. The returned release is safe to defer.
func (s *AuditService) lockTrip(ctx context.Context, tripID string) (func(), error) {
	if s.lockStore == nil {
		return func() {}, nil
	}

	ok, err := s.lockStore.AcquireTripLock(ctx, tripID, s.lockTTL)
	if err != nil {
		return nil, eris.Wrapf(err, "acquire lock for trip %s", tripID)
	}
	if !ok {
		return nil, ErrOverrideInProgress
	}

	return func() {
		if err := s.lockStore.ReleaseTripLock(context.WithoutCancel(ctx), tripID); err != nil {
			s.log.WithError(err).WithField("trip_id", tripID).Warn("failed to release trip lock")
		}
	}, nil
}

// invalidate drops cached views that may include tripIDs.
func (s *AuditService) invalidate(ctx context.Context, tripIDs ...string) {
	if s.cacheStore == nil || len(tripIDs) == 0 {
		return
	}
	if err := s.cacheStore.InvalidateTripAudit(ctx, tripIDs...); err != nil {
		s.log.WithError(err).Warn("failed to invalidate trip audit cache")
	}
	if err := s.cacheStore.InvalidateDashboards(ctx); err != nil {
		s.log.WithError(err).Warn("failed to invalidate dashboard cache")
	}
}

func auditChanged(before, after *domain.Trip) bool {
	if before == nil {
		return true
	}
	return before.AnomalyFlag != after.AnomalyFlag ||
		before.AuditStatus != after.AuditStatus ||
		(before.Override == nil) != (after.Override == nil)
}
