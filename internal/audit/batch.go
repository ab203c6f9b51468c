package audit

import "fleetaudit/internal/domain"

// Result is the audit outcome for one trip.
type Result struct {
	TripID     string             `json:"trip_id"`
	DriverID   string             `json:"driver_id"`
	Anomalies  []Anomaly          `json:"anomalies"`
	Status     domain.AuditStatus `json:"status"`
	Verdict    Verdict            `json:"verdict"`
	Overridden bool               `json:"overridden"`
}

// NeedsReview reports whether the trip is waiting on a reviewer.
func (r Result) NeedsReview() bool {
	return r.Status == domain.AuditStatusNeedsReview
}

// BatchInput carries the external records the collection checks compare
// against. A nil slice skips its check.
type BatchInput struct {
	Assignments []domain.PlatformAssignment
	Attendance  []domain.Attendance
}

// Batch is the outcome of auditing a trip collection.
type Batch struct {
	Results     []Result
	Trips       []*domain.Trip // copies carrying AnomalyFlag and AuditStatus
	Rejected    []Rejected
	ImageReuse  []ImageReuse
	DailyVolume []DailyVolume
}

// AuditBatch validates, evaluates and resolves every trip in trips. Invalid
// records are reported in Rejected and do not abort the batch. Input trips
// are not modified.
func (e *Engine) AuditBatch(trips []*domain.Trip, in BatchInput) Batch {
	valid, rejected := PartitionValid(trips)

	extra := make(map[string][]Anomaly)
	reuse := DetectRepeatedImages(valid)
	for _, r := range reuse {
		for _, id := range r.TripIDs {
			extra[id] = append(extra[id], r.Anomaly)
		}
	}

	var assignments AssignmentIndex
	if in.Assignments != nil {
		assignments = NewAssignmentIndex(in.Assignments)
	}
	var attendance AttendanceIndex
	if in.Attendance != nil {
		attendance = NewAttendanceIndex(in.Attendance)
	}

	volume := DetectExcessiveDailyTrips(valid, e.cfg)
	volumeByTrip := make(map[string]Anomaly)
	for _, v := range volume {
		for _, id := range v.TripIDs {
			volumeByTrip[id] = v.Anomaly
		}
	}

	batch := Batch{
		Results:     make([]Result, 0, len(valid)),
		Trips:       make([]*domain.Trip, 0, len(valid)),
		Rejected:    rejected,
		ImageReuse:  reuse,
		DailyVolume: volume,
	}

	for _, t := range valid {
		// Validate already passed, so Evaluate cannot fail here.
		anomalies, _ := Evaluate(t, e.cfg)
		anomalies = append(anomalies, extra[t.ID]...)
		if assignments != nil {
			anomalies = append(anomalies, assignments.Check(t)...)
		}
		if attendance != nil {
			anomalies = append(anomalies, attendance.Check(t)...)
		}
		if a, ok := volumeByTrip[t.ID]; ok {
			anomalies = append(anomalies, a)
		}

		classified, res := Apply(t, anomalies)
		batch.Trips = append(batch.Trips, classified)
		batch.Results = append(batch.Results, Result{
			TripID:     t.ID,
			DriverID:   t.DriverID,
			Anomalies:  anomalies,
			Status:     res.Status,
			Verdict:    VerdictOf(anomalies),
			Overridden: res.Overridden,
		})
	}

	return batch
}

// AuditTrip evaluates and resolves a single trip without collection checks.
func (e *Engine) AuditTrip(trip *domain.Trip) (Result, *domain.Trip, error) {
	anomalies, err := e.Evaluate(trip)
	if err != nil {
		return Result{}, nil, err
	}
	classified, res := Apply(trip, anomalies)
	return Result{
		TripID:     trip.ID,
		DriverID:   trip.DriverID,
		Anomalies:  anomalies,
		Status:     res.Status,
		Verdict:    VerdictOf(anomalies),
		Overridden: res.Overridden,
	}, classified, nil
}
