package domain

import (
	"strings"
	"time"
)

// AuditStatus represents the review state of a trip.
type AuditStatus string

const (
	AuditStatusPending     AuditStatus = "pending"
	AuditStatusVerified    AuditStatus = "verified"
	AuditStatusNeedsReview AuditStatus = "needs_review"
)

// Valid reports whether s is one of the known audit states.
func (s AuditStatus) Valid() bool {
	switch s {
	case AuditStatusPending, AuditStatusVerified, AuditStatusNeedsReview:
		return true
	}
	return false
}

// StatusOverride is a manual review decision applied by an operator.
// Fingerprint pins the override to the trip fields it was made against.
type StatusOverride struct {
	Status      AuditStatus
	Actor       string
	At          time.Time
	Fingerprint uint64
}

// Trip represents one completed or pending ride record.
type Trip struct {
	ID            string
	DriverID      string
	Date          time.Time // Calendar day; time of day is ignored.
	DistanceKm    float64
	FuelCost      *float64 // nil when not recorded
	Amount        *float64 // nil when not recorded
	Platform      string
	Destination   string
	PhotoRef      string // empty when no dashboard photo was uploaded
	StartOdometer *float64
	EndOdometer   *float64
	Notes         string

	AnomalyFlag bool
	AuditStatus AuditStatus
	Override    *StatusOverride

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasPhoto reports whether a dashboard photo reference is present.
func (t *Trip) HasPhoto() bool {
	return strings.TrimSpace(t.PhotoRef) != ""
}

// HasFuelCost reports whether a fuel cost was recorded, including a recorded zero.
func (t *Trip) HasFuelCost() bool {
	return t.FuelCost != nil
}

// HasAmount reports whether an amount was recorded.
func (t *Trip) HasAmount() bool {
	return t.Amount != nil
}

// FuelCostOrZero returns the recorded fuel cost, or 0 when absent.
func (t *Trip) FuelCostOrZero() float64 {
	if t.FuelCost == nil {
		return 0
	}
	return *t.FuelCost
}

// AmountOrZero returns the recorded amount, or 0 when absent.
func (t *Trip) AmountOrZero() float64 {
	if t.Amount == nil {
		return 0
	}
	return *t.Amount
}

// Day returns the trip date truncated to a UTC calendar day.
func (t *Trip) Day() time.Time {
	return Day(t.Date)
}

// Validate checks the record invariants that must hold before audit evaluation.
func (t *Trip) Validate() error {
	if strings.TrimSpace(t.DriverID) == "" {
		return &InvalidRecordError{TripID: t.ID, Field: "driver_id", Reason: "missing driver reference"}
	}
	if t.DistanceKm < 0 {
		return &InvalidRecordError{TripID: t.ID, Field: "distance_km", Reason: "negative distance"}
	}
	if t.FuelCost != nil && *t.FuelCost < 0 {
		return &InvalidRecordError{TripID: t.ID, Field: "fuel_cost", Reason: "negative fuel cost"}
	}
	if t.Amount != nil && *t.Amount < 0 {
		return &InvalidRecordError{TripID: t.ID, Field: "amount", Reason: "negative amount"}
	}
	return nil
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateKey formats a calendar day as YYYY-MM-DD.
func DateKey(t time.Time) string {
	return t.Format(time.DateOnly)
}

// Float returns a pointer to v, for populating optional fields.
func Float(v float64) *float64 {
	return &v
}
