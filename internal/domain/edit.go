package domain

import "time"

// TripEdit is a partial update of a trip's recorded fields. Nil fields are left unchanged.
type TripEdit struct {
	Date          *time.Time
	DistanceKm    *float64
	FuelCost      *float64
	Amount        *float64
	Platform      *string
	Destination   *string
	PhotoRef      *string
	StartOdometer *float64
	EndOdometer   *float64
	Notes         *string

	// ClearFuelCost and ClearAmount mark the value as no longer recorded.
	ClearFuelCost bool
	ClearAmount   bool
}

// IsEmpty reports whether the edit changes nothing.
func (e TripEdit) IsEmpty() bool {
	return e.Date == nil && e.DistanceKm == nil && e.FuelCost == nil && e.Amount == nil &&
		e.Platform == nil && e.Destination == nil && e.PhotoRef == nil &&
		e.StartOdometer == nil && e.EndOdometer == nil && e.Notes == nil &&
		!e.ClearFuelCost && !e.ClearAmount
}

// Apply returns a copy of t with the edit applied.
func (e TripEdit) Apply(t *Trip) *Trip {
	out := *t
	if e.Date != nil {
		out.Date = *e.Date
	}
	if e.DistanceKm != nil {
		out.DistanceKm = *e.DistanceKm
	}
	switch {
	case e.ClearFuelCost:
		out.FuelCost = nil
	case e.FuelCost != nil:
		out.FuelCost = Float(*e.FuelCost)
	}
	switch {
	case e.ClearAmount:
		out.Amount = nil
	case e.Amount != nil:
		out.Amount = Float(*e.Amount)
	}
	if e.Platform != nil {
		out.Platform = *e.Platform
	}
	if e.Destination != nil {
		out.Destination = *e.Destination
	}
	if e.PhotoRef != nil {
		out.PhotoRef = *e.PhotoRef
	}
	if e.StartOdometer != nil {
		out.StartOdometer = Float(*e.StartOdometer)
	}
	if e.EndOdometer != nil {
		out.EndOdometer = Float(*e.EndOdometer)
	}
	if e.Notes != nil {
		out.Notes = *e.Notes
	}
	return &out
}
