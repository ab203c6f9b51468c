package service

import (
	"time"

	"fleetaudit/internal/audit"
	"fleetaudit/internal/domain"
)

// TripView is the JSON shape of a trip in API responses and cached views.
type TripView struct {
	ID            string             `json:"id"`
	DriverID      string             `json:"driver_id"`
	Date          string             `json:"date"`
	DistanceKm    float64            `json:"distance_km"`
	FuelCost      *float64           `json:"fuel_cost"`
	Amount        *float64           `json:"amount"`
	Platform      string             `json:"platform"`
	Destination   string             `json:"destination"`
	HasPhoto      bool               `json:"has_photo"`
	StartOdometer *float64           `json:"start_odometer,omitempty"`
	EndOdometer   *float64           `json:"end_odometer,omitempty"`
	Notes         string             `json:"notes,omitempty"`
	AnomalyFlag   bool               `json:"anomaly_flag"`
	AuditStatus   domain.AuditStatus `json:"audit_status"`
	Override      *OverrideView      `json:"override,omitempty"`
}

// OverrideView is the JSON shape of a manual status override.
type OverrideView struct {
	Status domain.AuditStatus `json:"status"`
	Actor  string             `json:"actor"`
	At     time.Time          `json:"at"`
}

// NewTripView converts a trip for display.
func NewTripView(t *domain.Trip) TripView {
	v := TripView{
		ID:            t.ID,
		DriverID:      t.DriverID,
		Date:          domain.DateKey(t.Day()),
		DistanceKm:    t.DistanceKm,
		FuelCost:      t.FuelCost,
		Amount:        t.Amount,
		Platform:      t.Platform,
		Destination:   t.Destination,
		HasPhoto:      t.HasPhoto(),
		StartOdometer: t.StartOdometer,
		EndOdometer:   t.EndOdometer,
		Notes:         t.Notes,
		AnomalyFlag:   t.AnomalyFlag,
		AuditStatus:   t.AuditStatus,
	}
	if t.Override != nil {
		v.Override = &OverrideView{Status: t.Override.Status, Actor: t.Override.Actor, At: t.Override.At}
	}
	return v
}

// TripAudit pairs a trip with its current audit result.
type TripAudit struct {
	Trip   TripView     `json:"trip"`
	Result audit.Result `json:"result"`
}
