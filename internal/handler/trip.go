package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleetaudit/internal/domain"
	"fleetaudit/internal/service"
)

// TripHandler handles HTTP requests for trip edits.
type TripHandler struct {
	auditService *service.AuditService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(auditService *service.AuditService) *TripHandler {
	return &TripHandler{auditService: auditService}
}

// UpdateTripRequest is the HTTP request body for editing a trip. Omitted
// fields are left unchanged; clear_fuel_cost and clear_amount mark the value
// as no longer recorded.
type UpdateTripRequest struct {
	Date          *string  `json:"date,omitempty"` // YYYY-MM-DD
	DistanceKm    *float64 `json:"distance_km,omitempty"`
	FuelCost      *float64 `json:"fuel_cost,omitempty"`
	Amount        *float64 `json:"amount,omitempty"`
	Platform      *string  `json:"platform,omitempty"`
	Destination   *string  `json:"destination,omitempty"`
	PhotoRef      *string  `json:"photo_ref,omitempty"`
	StartOdometer *float64 `json:"start_odometer,omitempty"`
	EndOdometer   *float64 `json:"end_odometer,omitempty"`
	Notes         *string  `json:"notes,omitempty"`
	ClearFuelCost bool     `json:"clear_fuel_cost,omitempty"`
	ClearAmount   bool     `json:"clear_amount,omitempty"`
}

func (r UpdateTripRequest) toEdit() (domain.TripEdit, error) {
	edit := domain.TripEdit{
		DistanceKm:    r.DistanceKm,
		FuelCost:      r.FuelCost,
		Amount:        r.Amount,
		Platform:      r.Platform,
		Destination:   r.Destination,
		PhotoRef:      r.PhotoRef,
		StartOdometer: r.StartOdometer,
		EndOdometer:   r.EndOdometer,
		Notes:         r.Notes,
		ClearFuelCost: r.ClearFuelCost,
		ClearAmount:   r.ClearAmount,
	}
	if r.Date != nil {
		d, err := parseDay(*r.Date)
		if err != nil || d.IsZero() {
			return domain.TripEdit{}, ErrInvalidQuery
		}
		edit.Date = &d
	}
	return edit, nil
}

// UpdateTrip handles PATCH /v1/trips/:id
func (h *TripHandler) UpdateTrip(c *gin.Context) {
	var req UpdateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	edit, err := req.toEdit()
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.auditService.UpdateTrip(c.Request.Context(), service.UpdateTripRequest{
		TripID: c.Param("id"),
		Edit:   edit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, result)
}
