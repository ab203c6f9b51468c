package repository

import (
	"context"
	"time"

	"fleetaudit/internal/domain"
)

// TripFilter selects trips for listing. Zero values mean "no constraint".
type TripFilter struct {
	From        time.Time // inclusive calendar day
	To          time.Time // inclusive calendar day
	DriverIDs   []string
	AnomalyOnly bool
	Limit       int
}

// TripRepository defines the persistence operations for trips.
type TripRepository interface {
	// List retrieves trips matching filter, newest first.
	List(ctx context.Context, filter TripFilter) ([]*domain.Trip, error)

	// GetByID retrieves a trip by ID.
	GetByID(ctx context.Context, id string) (*domain.Trip, error)

	// Update writes every recorded and audit field of an existing trip.
	Update(ctx context.Context, trip *domain.Trip) error

	// UpdateAudit writes only the anomaly flag, audit status and override.
	UpdateAudit(ctx context.Context, trip *domain.Trip) error

	// UpdateAuditBatch applies UpdateAudit to every trip atomically.
	UpdateAuditBatch(ctx context.Context, trips []*domain.Trip) error
}
