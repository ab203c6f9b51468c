package repository

import (
	"context"

	"fleetaudit/internal/domain"
)

// DriverRepository defines the read operations for drivers.
type DriverRepository interface {
	// GetByID retrieves a driver by ID.
	GetByID(ctx context.Context, id string) (*domain.Driver, error)

	// GetAll retrieves all drivers.
	GetAll(ctx context.Context) ([]domain.Driver, error)
}

// AssignmentRepository lists driver/platform assignments.
type AssignmentRepository interface {
	// List retrieves assignments for driverIDs, or every assignment when driverIDs is empty.
	List(ctx context.Context, driverIDs []string) ([]domain.PlatformAssignment, error)
}
