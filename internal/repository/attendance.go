package repository

import (
	"context"
	"time"

	"fleetaudit/internal/domain"
)

// AttendanceRepository defines the read operations for attendance records.
type AttendanceRepository interface {
	// ListBetween retrieves records dated within [from, to], optionally limited to driverIDs.
	ListBetween(ctx context.Context, from, to time.Time, driverIDs []string) ([]domain.Attendance, error)
}
