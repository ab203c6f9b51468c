package domain

import "time"

// DriverStatus represents the employment status of a driver.
type DriverStatus string

const (
	DriverStatusActive    DriverStatus = "active"
	DriverStatusInactive  DriverStatus = "inactive"
	DriverStatusSuspended DriverStatus = "suspended"
)

// Driver represents a driver in the fleet.
type Driver struct {
	ID            string
	Name          string
	Email         string
	Phone         string
	LicenseNumber string
	LicenseExpiry time.Time
	Address       string
	Status        DriverStatus
	CreatedAt     time.Time
}

// PlatformAssignment records that a driver may take trips on a platform.
type PlatformAssignment struct {
	DriverID string
	Platform string
}
