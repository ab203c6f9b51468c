package service

import "errors"

var (
	// ErrInvalidTripID is returned when trip ID is empty.
	ErrInvalidTripID = errors.New("invalid trip id")

	// ErrInvalidActor is returned when an override has no actor.
	ErrInvalidActor = errors.New("invalid actor")

	// ErrInvalidDateRange is returned when the range end precedes its start.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrEmptyEdit is returned when a trip update changes nothing.
	ErrEmptyEdit = errors.New("trip edit changes no fields")

	// ErrOverrideInProgress is returned when another reviewer holds the trip lock.
	ErrOverrideInProgress = errors.New("trip is being reviewed by another actor")

	// ErrInvalidDashboardSize is returned when a dashboard section size is out of range.
	ErrInvalidDashboardSize = errors.New("invalid dashboard size")

	// ErrArchiveNotConfigured is returned when archiving without a report archive.
	ErrArchiveNotConfigured = errors.New("report archive not configured")
)
