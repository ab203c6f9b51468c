package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/rotisserie/eris"

	"fleetaudit/internal/domain"
	"fleetaudit/internal/repository"
)

const driverColumns = `id, COALESCE(name, ''), COALESCE(email, ''), COALESCE(phone, ''),
		COALESCE(license_number, ''), license_expiry, COALESCE(address, ''), status, created_at`

// DriverRepository is a PostgreSQL implementation of repository.DriverRepository.
type DriverRepository struct {
	q Querier
}

// NewDriverRepository creates a new PostgreSQL driver repository.
func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{q: db}
}

// GetByID retrieves a driver by ID.
func (r *DriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	query := "SELECT " + driverColumns + " FROM drivers WHERE id = $1"

	driver, err := scanDriver(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, eris.Wrapf(err, "drivers: get %s", id)
	}
	return &driver, nil
}

// GetAll retrieves all drivers.
func (r *DriverRepository) GetAll(ctx context.Context) ([]domain.Driver, error) {
	query := "SELECT " + driverColumns + " FROM drivers ORDER BY id"

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "drivers: list")
	}
	defer rows.Close()

	var drivers []domain.Driver
	for rows.Next() {
		driver, err := scanDriver(rows)
		if err != nil {
			return nil, eris.Wrap(err, "drivers: scan")
		}
		drivers = append(drivers, driver)
	}

	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "drivers: iterate")
	}
	return drivers, nil
}

func scanDriver(s scanner) (domain.Driver, error) {
	var (
		driver  domain.Driver
		expires sql.NullTime
	)
	err := s.Scan(
		&driver.ID,
		&driver.Name,
		&driver.Email,
		&driver.Phone,
		&driver.LicenseNumber,
		&expires,
		&driver.Address,
		&driver.Status,
		&driver.CreatedAt,
	)
	if err != nil {
		return domain.Driver{}, err
	}
	if expires.Valid {
		driver.LicenseExpiry = expires.Time
	}
	return driver, nil
}

// AssignmentRepository is a PostgreSQL implementation of repository.AssignmentRepository.
type AssignmentRepository struct {
	q Querier
}

// NewAssignmentRepository creates a new PostgreSQL assignment repository.
func NewAssignmentRepository(db *sql.DB) *AssignmentRepository {
	return &AssignmentRepository{q: db}
}

// List retrieves assignments for driverIDs, or every assignment when driverIDs is empty.
func (r *AssignmentRepository) List(ctx context.Context, driverIDs []string) ([]domain.PlatformAssignment, error) {
	query := `SELECT driver_id, platform FROM driver_platforms`
	var args []any
	if len(driverIDs) > 0 {
		query += ` WHERE driver_id = ANY($1)`
		args = append(args, pq.Array(driverIDs))
	}
	query += ` ORDER BY driver_id, platform`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "driver_platforms: list")
	}
	defer rows.Close()

	var out []domain.PlatformAssignment
	for rows.Next() {
		var a domain.PlatformAssignment
		if err := rows.Scan(&a.DriverID, &a.Platform); err != nil {
			return nil, eris.Wrap(err, "driver_platforms: scan")
		}
		out = append(out, a)
	}

	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "driver_platforms: iterate")
	}
	return out, nil
}
