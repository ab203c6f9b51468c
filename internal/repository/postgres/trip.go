package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/rotisserie/eris"

	"fleetaudit/internal/domain"
	"fleetaudit/internal/repository"
)

const tripColumns = `id, driver_id, date, distance_km, fuel_cost, amount,
		COALESCE(platform, ''), COALESCE(destination, ''), COALESCE(photo_url, ''),
		start_odometer, end_odometer, COALESCE(notes, ''),
		anomaly_flag, audit_status,
		override_status, override_actor, override_at, override_fingerprint,
		created_at, updated_at`

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q  Querier
	db *sql.DB // nil when bound to a transaction
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db, db: db}
}

// NewTripRepositoryWithTx creates a trip repository using a transaction.
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{q: tx}
}

// List retrieves trips matching filter, newest first.
func (r *TripRepository) List(ctx context.Context, filter repository.TripFilter) ([]*domain.Trip, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !filter.From.IsZero() {
		where = append(where, "date >= "+arg(domain.Day(filter.From)))
	}
	if !filter.To.IsZero() {
		where = append(where, "date <= "+arg(domain.Day(filter.To)))
	}
	if len(filter.DriverIDs) > 0 {
		where = append(where, "driver_id = ANY("+arg(pq.Array(filter.DriverIDs))+")")
	}
	if filter.AnomalyOnly {
		where = append(where, "anomaly_flag = TRUE")
	}

	query := "SELECT " + tripColumns + " FROM trips"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "trips: list")
	}
	defer rows.Close()

	var trips []*domain.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, eris.Wrap(err, "trips: scan")
		}
		trips = append(trips, trip)
	}

	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "trips: iterate")
	}
	return trips, nil
}

// GetByID retrieves a trip by ID.
func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	query := "SELECT " + tripColumns + " FROM trips WHERE id = $1"

	trip, err := scanTrip(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, eris.Wrapf(err, "trips: get %s", id)
	}
	return trip, nil
}

// Update writes every recorded and audit field of an existing trip.
func (r *TripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	query := `
		UPDATE trips
		SET date = $2, distance_km = $3, fuel_cost = $4, amount = $5,
			platform = $6, destination = $7, photo_url = $8,
			start_odometer = $9, end_odometer = $10, notes = $11,
			anomaly_flag = $12, audit_status = $13,
			override_status = $14, override_actor = $15, override_at = $16, override_fingerprint = $17,
			updated_at = NOW()
		WHERE id = $1
	`

	status, actor, at, fp := overrideColumns(trip.Override)
	result, err := r.q.ExecContext(ctx, query,
		trip.ID,
		trip.Day(),
		trip.DistanceKm,
		nullFloat(trip.FuelCost),
		nullFloat(trip.Amount),
		trip.Platform,
		trip.Destination,
		trip.PhotoRef,
		nullFloat(trip.StartOdometer),
		nullFloat(trip.EndOdometer),
		trip.Notes,
		trip.AnomalyFlag,
		trip.AuditStatus,
		status, actor, at, fp,
	)
	if err != nil {
		return eris.Wrapf(err, "trips: update %s", trip.ID)
	}
	return checkAffected(result, trip.ID)
}

// UpdateAudit writes only the anomaly flag, audit status and override.
func (r *TripRepository) UpdateAudit(ctx context.Context, trip *domain.Trip) error {
	query := `
		UPDATE trips
		SET anomaly_flag = $2, audit_status = $3,
			override_status = $4, override_actor = $5, override_at = $6, override_fingerprint = $7,
			updated_at = NOW()
		WHERE id = $1
	`

	status, actor, at, fp := overrideColumns(trip.Override)
	result, err := r.q.ExecContext(ctx, query,
		trip.ID,
		trip.AnomalyFlag,
		trip.AuditStatus,
		status, actor, at, fp,
	)
	if err != nil {
		return eris.Wrapf(err, "trips: update audit %s", trip.ID)
	}
	return checkAffected(result, trip.ID)
}

// UpdateAuditBatch writes the audit fields of every trip in one transaction.
// Either all trips are updated or none are.
func (r *TripRepository) UpdateAuditBatch(ctx context.Context, trips []*domain.Trip) error {
	if len(trips) == 0 {
		return nil
	}
	if r.db == nil {
		return updateAuditAll(ctx, r, trips)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "trips: begin audit batch")
	}
	if err := updateAuditAll(ctx, NewTripRepositoryWithTx(tx), trips); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "trips: commit audit batch")
	}
	return nil
}

func updateAuditAll(ctx context.Context, r *TripRepository, trips []*domain.Trip) error {
	for _, t := range trips {
		if err := r.UpdateAudit(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func scanTrip(s scanner) (*domain.Trip, error) {
	var (
		trip          domain.Trip
		fuel, amount  sql.NullFloat64
		start, end    sql.NullFloat64
		ovStatus      sql.NullString
		ovActor       sql.NullString
		ovAt          sql.NullTime
		ovFingerprint sql.NullInt64
	)

	err := s.Scan(
		&trip.ID,
		&trip.DriverID,
		&trip.Date,
		&trip.DistanceKm,
		&fuel,
		&amount,
		&trip.Platform,
		&trip.Destination,
		&trip.PhotoRef,
		&start,
		&end,
		&trip.Notes,
		&trip.AnomalyFlag,
		&trip.AuditStatus,
		&ovStatus,
		&ovActor,
		&ovAt,
		&ovFingerprint,
		&trip.CreatedAt,
		&trip.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	trip.FuelCost = floatPtr(fuel)
	trip.Amount = floatPtr(amount)
	trip.StartOdometer = floatPtr(start)
	trip.EndOdometer = floatPtr(end)

	if ovStatus.Valid {
		trip.Override = &domain.StatusOverride{
			Status:      domain.AuditStatus(ovStatus.String),
			Actor:       ovActor.String,
			At:          ovAt.Time,
			Fingerprint: uint64(ovFingerprint.Int64),
		}
	}

	return &trip, nil
}

// overrideColumns flattens an override into nullable columns. The fingerprint
// is stored bit-for-bit in a BIGINT.
func overrideColumns(o *domain.StatusOverride) (sql.NullString, sql.NullString, sql.NullTime, sql.NullInt64) {
	if o == nil {
		return sql.NullString{}, sql.NullString{}, sql.NullTime{}, sql.NullInt64{}
	}
	return sql.NullString{String: string(o.Status), Valid: true},
		sql.NullString{String: o.Actor, Valid: true},
		sql.NullTime{Time: o.At, Valid: true},
		sql.NullInt64{Int64: int64(o.Fingerprint), Valid: true}
}

func checkAffected(result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "rows affected for %s", id)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
