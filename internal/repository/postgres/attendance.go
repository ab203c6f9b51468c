package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/rotisserie/eris"

	"fleetaudit/internal/domain"
)

// AttendanceRepository is a PostgreSQL implementation of repository.AttendanceRepository.
type AttendanceRepository struct {
	q Querier
}

// NewAttendanceRepository creates a new PostgreSQL attendance repository.
func NewAttendanceRepository(db *sql.DB) *AttendanceRepository {
	return &AttendanceRepository{q: db}
}

// ListBetween retrieves records dated within [from, to], optionally limited to driverIDs.
func (r *AttendanceRepository) ListBetween(ctx context.Context, from, to time.Time, driverIDs []string) ([]domain.Attendance, error) {
	query := `
		SELECT id, driver_id, date, status, check_in_time, check_out_time, COALESCE(notes, '')
		FROM attendance
		WHERE date BETWEEN $1 AND $2
	`
	args := []any{domain.Day(from), domain.Day(to)}
	if len(driverIDs) > 0 {
		query += ` AND driver_id = ANY($3)`
		args = append(args, pq.Array(driverIDs))
	}
	query += ` ORDER BY date, driver_id`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "attendance: list")
	}
	defer rows.Close()

	var records []domain.Attendance
	for rows.Next() {
		var (
			a             domain.Attendance
			checkIn, exit sql.NullTime
		)
		if err := rows.Scan(
			&a.ID,
			&a.DriverID,
			&a.Date,
			&a.Status,
			&checkIn,
			&exit,
			&a.Notes,
		); err != nil {
			return nil, eris.Wrap(err, "attendance: scan")
		}
		a.CheckInTime = timePtr(checkIn)
		a.CheckOutTime = timePtr(exit)
		records = append(records, a)
	}

	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "attendance: iterate")
	}
	return records, nil
}
