package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/rotisserie/eris"

	"fleetaudit/internal/domain"
)

// PaymentRepository is a PostgreSQL implementation of repository.PaymentRepository.
type PaymentRepository struct {
	q Querier
}

// NewPaymentRepository creates a new PostgreSQL payment repository.
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{q: db}
}

// ListByStatus retrieves payments in any of statuses, or all payments when none are given.
func (r *PaymentRepository) ListByStatus(ctx context.Context, statuses ...domain.PaymentStatus) ([]domain.Payment, error) {
	query := `
		SELECT id, driver_id, amount, payment_date, COALESCE(method, ''), status, COALESCE(description, '')
		FROM payments
	`
	var args []any
	if len(statuses) > 0 {
		names := make([]string, len(statuses))
		for i, s := range statuses {
			names[i] = string(s)
		}
		query += ` WHERE status = ANY($1)`
		args = append(args, pq.Array(names))
	}
	query += ` ORDER BY payment_date DESC`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "payments: list")
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(
			&p.ID,
			&p.DriverID,
			&p.Amount,
			&p.PaymentDate,
			&p.Method,
			&p.Status,
			&p.Description,
		); err != nil {
			return nil, eris.Wrap(err, "payments: scan")
		}
		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "payments: iterate")
	}
	return payments, nil
}
