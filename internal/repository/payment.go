package repository

import (
	"context"

	"fleetaudit/internal/domain"
)

// PaymentRepository defines the read operations for payments.
type PaymentRepository interface {
	// ListByStatus retrieves payments in any of statuses, or all payments when none are given.
	ListByStatus(ctx context.Context, statuses ...domain.PaymentStatus) ([]domain.Payment, error)
}
