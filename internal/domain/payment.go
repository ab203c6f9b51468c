package domain

import "time"

// PaymentStatus represents the current status of a driver payment.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusOverdue   PaymentStatus = "overdue"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// Payment represents a monetary record linked to a driver.
type Payment struct {
	ID          string
	DriverID    string
	Amount      float64
	PaymentDate time.Time
	Method      string
	Status      PaymentStatus
	Description string
}
