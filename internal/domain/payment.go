package domain

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusPaid      PaymentStatus = "PAID"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

// PaymentRecord is one payment attempt for an order. At most one non-cancelled record exists per order.
type PaymentRecord struct {
	ID          int32         `json:"id"`
	OrderID     int32         `json:"order_id"`
	AmountCents int64         `json:"amount_cents"`
	Status      PaymentStatus `json:"status"`
	PaidAt      *time.Time    `json:"paid_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
