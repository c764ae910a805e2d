package domain

import (
	"fmt"
	"math"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusAccepted   OrderStatus = "ACCEPTED"
	OrderStatusInProgress OrderStatus = "IN_PROGRESS"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusRejected   OrderStatus = "REJECTED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// orderTransitions is the complete lifecycle: current status -> statuses it may move to.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusAccepted, OrderStatusRejected, OrderStatusCancelled},
	OrderStatusAccepted:   {OrderStatusInProgress, OrderStatusCancelled},
	OrderStatusInProgress: {OrderStatusCompleted},
	OrderStatusCompleted:  {},
	OrderStatusRejected:   {},
	OrderStatusCancelled:  {},
}

// ActiveOrderStatuses are the statuses that hold equipment and take part in overlap checks.
var ActiveOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusAccepted,
	OrderStatusInProgress,
}

func (s OrderStatus) IsValid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransitionTo reports whether the lifecycle allows moving from s to target.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, t := range orderTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	allowed, ok := orderTransitions[s]
	return !ok || len(allowed) == 0
}

// IsActive reports whether an order in this status still holds its equipment.
func (s OrderStatus) IsActive() bool {
	for _, a := range ActiveOrderStatuses {
		if a == s {
			return true
		}
	}
	return false
}

// IsRelease reports whether entering this status gives up the equipment without a rental happening.
func (s OrderStatus) IsRelease() bool {
	return s == OrderStatusRejected || s == OrderStatusCancelled
}

func (s OrderStatus) String() string {
	return string(s)
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if !status.IsValid() {
		return "", NewValidationError(fmt.Sprintf("unknown order status %q", s))
	}
	return status, nil
}

type Order struct {
	ID               int32       `json:"id"`
	EquipmentID      int32       `json:"equipment_id"`
	RenterID         int32       `json:"renter_id"`
	StartDate        time.Time   `json:"start_date"`
	EndDate          time.Time   `json:"end_date"`
	TotalAmountCents int64       `json:"total_amount_cents"`
	Status           OrderStatus `json:"status"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// Overlaps uses closed-open intervals: [s1,e1) and [s2,e2) intersect iff s1 < e2 && s2 < e1.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

func (o *Order) Overlaps(start, end time.Time) bool {
	return Overlaps(o.StartDate, o.EndDate, start, end)
}

// RentalDays counts whole billable days, rounding a partial trailing day up.
func RentalDays(start, end time.Time) int64 {
	if !end.After(start) {
		return 0
	}
	return int64(math.Ceil(end.Sub(start).Hours() / 24))
}

// ComputeTotal prices a window at the daily rate. ok is false when the total does not fit in an int64.
func ComputeTotal(dailyPriceCents int64, start, end time.Time) (total int64, ok bool) {
	if end.Sub(start) == time.Duration(math.MaxInt64) {
		return 0, false
	}
	days := RentalDays(start, end)
	if dailyPriceCents > 0 && days > math.MaxInt64/dailyPriceCents {
		return 0, false
	}
	return dailyPriceCents * days, true
}

// ValidateRange checks a requested rental window against the current time.
func ValidateRange(start, end, now time.Time) error {
	if start.IsZero() || end.IsZero() {
		return NewValidationError("start and end dates are required")
	}
	if !end.After(start) {
		return NewValidationError("end date must be after start date")
	}
	if start.Before(now) {
		return NewValidationError("start date is in the past")
	}
	return nil
}

// ReconcileResult summarises one reconciliation pass.
type ReconcileResult struct {
	Started   int `json:"started"`
	Completed int `json:"completed"`
	Expired   int `json:"expired"`
	Failed    int `json:"failed"`
}

func (r ReconcileResult) Processed() int {
	return r.Started + r.Completed + r.Expired
}
