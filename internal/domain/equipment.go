package domain

import (
	"fmt"
	"time"
)

type EquipmentStatus string

const (
	EquipmentStatusAvailable     EquipmentStatus = "AVAILABLE"
	EquipmentStatusRented        EquipmentStatus = "RENTED"
	EquipmentStatusPendingReturn EquipmentStatus = "PENDING_RETURN"
	EquipmentStatusMaintenance   EquipmentStatus = "MAINTENANCE"
	EquipmentStatusOffline       EquipmentStatus = "OFFLINE"
)

func (s EquipmentStatus) IsValid() bool {
	switch s {
	case EquipmentStatusAvailable, EquipmentStatusRented, EquipmentStatusPendingReturn,
		EquipmentStatusMaintenance, EquipmentStatusOffline:
		return true
	}
	return false
}

// AcceptsBookings reports whether new orders may be placed against equipment in this status.
// Rented and PendingReturn equipment still accepts bookings for windows that do not overlap.
func (s EquipmentStatus) AcceptsBookings() bool {
	return s.IsValid() && s != EquipmentStatusMaintenance && s != EquipmentStatusOffline
}

// IsOwnerSettable reports whether an owner may request this status directly.
// Rented and PendingReturn are only ever derived from order transitions.
func (s EquipmentStatus) IsOwnerSettable() bool {
	return s == EquipmentStatusAvailable || s == EquipmentStatusMaintenance || s == EquipmentStatusOffline
}

func ParseEquipmentStatus(s string) (EquipmentStatus, error) {
	status := EquipmentStatus(s)
	if !status.IsValid() {
		return "", NewValidationError(fmt.Sprintf("unknown equipment status %q", s))
	}
	return status, nil
}

type Equipment struct {
	ID              int32           `json:"id"`
	OwnerID         int32           `json:"owner_id"`
	Name            string          `json:"name"`
	DailyPriceCents int64           `json:"daily_price_cents"`
	Latitude        float64         `json:"latitude"`
	Longitude       float64         `json:"longitude"`
	Status          EquipmentStatus `json:"status"`
	AverageRating   float64         `json:"average_rating"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Others summarises the non-terminal orders on an item besides the one being transitioned.
type Others struct {
	Active bool // any Pending, Accepted or InProgress order
	InUse  bool // an InProgress order, i.e. the item is out with another renter
}

// DeriveEquipmentStatus returns the equipment status implied by an order entering status to.
// Entering Pending is the creation-time lock.
func DeriveEquipmentStatus(current EquipmentStatus, to OrderStatus, others Others) EquipmentStatus {
	switch to {
	case OrderStatusPending, OrderStatusAccepted:
		// the previous renter's return is still awaiting the owner's confirmation
		if current == EquipmentStatusPendingReturn {
			return current
		}
		return EquipmentStatusRented
	case OrderStatusInProgress:
		return EquipmentStatusRented
	case OrderStatusCompleted:
		// back-to-back rentals: the next renter already has the item
		if others.InUse {
			return EquipmentStatusRented
		}
		return EquipmentStatusPendingReturn
	case OrderStatusRejected, OrderStatusCancelled:
		// An outstanding return from an earlier rental still needs the owner's confirmation.
		if others.Active || current != EquipmentStatusRented {
			return current
		}
		return EquipmentStatusAvailable
	}
	return current
}

// ReturnedStatus is the status after the owner confirms a physical return.
func ReturnedStatus(othersActive bool) EquipmentStatus {
	if othersActive {
		return EquipmentStatusRented
	}
	return EquipmentStatusAvailable
}
