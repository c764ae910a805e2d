package service

import (
	"context"
	"time"

	"equiprent-backend/internal/domain"
)

type OrderService interface {
	CreateOrder(ctx context.Context, equipmentID, renterID int32, start, end time.Time) (*domain.Order, error)
	Transition(ctx context.Context, orderID int32, target domain.OrderStatus, actorID int32, isAdmin bool) (*domain.Order, error)
	CancelOrder(ctx context.Context, orderID, actorID int32, isAdmin bool) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID, actorID int32, isAdmin bool) (*domain.Order, error)
	ListRenterOrders(ctx context.Context, renterID int32, status string, page, pageSize int32) ([]domain.Order, int32, error)
	ListOwnerOrders(ctx context.Context, ownerID int32, status string, page, pageSize int32) ([]domain.Order, int32, error)
}

type EquipmentService interface {
	RegisterEquipment(ctx context.Context, eq *domain.Equipment) error
	GetEquipment(ctx context.Context, id int32) (*domain.Equipment, error)
	// IsAvailable is the booking conflict check. Unknown or out-of-service equipment is reported as unavailable.
	IsAvailable(ctx context.Context, equipmentID int32, start, end time.Time) (bool, error)
	// CheckAvailability validates the requested window before running IsAvailable.
	CheckAvailability(ctx context.Context, equipmentID int32, start, end time.Time) (bool, error)
	ConfirmReturn(ctx context.Context, equipmentID, actorID int32, isAdmin bool) (*domain.Equipment, error)
	SetEquipmentStatus(ctx context.Context, equipmentID int32, status domain.EquipmentStatus, actorID int32, isAdmin bool) (*domain.Equipment, error)
}

type PaymentService interface {
	InitiatePayment(ctx context.Context, orderID, actorID int32) (*domain.PaymentRecord, error)
	OnPaymentSucceeded(ctx context.Context, orderID int32) error
	OnPaymentCancelled(ctx context.Context, orderID int32) error
}

type ReconciliationService interface {
	RunReconciliationPass(ctx context.Context) (*domain.ReconcileResult, error)
}
