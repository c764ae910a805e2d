package repository

import (
	"context"
	"time"

	"equiprent-backend/internal/domain"
)

// Repositories return errors wrapping domain.ErrNotFound when a record does not exist,
// and domain conflict/transient errors for store-level failures.

type EquipmentRepository interface {
	Create(ctx context.Context, eq *domain.Equipment) error
	GetByID(ctx context.Context, id int32) (*domain.Equipment, error)
	// GetByIDForUpdate reads the row and holds a write lock on it until the transaction ends.
	GetByIDForUpdate(ctx context.Context, id int32) (*domain.Equipment, error)
	UpdateStatus(ctx context.Context, id int32, status domain.EquipmentStatus, at time.Time) error
}

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id int32) (*domain.Order, error)
	GetByIDForUpdate(ctx context.Context, id int32) (*domain.Order, error)
	UpdateStatus(ctx context.Context, order *domain.Order) error
	ListActiveByEquipment(ctx context.Context, equipmentID int32) ([]domain.Order, error)
	// ListStartedBy returns orders in status whose start date is at or before cutoff.
	ListStartedBy(ctx context.Context, status domain.OrderStatus, cutoff time.Time) ([]domain.Order, error)
	// ListEndedBy returns orders in status whose end date is at or before cutoff.
	ListEndedBy(ctx context.Context, status domain.OrderStatus, cutoff time.Time) ([]domain.Order, error)
	ListByRenter(ctx context.Context, renterID int32, status string, page, pageSize int32) ([]domain.Order, int32, error)
	ListByOwner(ctx context.Context, ownerID int32, status string, page, pageSize int32) ([]domain.Order, int32, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, p *domain.PaymentRecord) error
	// GetActiveByOrder returns the order's single non-cancelled payment record.
	GetActiveByOrder(ctx context.Context, orderID int32) (*domain.PaymentRecord, error)
	UpdateStatus(ctx context.Context, p *domain.PaymentRecord) error
}

// Tx exposes the repositories bound to one unit of work.
type Tx interface {
	Orders() OrderRepository
	Equipment() EquipmentRepository
	Payments() PaymentRepository
}

// Store gives autocommit repositories for reads plus WithinTx for every state change.
// fn's error rolls the whole unit back; a nil return commits order, equipment and payment writes together.
type Store interface {
	Tx
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Ping(ctx context.Context) error
}
