package service

import (
	"context"
	"errors"
	"time"

	"equiprent-backend/internal/clock"
	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/metrics"
	"equiprent-backend/internal/repository"
)

type orderService struct {
	lifecycle
}

func NewOrderService(store repository.Store, clk clock.Clock, m *metrics.Metrics) OrderService {
	return &orderService{lifecycle{store: store, clock: clk, metrics: m}}
}

// CreateOrder books equipment for [start, end). The availability check, the insert and the
// creation-time equipment lock happen in one transaction holding the equipment row lock.
func (s *orderService) CreateOrder(ctx context.Context, equipmentID, renterID int32, start, end time.Time) (*domain.Order, error) {
	logger.EnterMethod("orderService.CreateOrder", "equipmentID", equipmentID, "renterID", renterID, "start", start, "end", end)

	now := s.clock.Now()
	if err := domain.ValidateRange(start, end, now); err != nil {
		logger.ExitMethodWithError("orderService.CreateOrder", err)
		return nil, err
	}
	if renterID == 0 {
		err := domain.NewValidationError("renter is required")
		logger.ExitMethodWithError("orderService.CreateOrder", err)
		return nil, err
	}

	var order *domain.Order
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		eq, err := tx.Equipment().GetByIDForUpdate(ctx, equipmentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrEquipmentNotFound
			}
			return err
		}
		if eq.OwnerID == renterID {
			return domain.NewValidationError("owners cannot rent their own equipment")
		}

		active, err := availability(ctx, tx, eq, start, end)
		if err != nil {
			return err
		}

		total, ok := domain.ComputeTotal(eq.DailyPriceCents, start, end)
		if !ok {
			return domain.NewValidationError("order total exceeds the supported amount")
		}
		if total <= 0 {
			return domain.NewValidationError("order total must be positive")
		}

		order = &domain.Order{
			EquipmentID:      eq.ID,
			RenterID:         renterID,
			StartDate:        start,
			EndDate:          end,
			TotalAmountCents: total,
			Status:           domain.OrderStatusPending,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := tx.Orders().Create(ctx, order); err != nil {
			return err
		}

		next := domain.DeriveEquipmentStatus(eq.Status, domain.OrderStatusPending, domain.Others{Active: len(active) > 0})
		if next != eq.Status {
			return tx.Equipment().UpdateStatus(ctx, eq.ID, next, now)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrEquipmentUnavailable) {
			s.metrics.BookingConflict()
		}
		logger.ExitMethodWithError("orderService.CreateOrder", err)
		return nil, err
	}

	logger.Info("Order created", "order_id", order.ID, "equipment_id", order.EquipmentID, "renter_id", renterID, "total_amount_cents", order.TotalAmountCents)
	logger.ExitMethod("orderService.CreateOrder", "orderID", order.ID)
	return order, nil
}

// availability rejects out-of-service equipment and windows overlapping an active order.
// It returns the active orders it checked against.
func availability(ctx context.Context, tx repository.Tx, eq *domain.Equipment, start, end time.Time) ([]domain.Order, error) {
	if !eq.Status.AcceptsBookings() {
		return nil, domain.ErrEquipmentOutOfService
	}
	active, err := tx.Orders().ListActiveByEquipment(ctx, eq.ID)
	if err != nil {
		return nil, err
	}
	for i := range active {
		if active[i].Overlaps(start, end) {
			return nil, domain.ErrEquipmentUnavailable
		}
	}
	return active, nil
}

func (s *orderService) Transition(ctx context.Context, orderID int32, target domain.OrderStatus, actorID int32, isAdmin bool) (*domain.Order, error) {
	logger.EnterMethod("orderService.Transition", "orderID", orderID, "target", target, "actorID", actorID, "isAdmin", isAdmin)

	order, _, err := s.transition(ctx, orderID, target, domain.NewActor(actorID, isAdmin), nil)
	if err != nil {
		logger.ExitMethodWithError("orderService.Transition", err)
		return nil, err
	}

	logger.ExitMethod("orderService.Transition", "status", order.Status)
	return order, nil
}

func (s *orderService) CancelOrder(ctx context.Context, orderID, actorID int32, isAdmin bool) (*domain.Order, error) {
	return s.Transition(ctx, orderID, domain.OrderStatusCancelled, actorID, isAdmin)
}

// GetOrder is visible to the renter, the equipment owner and administrators.
func (s *orderService) GetOrder(ctx context.Context, orderID, actorID int32, isAdmin bool) (*domain.Order, error) {
	order, err := s.store.Orders().GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	if isAdmin || order.RenterID == actorID {
		return order, nil
	}

	eq, err := s.store.Equipment().GetByID(ctx, order.EquipmentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Error("Order references missing equipment", "order_id", order.ID, "equipment_id", order.EquipmentID)
			return nil, domain.NewIntegrityError("order references missing equipment", err)
		}
		return nil, err
	}
	if eq.OwnerID != actorID {
		return nil, domain.ErrPermissionDenied
	}
	return order, nil
}

func (s *orderService) ListRenterOrders(ctx context.Context, renterID int32, status string, page, pageSize int32) ([]domain.Order, int32, error) {
	if err := validStatusFilter(status); err != nil {
		return nil, 0, err
	}
	return s.store.Orders().ListByRenter(ctx, renterID, status, page, pageSize)
}

func (s *orderService) ListOwnerOrders(ctx context.Context, ownerID int32, status string, page, pageSize int32) ([]domain.Order, int32, error) {
	if err := validStatusFilter(status); err != nil {
		return nil, 0, err
	}
	return s.store.Orders().ListByOwner(ctx, ownerID, status, page, pageSize)
}

func validStatusFilter(status string) error {
	if status == "" {
		return nil
	}
	_, err := domain.ParseOrderStatus(status)
	return err
}
