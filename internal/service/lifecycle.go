package service

import (
	"context"
	"errors"
	"fmt"

	"equiprent-backend/internal/clock"
	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/metrics"
	"equiprent-backend/internal/repository"
)

// lifecycle is the transactional core shared by every path that moves an order:
// request handlers, payment callbacks and the reconciler.
type lifecycle struct {
	store   repository.Store
	clock   clock.Clock
	metrics *metrics.Metrics
}

// applied describes a committed transition.
type applied struct {
	from domain.OrderStatus
	to   domain.OrderStatus
	role domain.ActorRole
}

// lockOrder reads an order and its equipment under row locks, order first.
func (l *lifecycle) lockOrder(ctx context.Context, tx repository.Tx, orderID int32) (*domain.Order, *domain.Equipment, error) {
	order, err := tx.Orders().GetByIDForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrOrderNotFound
		}
		return nil, nil, err
	}

	eq, err := tx.Equipment().GetByIDForUpdate(ctx, order.EquipmentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Error("Order references missing equipment", "order_id", order.ID, "equipment_id", order.EquipmentID)
			return nil, nil, domain.NewIntegrityError(fmt.Sprintf("order %d references missing equipment %d", order.ID, order.EquipmentID), err)
		}
		return nil, nil, err
	}
	return order, eq, nil
}

// otherOrders summarises the non-terminal orders other than exclude that hold the equipment.
func otherOrders(ctx context.Context, tx repository.Tx, equipmentID, exclude int32) (domain.Others, error) {
	var others domain.Others
	active, err := tx.Orders().ListActiveByEquipment(ctx, equipmentID)
	if err != nil {
		return others, err
	}
	for _, o := range active {
		if o.ID == exclude {
			continue
		}
		others.Active = true
		if o.Status == domain.OrderStatusInProgress {
			others.InUse = true
		}
	}
	return others, nil
}

// apply validates and persists one transition inside tx. order and eq must have been read with lockOrder.
func (l *lifecycle) apply(ctx context.Context, tx repository.Tx, order *domain.Order, eq *domain.Equipment, target domain.OrderStatus, actor domain.Actor) (*applied, error) {
	if !target.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("unknown order status %q", target))
	}
	if order.Status == target {
		return nil, domain.NewConflictError(fmt.Sprintf("order is already %s", target))
	}

	roles := actor.RolesFor(order, eq)
	if len(roles) == 0 {
		return nil, domain.ErrPermissionDenied
	}
	if !order.Status.CanTransitionTo(target) {
		return nil, domain.NewIllegalTransitionError(order.Status, target)
	}
	role, ok := authorizedRole(roles, target)
	if !ok {
		return nil, domain.ErrPermissionDenied
	}

	now := l.clock.Now()
	switch target {
	case domain.OrderStatusInProgress:
		if now.Before(order.StartDate) {
			return nil, domain.NewValidationError("rental period has not started yet")
		}
	case domain.OrderStatusCompleted:
		if now.Before(order.EndDate) {
			return nil, domain.NewValidationError("rental period has not ended yet")
		}
	}

	others, err := otherOrders(ctx, tx, eq.ID, order.ID)
	if err != nil {
		return nil, err
	}

	from := order.Status
	order.Status = target
	order.UpdatedAt = now
	if err := tx.Orders().UpdateStatus(ctx, order); err != nil {
		return nil, err
	}

	next := domain.DeriveEquipmentStatus(eq.Status, target, others)
	if next != eq.Status {
		if err := tx.Equipment().UpdateStatus(ctx, eq.ID, next, now); err != nil {
			return nil, err
		}
		eq.Status = next
		eq.UpdatedAt = now
	}

	if target.IsRelease() {
		if err := l.voidPendingPayment(ctx, tx, order.ID); err != nil {
			return nil, err
		}
	}

	return &applied{from: from, to: target, role: role}, nil
}

func authorizedRole(roles []domain.ActorRole, target domain.OrderStatus) (domain.ActorRole, bool) {
	for _, r := range roles {
		if domain.MayRequest([]domain.ActorRole{r}, target) {
			return r, true
		}
	}
	return "", false
}

// voidPendingPayment cancels an unpaid payment record when its order is released.
func (l *lifecycle) voidPendingPayment(ctx context.Context, tx repository.Tx, orderID int32) error {
	p, err := tx.Payments().GetActiveByOrder(ctx, orderID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if p.Status != domain.PaymentStatusPending {
		return nil
	}
	p.Status = domain.PaymentStatusCancelled
	p.UpdatedAt = l.clock.Now()
	return tx.Payments().UpdateStatus(ctx, p)
}

// transition runs apply in its own transaction. check, when set, re-validates the locked order
// before anything is written; returning errSkip aborts without error.
func (l *lifecycle) transition(ctx context.Context, orderID int32, target domain.OrderStatus, actor domain.Actor, check func(*domain.Order) error) (*domain.Order, *applied, error) {
	var (
		order *domain.Order
		done  *applied
	)
	err := l.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		o, eq, err := l.lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if check != nil {
			if err := check(o); err != nil {
				return err
			}
		}
		done, err = l.apply(ctx, tx, o, eq, target, actor)
		if err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	l.record(order, done)
	return order, done, nil
}

func (l *lifecycle) record(order *domain.Order, done *applied) {
	l.metrics.Transition(string(done.from), string(done.to), string(done.role))
	logger.Info("Order transitioned",
		"order_id", order.ID,
		"equipment_id", order.EquipmentID,
		"from", done.from,
		"to", done.to,
		"actor", done.role,
	)
}

// errSkip aborts a transaction whose work turned out to be unnecessary.
var errSkip = errors.New("skip")
