package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"equiprent-backend/internal/clock"
	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"
)

type equipmentService struct {
	store repository.Store
	clock clock.Clock
}

func NewEquipmentService(store repository.Store, clk clock.Clock) EquipmentService {
	return &equipmentService{store: store, clock: clk}
}

func (s *equipmentService) RegisterEquipment(ctx context.Context, eq *domain.Equipment) error {
	logger.EnterMethod("equipmentService.RegisterEquipment", "ownerID", eq.OwnerID, "name", eq.Name)

	if eq.OwnerID == 0 {
		return domain.NewValidationError("owner is required")
	}
	if eq.DailyPriceCents <= 0 {
		return domain.NewValidationError("daily price must be positive")
	}
	if eq.Status == "" {
		eq.Status = domain.EquipmentStatusAvailable
	}
	if !eq.Status.IsOwnerSettable() {
		return domain.NewValidationError(fmt.Sprintf("equipment cannot be registered as %s", eq.Status))
	}

	now := s.clock.Now()
	eq.CreatedAt = now
	eq.UpdatedAt = now
	if err := s.store.Equipment().Create(ctx, eq); err != nil {
		logger.ExitMethodWithError("equipmentService.RegisterEquipment", err)
		return err
	}

	logger.ExitMethod("equipmentService.RegisterEquipment", "equipmentID", eq.ID)
	return nil
}

func (s *equipmentService) GetEquipment(ctx context.Context, id int32) (*domain.Equipment, error) {
	eq, err := s.store.Equipment().GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, &domain.Error{Kind: domain.KindNotFound, Reason: "equipment not found", Err: err}
	}
	return eq, err
}

func (s *equipmentService) IsAvailable(ctx context.Context, equipmentID int32, start, end time.Time) (bool, error) {
	if !end.After(start) {
		return false, domain.NewValidationError("end date must be after start date")
	}

	eq, err := s.store.Equipment().GetByID(ctx, equipmentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if !eq.Status.AcceptsBookings() {
		return false, nil
	}

	active, err := s.store.Orders().ListActiveByEquipment(ctx, equipmentID)
	if err != nil {
		return false, err
	}
	for i := range active {
		if active[i].Overlaps(start, end) {
			return false, nil
		}
	}
	return true, nil
}

func (s *equipmentService) CheckAvailability(ctx context.Context, equipmentID int32, start, end time.Time) (bool, error) {
	if err := domain.ValidateRange(start, end, s.clock.Now()); err != nil {
		return false, err
	}
	return s.IsAvailable(ctx, equipmentID, start, end)
}

// ConfirmReturn is the owner acknowledging the item is back: PendingReturn -> Available,
// or Rented when a later booking already holds it.
func (s *equipmentService) ConfirmReturn(ctx context.Context, equipmentID, actorID int32, isAdmin bool) (*domain.Equipment, error) {
	logger.EnterMethod("equipmentService.ConfirmReturn", "equipmentID", equipmentID, "actorID", actorID)

	var eq *domain.Equipment
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		eq, err = s.lockEquipment(ctx, tx, equipmentID, domain.NewActor(actorID, isAdmin))
		if err != nil {
			return err
		}
		if eq.Status != domain.EquipmentStatusPendingReturn {
			return domain.NewConflictError(fmt.Sprintf("equipment is %s, not awaiting return", eq.Status))
		}

		others, err := otherOrders(ctx, tx, eq.ID, 0)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		eq.Status = domain.ReturnedStatus(others.Active)
		eq.UpdatedAt = now
		return tx.Equipment().UpdateStatus(ctx, eq.ID, eq.Status, now)
	})
	if err != nil {
		logger.ExitMethodWithError("equipmentService.ConfirmReturn", err)
		return nil, err
	}

	logger.Info("Equipment return confirmed", "equipment_id", eq.ID, "status", eq.Status)
	logger.ExitMethod("equipmentService.ConfirmReturn")
	return eq, nil
}

// SetEquipmentStatus handles owner toggles between Available, Maintenance and Offline.
func (s *equipmentService) SetEquipmentStatus(ctx context.Context, equipmentID int32, status domain.EquipmentStatus, actorID int32, isAdmin bool) (*domain.Equipment, error) {
	logger.EnterMethod("equipmentService.SetEquipmentStatus", "equipmentID", equipmentID, "status", status, "actorID", actorID)

	if !status.IsOwnerSettable() {
		err := domain.NewValidationError(fmt.Sprintf("status %s cannot be set directly", status))
		logger.ExitMethodWithError("equipmentService.SetEquipmentStatus", err)
		return nil, err
	}

	var eq *domain.Equipment
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		eq, err = s.lockEquipment(ctx, tx, equipmentID, domain.NewActor(actorID, isAdmin))
		if err != nil {
			return err
		}
		if eq.Status == status {
			return nil
		}
		if eq.Status == domain.EquipmentStatusRented || eq.Status == domain.EquipmentStatusPendingReturn {
			return domain.NewConflictError(fmt.Sprintf("equipment is %s", eq.Status))
		}
		others, err := otherOrders(ctx, tx, eq.ID, 0)
		if err != nil {
			return err
		}
		if others.Active {
			return domain.NewConflictError("equipment has active orders")
		}

		now := s.clock.Now()
		eq.Status = status
		eq.UpdatedAt = now
		return tx.Equipment().UpdateStatus(ctx, eq.ID, status, now)
	})
	if err != nil {
		logger.ExitMethodWithError("equipmentService.SetEquipmentStatus", err)
		return nil, err
	}

	logger.ExitMethod("equipmentService.SetEquipmentStatus", "status", eq.Status)
	return eq, nil
}

func (s *equipmentService) lockEquipment(ctx context.Context, tx repository.Tx, equipmentID int32, actor domain.Actor) (*domain.Equipment, error) {
	eq, err := tx.Equipment().GetByIDForUpdate(ctx, equipmentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrEquipmentNotFound
		}
		return nil, err
	}
	if !actor.CanOperateEquipment(eq) {
		return nil, domain.ErrPermissionDenied
	}
	return eq, nil
}
