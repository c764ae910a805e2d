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

type paymentService struct {
	lifecycle
}

func NewPaymentService(store repository.Store, clk clock.Clock, m *metrics.Metrics) PaymentService {
	return &paymentService{lifecycle{store: store, clock: clk, metrics: m}}
}

// InitiatePayment opens the order's payment record. Calling it again returns the same record.
func (s *paymentService) InitiatePayment(ctx context.Context, orderID, actorID int32) (*domain.PaymentRecord, error) {
	logger.EnterMethod("paymentService.InitiatePayment", "orderID", orderID, "actorID", actorID)

	var record *domain.PaymentRecord
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		order, _, err := s.lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order.RenterID != actorID {
			return domain.ErrPermissionDenied
		}

		existing, err := tx.Payments().GetActiveByOrder(ctx, order.ID)
		if err == nil {
			record = existing
			return nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		if order.Status != domain.OrderStatusAccepted {
			return domain.NewConflictError(fmt.Sprintf("order is %s, payment requires ACCEPTED", order.Status))
		}
		now := s.clock.Now()
		record = &domain.PaymentRecord{
			OrderID:     order.ID,
			AmountCents: order.TotalAmountCents,
			Status:      domain.PaymentStatusPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return tx.Payments().Create(ctx, record)
	})
	if err != nil {
		logger.ExitMethodWithError("paymentService.InitiatePayment", err)
		return nil, err
	}

	logger.ExitMethod("paymentService.InitiatePayment", "paymentID", record.ID)
	return record, nil
}

// OnPaymentSucceeded marks the order paid and starts it immediately when its start date has passed.
// A repeated notification for a paid order succeeds without changing anything.
func (s *paymentService) OnPaymentSucceeded(ctx context.Context, orderID int32) error {
	logger.EnterMethod("paymentService.OnPaymentSucceeded", "orderID", orderID)

	var (
		order     *domain.Order
		done      *applied
		duplicate bool
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		o, eq, err := s.lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		order = o

		record, err := tx.Payments().GetActiveByOrder(ctx, o.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if record != nil && record.Status == domain.PaymentStatusPaid {
			duplicate = true
			return nil
		}
		if o.Status != domain.OrderStatusAccepted && o.Status != domain.OrderStatusInProgress {
			return domain.NewConflictError(fmt.Sprintf("cannot accept payment for %s order", o.Status))
		}

		now := s.clock.Now()
		if record == nil {
			record = &domain.PaymentRecord{
				OrderID:     o.ID,
				AmountCents: o.TotalAmountCents,
				Status:      domain.PaymentStatusPaid,
				PaidAt:      &now,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := tx.Payments().Create(ctx, record); err != nil {
				return err
			}
		} else {
			record.Status = domain.PaymentStatusPaid
			record.PaidAt = &now
			record.UpdatedAt = now
			if err := tx.Payments().UpdateStatus(ctx, record); err != nil {
				return err
			}
		}

		if o.Status == domain.OrderStatusAccepted && !now.Before(o.StartDate) {
			done, err = s.apply(ctx, tx, o, eq, domain.OrderStatusInProgress, domain.SystemActor)
			return err
		}
		return nil
	})
	if err != nil {
		s.metrics.PaymentEvent("succeeded", "rejected")
		logger.ExitMethodWithError("paymentService.OnPaymentSucceeded", err)
		return err
	}

	switch {
	case duplicate:
		s.metrics.PaymentEvent("succeeded", "duplicate")
		logger.Info("Duplicate payment success ignored", "order_id", orderID)
	default:
		s.metrics.PaymentEvent("succeeded", "applied")
		if done != nil {
			s.record(order, done)
		}
	}
	logger.ExitMethod("paymentService.OnPaymentSucceeded", "status", order.Status)
	return nil
}

// OnPaymentCancelled voids the payment and releases an order that has not started.
// A paid order cannot be cancelled through this path.
func (s *paymentService) OnPaymentCancelled(ctx context.Context, orderID int32) error {
	logger.EnterMethod("paymentService.OnPaymentCancelled", "orderID", orderID)

	var (
		order *domain.Order
		done  *applied
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		o, eq, err := s.lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		order = o

		record, err := tx.Payments().GetActiveByOrder(ctx, o.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if record != nil && record.Status == domain.PaymentStatusPaid {
			return domain.NewConflictError("payment already settled")
		}

		switch o.Status {
		case domain.OrderStatusCancelled, domain.OrderStatusRejected:
			if record != nil {
				return s.voidPendingPayment(ctx, tx, o.ID)
			}
			return nil
		case domain.OrderStatusPending, domain.OrderStatusAccepted:
			// voids the pending record as part of the release
			done, err = s.apply(ctx, tx, o, eq, domain.OrderStatusCancelled, domain.SystemActor)
			return err
		default:
			return domain.NewConflictError(fmt.Sprintf("cannot cancel payment for %s order", o.Status))
		}
	})
	if err != nil {
		s.metrics.PaymentEvent("cancelled", "rejected")
		logger.ExitMethodWithError("paymentService.OnPaymentCancelled", err)
		return err
	}

	s.metrics.PaymentEvent("cancelled", "applied")
	if done != nil {
		s.record(order, done)
	}
	logger.ExitMethod("paymentService.OnPaymentCancelled", "status", order.Status)
	return nil
}
