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

type ReconcileOptions struct {
	// ExpireStalePending rejects Pending orders whose start date passed without an owner decision.
	ExpireStalePending bool
}

type reconciliationService struct {
	lifecycle
	opts ReconcileOptions
}

func NewReconciliationService(store repository.Store, clk clock.Clock, m *metrics.Metrics, opts ReconcileOptions) ReconciliationService {
	return &reconciliationService{lifecycle: lifecycle{store: store, clock: clk, metrics: m}, opts: opts}
}

// RunReconciliationPass applies the time-driven transitions that no user action triggers.
// Each due order is advanced in its own transaction; a failing order is logged and counted
// without stopping the rest. Orders are re-read under lock, so an order another writer moved
// in the meantime is skipped and a second pass right after the first finds nothing to do.
// An error is returned only when the due orders cannot be listed at all.
func (s *reconciliationService) RunReconciliationPass(ctx context.Context) (*domain.ReconcileResult, error) {
	logger.EnterMethod("reconciliationService.RunReconciliationPass")
	began := time.Now()
	now := s.clock.Now()
	result := &domain.ReconcileResult{}

	if s.opts.ExpireStalePending {
		stale, err := s.store.Orders().ListStartedBy(ctx, domain.OrderStatusPending, now)
		if err != nil {
			return s.fail(result, began, err)
		}
		for _, o := range stale {
			if s.advance(ctx, o.ID, domain.OrderStatusPending, domain.OrderStatusRejected, func(o *domain.Order) bool {
				return !o.StartDate.After(s.clock.Now())
			}, result) {
				result.Expired++
			}
		}
	}

	due, err := s.store.Orders().ListStartedBy(ctx, domain.OrderStatusAccepted, now)
	if err != nil {
		return s.fail(result, began, err)
	}
	for _, o := range due {
		if s.advance(ctx, o.ID, domain.OrderStatusAccepted, domain.OrderStatusInProgress, func(o *domain.Order) bool {
			return !o.StartDate.After(s.clock.Now())
		}, result) {
			result.Started++
		}
	}

	// listed after the starts commit so a rental that began and ended since the last pass completes now
	ended, err := s.store.Orders().ListEndedBy(ctx, domain.OrderStatusInProgress, now)
	if err != nil {
		return s.fail(result, began, err)
	}
	for _, o := range ended {
		if s.advance(ctx, o.ID, domain.OrderStatusInProgress, domain.OrderStatusCompleted, func(o *domain.Order) bool {
			return !o.EndDate.After(s.clock.Now())
		}, result) {
			result.Completed++
		}
	}

	outcome := "ok"
	if result.Failed > 0 {
		outcome = "partial"
	}
	s.metrics.ReconcilePass(outcome, result.Started, result.Completed, result.Expired, result.Failed, time.Since(began))
	logger.Info("Reconciliation pass finished",
		"started", result.Started,
		"completed", result.Completed,
		"expired", result.Expired,
		"failed", result.Failed,
		"duration", time.Since(began),
	)
	logger.ExitMethod("reconciliationService.RunReconciliationPass")
	return result, nil
}

// advance moves one order from -> to as the system actor. It reports whether the transition committed.
func (s *reconciliationService) advance(ctx context.Context, orderID int32, from, to domain.OrderStatus, due func(*domain.Order) bool, result *domain.ReconcileResult) bool {
	_, _, err := s.transition(ctx, orderID, to, domain.SystemActor, func(o *domain.Order) error {
		if o.Status != from || !due(o) {
			return errSkip
		}
		return nil
	})
	switch {
	case err == nil:
		return true
	case errors.Is(err, errSkip):
		logger.Debug("Order already moved, skipping", "order_id", orderID, "target", to)
		return false
	default:
		result.Failed++
		logger.Error("Failed to reconcile order",
			"order_id", orderID,
			"target", to,
			"retryable", domain.IsRetryable(err),
			"error", err,
		)
		return false
	}
}

func (s *reconciliationService) fail(result *domain.ReconcileResult, began time.Time, err error) (*domain.ReconcileResult, error) {
	s.metrics.ReconcilePass("error", result.Started, result.Completed, result.Expired, result.Failed, time.Since(began))
	logger.ExitMethodWithError("reconciliationService.RunReconciliationPass", err)
	return result, err
}
