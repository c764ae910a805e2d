package jobs

import (
	"context"
	"errors"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"

	"github.com/google/uuid"
)

const ReconcileOrdersJob = "reconcile-orders"

// ReconcileOrders is the cron entry point. Failures are logged; the next tick retries.
func (jr *JobRunner) ReconcileOrders() {
	_ = jr.runWithRecovery(ReconcileOrdersJob, func() error {
		_, err := jr.RunReconcileOrders(context.Background())
		if errors.Is(err, ErrPassInProgress) {
			return nil
		}
		return err
	})
}

// RunReconcileOrders runs one reconciliation pass bounded by the configured pass timeout.
// Used by the scheduler, the admin endpoint and the run-once command.
func (jr *JobRunner) RunReconcileOrders(ctx context.Context) (*domain.ReconcileResult, error) {
	passID := uuid.NewString()
	log := logger.WithPass(ReconcileOrdersJob, passID)

	ctx, cancel := context.WithTimeout(ctx, jr.config.Scheduler.PassTimeout)
	defer cancel()

	var result *domain.ReconcileResult
	err := jr.withLease(ctx, ReconcileOrdersJob, func(ctx context.Context) error {
		log.Info("Reconciliation pass started")
		var err error
		result, err = jr.services.Reconciliation.RunReconciliationPass(ctx)
		return err
	})
	if errors.Is(err, ErrPassInProgress) {
		jr.metrics.ReconcilePass("skipped", 0, 0, 0, 0, 0)
		log.Info("Reconciliation pass skipped, lease held by another instance")
		return nil, err
	}
	if err != nil {
		log.Error("Reconciliation pass failed", "error", err)
		return result, err
	}

	log.Info("Reconciliation pass done",
		"started", result.Started,
		"completed", result.Completed,
		"expired", result.Expired,
		"failed", result.Failed,
	)
	return result, nil
}
