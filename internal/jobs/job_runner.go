package jobs

import (
	"context"
	"errors"
	"fmt"

	"equiprent-backend/internal/config"
	"equiprent-backend/internal/lock"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/metrics"
	"equiprent-backend/internal/service"
)

// ErrPassInProgress is returned when another instance holds the reconciliation lease.
var ErrPassInProgress = errors.New("reconciliation pass already running elsewhere")

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	services *Services
	config   *config.Config
	locker   lock.Locker
	metrics  *metrics.Metrics
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Reconciliation service.ReconciliationService
}

// NewJobRunner creates a new job runner with all dependencies. A nil locker means single-instance mode.
func NewJobRunner(services *Services, cfg *config.Config, locker lock.Locker, m *metrics.Metrics) *JobRunner {
	if locker == nil {
		locker = lock.Noop()
	}
	return &JobRunner{
		services: services,
		config:   cfg,
		locker:   locker,
		metrics:  m,
	}
}

// Config returns the configuration the runner was built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
			err = fmt.Errorf("job %s panicked: %v", jobName, r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	if err = jobFunc(); err != nil {
		logger.Error("Job failed", "job", jobName, "error", err)
		return err
	}
	logger.Info("Job completed", "job", jobName)
	return nil
}

// withLease runs fn while holding the named lease for the configured TTL.
func (jr *JobRunner) withLease(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	logger.ExternalServiceCall("lock", "TryLock", "key", name)
	release, ok, err := jr.locker.TryLock(ctx, name, jr.config.Lock.TTL)
	logger.ExternalServiceResult("lock", "TryLock", err, "key", name, "acquired", ok)
	if err != nil {
		return fmt.Errorf("acquire %s lease: %w", name, err)
	}
	if !ok {
		return ErrPassInProgress
	}
	defer func() {
		// the pass context may already be done; release on a fresh one
		relCtx, cancel := context.WithTimeout(context.Background(), jr.config.Lock.TTL)
		defer cancel()
		if err := release(relCtx); err != nil {
			logger.Warn("Failed to release lease", "key", name, "error", err)
		}
	}()
	return fn(ctx)
}
