package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"equiprent-backend/internal/jobs"
	"equiprent-backend/internal/logger"

	"github.com/robfig/cron/v3"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// NewScheduler creates a scheduler and registers the reconciliation job.
// A pass still running when the next tick fires makes that tick a no-op.
func NewScheduler(jobRunner *jobs.JobRunner) (*Scheduler, error) {
	cl := cronLogger{log: logger.WithService("cron")}
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}
	if err := s.registerJobs(); err != nil {
		return nil, err
	}
	return s, nil
}

// registerJobs registers all scheduled jobs with the cron scheduler
func (s *Scheduler) registerJobs() error {
	cfg := s.jobs.Config().Scheduler

	if _, err := s.cron.AddFunc(cfg.ReconcileOrders, s.jobs.ReconcileOrders); err != nil {
		return fmt.Errorf("register %s job with schedule %q: %w", jobs.ReconcileOrdersJob, cfg.ReconcileOrders, err)
	}

	logger.Info("All cron jobs registered successfully", "reconcile_orders", cfg.ReconcileOrders)
	return nil
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop stops scheduling new passes and waits for a running one to finish
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// NextRun returns when the reconciliation job fires next, zero before Start
func (s *Scheduler) NextRun() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// cronLogger adapts slog to cron.Logger
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
