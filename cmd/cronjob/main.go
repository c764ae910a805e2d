package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"equiprent-backend/internal/bootstrap"
	"equiprent-backend/internal/clock"
	"equiprent-backend/internal/config"
	"equiprent-backend/internal/jobs"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/metrics"
	"equiprent-backend/internal/scheduler"

	"github.com/joho/godotenv"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'reconcile-orders')")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Ignoring .env: %v", err)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting EquipRent cronjob runner...", "log_level", cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, storeCloser, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open store", "error", err)
		log.Fatalf("Failed to open store: %v", err)
	}
	defer storeCloser.Close()

	locker, lockCloser, err := bootstrap.NewLocker(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize lease lock", "error", err)
		log.Fatalf("Failed to initialize lease lock: %v", err)
	}
	defer lockCloser.Close()

	m := metrics.New()
	svcs := bootstrap.NewServices(cfg, store, clock.New(), m)

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(&jobs.Services{Reconciliation: svcs.Reconciliation}, cfg, locker, m)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		if err := runJobOnce(ctx, jobRunner, *runOnce); err != nil {
			logger.Error("Job execution failed", "job", *runOnce, "error", err)
			os.Exit(1)
		}
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		logger.Error("Failed to create scheduler", "error", err)
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	<-ctx.Done()

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once
func runJobOnce(ctx context.Context, jobRunner *jobs.JobRunner, jobName string) error {
	switch jobName {
	case jobs.ReconcileOrdersJob:
		result, err := jobRunner.RunReconcileOrders(ctx)
		if errors.Is(err, jobs.ErrPassInProgress) {
			fmt.Println("skipped: another instance holds the reconciliation lease")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("started=%d completed=%d expired=%d failed=%d\n", result.Started, result.Completed, result.Expired, result.Failed)
		return nil
	default:
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - %s\n", jobs.ReconcileOrdersJob)
		return fmt.Errorf("unknown job %q", jobName)
	}
}
