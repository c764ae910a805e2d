package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpcapi "equiprent-backend/internal/api/grpc"
	httpapi "equiprent-backend/internal/api/http"
	"equiprent-backend/internal/bootstrap"
	"equiprent-backend/internal/clock"
	"equiprent-backend/internal/config"
	"equiprent-backend/internal/jobs"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/metrics"
	"equiprent-backend/internal/scheduler"
	"equiprent-backend/internal/security"

	"github.com/joho/godotenv"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
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
	logger.Info("Starting EquipRent backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "grpc_address", cfg.GetServerAddress(), "http_address", cfg.GetHTTPAddress())
	logger.Info("Database configuration", "driver", cfg.Database.Driver, "host", cfg.Database.Host, "database", cfg.Database.Database)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Store
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

	// Initialize Services
	m := metrics.New()
	svcs := bootstrap.NewServices(cfg, store, clock.New(), m)
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)

	jobRunner := jobs.NewJobRunner(&jobs.Services{Reconciliation: svcs.Reconciliation}, cfg, locker, m)

	// Initialize Scheduler
	var cronScheduler *scheduler.Scheduler
	if cfg.SchedulerEnabled() {
		cronScheduler, err = scheduler.NewScheduler(jobRunner)
		if err != nil {
			logger.Error("Failed to create scheduler", "error", err)
			log.Fatalf("Failed to create scheduler: %v", err)
		}
		cronScheduler.Start()
	} else {
		logger.Info("Reconciliation scheduler disabled; run cmd/cronjob separately")
	}

	// Set up gRPC health server
	lis, err := net.Listen("tcp", cfg.GetServerAddress())
	if err != nil {
		logger.Error("Failed to listen", "error", err, "address", cfg.GetServerAddress())
		log.Fatalf("Failed to listen: %v", err)
	}
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(grpcapi.LoggingUnaryInterceptor()))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	// Register reflection service for grpcurl
	reflection.Register(grpcServer)
	go grpcapi.NewHealthReporter(healthServer, store, 10*time.Second).Run(ctx)

	go func() {
		logger.Info("gRPC health server listening", "address", cfg.GetServerAddress())
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC server error", "error", err)
		}
	}()

	// Set up HTTP API
	httpServer := &http.Server{
		Addr: cfg.GetHTTPAddress(),
		Handler: httpapi.NewRouter(httpapi.Dependencies{
			Orders:       svcs.Orders,
			Equipment:    svcs.Equipment,
			Payments:     svcs.Payments,
			Reconciler:   jobRunner,
			Store:        store,
			TokenManager: tokenManager,
			Metrics:      m,
			Config:       cfg,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("HTTP server listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	// Graceful shutdown
	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}
	grpcServer.GracefulStop()
	if cronScheduler != nil {
		cronScheduler.Stop()
	}
	logger.Info("Server stopped. Goodbye!")
}
