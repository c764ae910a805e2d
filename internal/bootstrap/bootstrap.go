// Package bootstrap builds the store, lock and services shared by the server and cronjob binaries.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"equiprent-backend/internal/clock"
	"equiprent-backend/internal/config"
	"equiprent-backend/internal/lock"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/metrics"
	"equiprent-backend/internal/repository"
	"equiprent-backend/internal/repository/memory"
	"equiprent-backend/internal/repository/postgres"
	"equiprent-backend/internal/service"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// Services is the full set of coordinator services over one store.
type Services struct {
	Orders         service.OrderService
	Equipment      service.EquipmentService
	Payments       service.PaymentService
	Reconciliation service.ReconciliationService
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenStore connects the configured store. The returned closer releases the connection pool.
func OpenStore(ctx context.Context, cfg *config.Config) (repository.Store, io.Closer, error) {
	if cfg.Database.Driver == "memory" {
		logger.Warn("Using in-memory store, data will not survive a restart")
		return memory.NewStore(), nopCloser{}, nil
	}

	logger.Debug("Connecting to database...", "connection_string", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database))
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}
	logger.Info("Database connection established", "host", cfg.Database.Host, "database", cfg.Database.Database)

	if cfg.Database.Migrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("apply schema: %w", err)
		}
		logger.Info("Database schema applied")
	}
	return postgres.NewStore(db), db, nil
}

// NewLocker returns the lease lock for reconciliation passes, nil when running single-instance.
func NewLocker(ctx context.Context, cfg *config.Config) (lock.Locker, io.Closer, error) {
	if cfg.Lock.Type != "redis" {
		return nil, nopCloser{}, nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Lock.RedisAddr, DB: cfg.Lock.RedisDB})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	logger.Info("Redis lease lock enabled", "addr", cfg.Lock.RedisAddr)
	return lock.NewRedisLocker(client), client, nil
}

// NewServices wires every coordinator service against store.
func NewServices(cfg *config.Config, store repository.Store, clk clock.Clock, m *metrics.Metrics) *Services {
	return &Services{
		Orders:    service.NewOrderService(store, clk, m),
		Equipment: service.NewEquipmentService(store, clk),
		Payments:  service.NewPaymentService(store, clk, m),
		Reconciliation: service.NewReconciliationService(store, clk, m, service.ReconcileOptions{
			ExpireStalePending: cfg.ExpireStalePending(),
		}),
	}
}
