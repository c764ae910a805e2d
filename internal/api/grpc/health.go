package grpc

import (
	"context"
	"time"

	"equiprent-backend/internal/logger"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name the coordinator reports under in the gRPC health service.
const ServiceName = "equiprent.Coordinator"

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthReporter keeps the health server in step with store reachability.
type HealthReporter struct {
	server   *health.Server
	store    Pinger
	interval time.Duration
	timeout  time.Duration
}

func NewHealthReporter(server *health.Server, store Pinger, interval time.Duration) *HealthReporter {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &HealthReporter{
		server:   server,
		store:    store,
		interval: interval,
		timeout:  interval / 2,
	}
}

// Check pings the store once and publishes the result.
func (h *HealthReporter) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := h.store.Ping(ctx); err != nil {
		logger.Warn("Store health check failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(ServiceName, status)
	return status
}

// Run checks immediately and then on every tick until ctx is done.
func (h *HealthReporter) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}
