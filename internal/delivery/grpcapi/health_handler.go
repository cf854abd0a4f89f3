package grpcapi

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health-check name reported next to the overall status.
const ServiceName = "agromarket.checkout.v1.CheckoutService"

type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler serves grpc.health.v1 and flips between SERVING and
// NOT_SERVING with the database's reachability.
type HealthHandler struct {
	server *health.Server
	db     Pinger
	logger *zap.Logger
}

func NewHealthHandler(db Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		server: health.NewServer(),
		db:     db,
		logger: logger,
	}
}

func (h *HealthHandler) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.server)
}

// Check pings the database once and publishes the result.
func (h *HealthHandler) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Warn("database ping failed", zap.Error(err))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(ServiceName, status)
	return status
}

// Run checks every interval until ctx is done, then reports NOT_SERVING to
// every watcher.
func (h *HealthHandler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
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
