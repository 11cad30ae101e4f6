package server

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// WatcherService is the health service name reported by the watch daemon.
// The empty name reports overall server health.
const WatcherService = "kgpipeline.Watcher"

// Health exposes the gRPC health protocol for the watch daemon. It carries no
// query API.
type Health struct {
	grpc   *grpc.Server
	hs     *health.Server
	logger *slog.Logger
}

func NewHealth(logger *slog.Logger) *Health {
	if logger == nil {
		logger = slog.Default()
	}
	gs := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	// reflection for grpcurl
	reflection.Register(gs)

	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(WatcherService, healthpb.HealthCheckResponse_NOT_SERVING)
	return &Health{grpc: gs, hs: hs, logger: logger}
}

// SetServing flips both the overall and the watcher status.
func (h *Health) SetServing(ok bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		st = healthpb.HealthCheckResponse_SERVING
	}
	h.hs.SetServingStatus("", st)
	h.hs.SetServingStatus(WatcherService, st)
	h.logger.Debug("health.status", "serving", ok)
}

// Serve blocks until ctx is done or the listener fails. On cancellation the
// status goes NOT_SERVING before a graceful stop.
func (h *Health) Serve(ctx context.Context, lis net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		h.logger.Info("health.grpc.listening", "addr", lis.Addr().String())
		errCh <- h.grpc.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		h.hs.Shutdown()
		h.grpc.GracefulStop()
		h.logger.Info("health.grpc.stopped")
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	}
}
