package observability

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/rafaeljc/bifrost/internal/config"
	"github.com/rafaeljc/bifrost/internal/validation"
)

// DataServiceName is the service name reported by the gRPC health endpoint,
// alongside the overall ("") status.
const DataServiceName = "bifrost.data"

// GRPCHealth serves the standard grpc.health.v1 protocol so gRPC-native load
// balancers can poll the process. Status follows the registered checkers,
// re-evaluated every Period.
type GRPCHealth struct {
	logger   *slog.Logger
	cfg      *config.GRPCHealthConfig
	checkers []Checker

	server *grpc.Server
	health *health.Server

	stopOnce sync.Once
	done     chan struct{}
}

// NewGRPCHealth creates the health server. Nothing listens until Start.
func NewGRPCHealth(logger *slog.Logger, cfg *config.GRPCHealthConfig, checkers ...Checker) *GRPCHealth {
	validation.AssertNotNil(cfg, "grpc health config")
	if logger == nil {
		logger = slog.Default()
	}

	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	g := &GRPCHealth{
		logger:   logger.With("component", "grpc_health"),
		cfg:      cfg,
		checkers: checkers,
		server:   srv,
		health:   hs,
		done:     make(chan struct{}),
	}
	g.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return g
}

// Start listens on the configured port and serves in the background.
// It is non-blocking; the check loop stops on Stop or when ctx is cancelled.
func (g *GRPCHealth) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%s", g.cfg.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return g.Serve(ctx, lis)
}

// Serve is Start on an existing listener.
func (g *GRPCHealth) Serve(ctx context.Context, lis net.Listener) error {
	g.Refresh(ctx)

	go func() {
		g.logger.Info("starting grpc health server", slog.String("addr", lis.Addr().String()))
		if err := g.server.Serve(lis); err != nil && err != grpc.ErrServerStopped {
			g.logger.Error("grpc health server failed", slog.String("error", err.Error()))
		}
	}()

	go g.loop(ctx)
	return nil
}

// Refresh runs all checkers once and publishes the resulting status.
func (g *GRPCHealth) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	period := g.cfg.Period
	if period <= 0 {
		period = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, period)
	defer cancel()

	_, hasError := RunChecks(ctx, g.logger, g.checkers)
	status := healthpb.HealthCheckResponse_SERVING
	if hasError {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	g.setStatus(status)
	return status
}

// Stop marks every service NOT_SERVING and gracefully stops the server.
func (g *GRPCHealth) Stop() {
	g.stopOnce.Do(func() {
		close(g.done)
		g.logger.Info("stopping grpc health server")
		g.health.Shutdown()
		g.server.GracefulStop()
	})
}

func (g *GRPCHealth) loop(ctx context.Context) {
	period := g.cfg.Period
	if period <= 0 {
		period = 10 * time.Second
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-g.done:
			return
		case <-ticker.C:
			g.Refresh(ctx)
		}
	}
}

func (g *GRPCHealth) setStatus(status healthpb.HealthCheckResponse_ServingStatus) {
	g.health.SetServingStatus("", status)
	g.health.SetServingStatus(DataServiceName, status)
}
