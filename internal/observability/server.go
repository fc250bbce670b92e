package observability

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rafaeljc/bifrost/internal/config"
	"github.com/rafaeljc/bifrost/internal/validation"
)

// Server serves liveness, readiness and Prometheus metrics on the admin port,
// apart from the data API.
type Server struct {
	logger   *slog.Logger
	cfg      *config.ObservabilityConfig
	router   *chi.Mux
	server   *http.Server
	checkers []Checker
}

// NewServer creates the admin server. checkers feed the readiness endpoint; with
// none the service is always ready.
func NewServer(logger *slog.Logger, cfg *config.ObservabilityConfig, checkers ...Checker) *Server {
	validation.AssertNotNil(cfg, "observability config")
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		logger:   logger,
		cfg:      cfg,
		router:   chi.NewRouter(),
		checkers: checkers,
	}

	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.NoCache)
	s.router.Get(cfg.LivenessPath, s.liveness)
	s.router.Get(cfg.ReadinessPath, s.readiness)
	s.router.Method(http.MethodGet, cfg.MetricsPath, promhttp.Handler())

	return s
}

// Start listens on the configured port and serves in the background.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", net.JoinHostPort("", s.cfg.Port))
	if err != nil {
		return err
	}
	s.Serve(lis)
	return nil
}

// Serve serves on lis in the background until Shutdown.
func (s *Server) Serve(lis net.Listener) {
	s.server = &http.Server{
		Handler:           s.router,
		ReadTimeout:       s.cfg.Timeout,
		ReadHeaderTimeout: s.cfg.Timeout,
		WriteTimeout:      s.cfg.Timeout,
		IdleTimeout:       3 * s.cfg.Timeout,
	}

	s.logger.Info("observability server listening",
		slog.String("addr", lis.Addr().String()),
		slog.String("liveness_path", s.cfg.LivenessPath),
		slog.String("readiness_path", s.cfg.ReadinessPath),
		slog.String("metrics_path", s.cfg.MetricsPath),
	)

	go func() {
		if err := s.server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("observability server failed", slog.Any("error", err))
		}
	}()
}

// Handler exposes the router for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Shutdown stops the server, waiting for in-flight health requests. It is a no-op
// before Start.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Info("stopping observability server")
	return s.server.Shutdown(ctx)
}
