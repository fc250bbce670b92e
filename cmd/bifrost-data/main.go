// Package main initializes and runs the Bifrost data service.
//
// It acts as the composition root for the HTTP Data API, wiring up the
// configured backends, the background syncer and the admin servers, and
// handling the process lifecycle.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rafaeljc/bifrost/internal/app"
	"github.com/rafaeljc/bifrost/internal/config"
	"github.com/rafaeljc/bifrost/internal/dataapi"
	"github.com/rafaeljc/bifrost/internal/database"
	"github.com/rafaeljc/bifrost/internal/logger"
	"github.com/rafaeljc/bifrost/internal/observability"
)

// main is the application entrypoint.
func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// run executes the service lifecycle.
func run() error {
	// -------------------------------------------------------------------------
	// 1. Configuration & Logging
	// -------------------------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(&cfg.App)
	slog.SetDefault(log)
	cfg.LogConfig(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// -------------------------------------------------------------------------
	// 2. Wiring (Dependency Injection)
	// -------------------------------------------------------------------------
	appCtx, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	api := dataapi.NewAPI(log, appCtx.Engine, appCtx.Resolver, dataapi.WithMaxBodyBytes(cfg.Server.Data.MaxBodyBytes))

	// -------------------------------------------------------------------------
	// 3. Background Workers
	// -------------------------------------------------------------------------
	var workers sync.WaitGroup

	if cfg.Syncer.Enabled {
		workers.Add(1)
		go func() {
			defer workers.Done()
			if err := appCtx.Syncer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("syncer stopped", slog.String("error", err.Error()))
			}
		}()
	}

	if appCtx.DB != nil {
		workers.Add(1)
		go func() {
			defer workers.Done()
			database.RunPoolMonitor(ctx, appCtx.DB, cfg.Database.MonitorInterval)
		}()
	}

	// -------------------------------------------------------------------------
	// 4. Servers
	// -------------------------------------------------------------------------
	obsServer := observability.NewServer(log, &cfg.Observability, appCtx.Checkers...)
	if err := obsServer.Start(); err != nil {
		return fmt.Errorf("observability server: %w", err)
	}

	var grpcHealth *observability.GRPCHealth
	if cfg.Server.GRPCHealth.Enabled {
		grpcHealth = observability.NewGRPCHealth(log, &cfg.Server.GRPCHealth, appCtx.Checkers...)
		if err := grpcHealth.Start(ctx); err != nil {
			return err
		}
		defer grpcHealth.Stop()
	}

	addr := net.JoinHostPort(cfg.Server.Data.Host, cfg.Server.Data.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}

	httpServer := &http.Server{
		Handler:           api,
		ReadTimeout:       cfg.Server.Data.ReadTimeout,
		WriteTimeout:      cfg.Server.Data.WriteTimeout,
		ReadHeaderTimeout: cfg.Server.Data.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.Data.IdleTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("data api listening", slog.String("addr", addr))
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("failed to serve http: %w", err)
		}
	}()

	// -------------------------------------------------------------------------
	// 5. Graceful Shutdown
	// -------------------------------------------------------------------------
	var runErr error
	select {
	case runErr = <-errChan:
		stop()
	case <-ctx.Done():
		log.Info("shutdown signal received, stopping servers")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("data api shutdown failed", slog.String("error", err.Error()))
	}
	if err := obsServer.Shutdown(shutdownCtx); err != nil {
		log.Error("observability shutdown failed", slog.String("error", err.Error()))
	}

	workers.Wait()
	log.Info("service exited successfully")
	return runErr
}
