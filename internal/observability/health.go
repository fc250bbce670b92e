package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"
)

// liveness responds with 200 OK if the HTTP server is running.
// It is used by Kubernetes to restart the pod if the process is deadlocked.
func (s *Server) liveness(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// readiness checks all registered dependencies.
// Returns 200 OK only if all checkers pass. Used by Kubernetes to route traffic.
// With no checkers registered (in-memory backends) it always reports ready.
func (s *Server) readiness(w http.ResponseWriter, r *http.Request) {
	// Enforce the configured timeout to ensure we respond to Kubernetes in time.
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Timeout)
	defer cancel()

	statusMap, hasError := RunChecks(ctx, s.logger, s.checkers)

	w.Header().Set("Content-Type", "application/json")
	if hasError {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	// We ignore the encoder error because the status code has already been written.
	// The JSON body is for human debugging; Kubernetes only cares about the status code.
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": statusMap,
	})
}

// RunChecks runs every checker concurrently and returns the per-component
// status ("up" or "down: <err>") and whether any of them failed.
// Shared by the HTTP readiness endpoint and the gRPC health service.
func RunChecks(ctx context.Context, logger *slog.Logger, checkers []Checker) (map[string]string, bool) {
	errs := make([]error, len(checkers))

	var g errgroup.Group
	for i, c := range checkers {
		g.Go(func() error {
			errs[i] = c.Check(ctx)
			return nil
		})
	}
	_ = g.Wait()

	statusMap := make(map[string]string, len(checkers))
	failed := false
	for i, c := range checkers {
		if errs[i] == nil {
			statusMap[c.Name()] = "up"
			continue
		}
		// WARN: the orchestrator retries, an outage alerts elsewhere.
		logger.Warn("health check failed",
			slog.String("component", c.Name()),
			slog.String("error", errs[i].Error()),
		)
		statusMap[c.Name()] = fmt.Sprintf("down: %v", errs[i])
		failed = true
	}
	return statusMap, failed
}
