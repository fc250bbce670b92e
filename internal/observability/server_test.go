package observability_test

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rafaeljc/bifrost/internal/config"
	"github.com/rafaeljc/bifrost/internal/logger"
	"github.com/rafaeljc/bifrost/internal/observability"
)

func testObsConfig() *config.ObservabilityConfig {
	return &config.ObservabilityConfig{
		Port:          "0",
		Timeout:       time.Second,
		LivenessPath:  "/healthz",
		ReadinessPath: "/readyz",
		MetricsPath:   "/metrics",
	}
}

func upChecker(name string) observability.Checker {
	return observability.CheckerFunc{ComponentName: name, Fn: func(context.Context) error { return nil }}
}

func downChecker(name string) observability.Checker {
	return observability.CheckerFunc{ComponentName: name, Fn: func(context.Context) error { return errors.New("connection refused") }}
}

func TestServer_HealthEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("Liveness always answers ok", func(t *testing.T) {
		t.Parallel()

		srv := observability.NewServer(logger.Nop(), testObsConfig(), downChecker("redis"))
		rec := httptest.NewRecorder()

		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", rec.Body.String())
	})

	t.Run("Readiness is up without checkers", func(t *testing.T) {
		t.Parallel()

		srv := observability.NewServer(logger.Nop(), testObsConfig())
		rec := httptest.NewRecorder()

		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Readiness reports each component", func(t *testing.T) {
		t.Parallel()

		srv := observability.NewServer(logger.Nop(), testObsConfig(), upChecker("postgres"), downChecker("redis"))
		rec := httptest.NewRecorder()

		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		var body struct {
			Status map[string]string `json:"status"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "up", body.Status["postgres"])
		assert.Contains(t, body.Status["redis"], "down")
	})

	t.Run("Metrics are exposed", func(t *testing.T) {
		t.Parallel()

		srv := observability.NewServer(logger.Nop(), testObsConfig())
		rec := httptest.NewRecorder()

		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "bifrost_copy_merges_total")
	})
}

func TestServer_ShutdownBeforeStart(t *testing.T) {
	t.Parallel()

	srv := observability.NewServer(nil, testObsConfig())

	assert.NoError(t, srv.Shutdown(context.Background()))
}

func TestServer_Serve(t *testing.T) {
	t.Parallel()

	// Arrange
	srv := observability.NewServer(logger.Nop(), testObsConfig(), upChecker("redis"))
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	// Act
	srv.Serve(lis)

	// Assert
	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://" + lis.Addr().String() + "/readyz")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, srv.Shutdown(context.Background()))
	_, err = http.Get("http://" + lis.Addr().String() + "/healthz")
	assert.Error(t, err)
}

func TestNewServer_NilConfigPanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { observability.NewServer(logger.Nop(), nil) })
}
