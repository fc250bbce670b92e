package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rafaeljc/bifrost/internal/config"
)

func TestNewWithWriter(t *testing.T) {
	t.Parallel()

	t.Run("Should emit JSON with global attributes", func(t *testing.T) {
		t.Parallel()

		// Arrange
		var buf bytes.Buffer
		cfg := &config.AppConfig{
			Name:        "bifrost-data",
			Version:     "1.2.3",
			Environment: config.EnvironmentProduction,
			LogLevel:    "info",
			LogFormat:   "json",
		}

		// Act
		NewWithWriter(cfg, &buf).Info("hello", slog.String("experiment_id", "onboarding_cta_copy"))

		// Assert
		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "hello", line["msg"])
		assert.Equal(t, "bifrost-data", line["service"])
		assert.Equal(t, "1.2.3", line["version"])
		assert.Equal(t, "production", line["env"])
		assert.Equal(t, "onboarding_cta_copy", line["experiment_id"])
		assert.NotContains(t, line, "source", "production logs should not carry source locations")
	})

	t.Run("Should emit text and respect the configured level", func(t *testing.T) {
		t.Parallel()

		// Arrange
		var buf bytes.Buffer
		cfg := &config.AppConfig{Name: "svc", Environment: "development", LogLevel: "warn", LogFormat: "text"}
		log := NewWithWriter(cfg, &buf)

		// Act
		log.Info("dropped")
		log.Warn("kept")

		// Assert
		out := buf.String()
		assert.NotContains(t, out, "dropped")
		assert.Contains(t, out, "msg=kept")
	})

	t.Run("Should panic on nil config", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { NewWithWriter(nil, &bytes.Buffer{}) })
	})
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "Warn", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "super-critical", want: slog.LevelInfo},
		{in: "", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}
