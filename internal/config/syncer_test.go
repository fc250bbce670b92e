package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncerConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		want    func(t *testing.T, cfg *Config)
		wantErr bool
	}{
		{
			name: "Should load custom syncer settings",
			envVars: mergeEnvVars(map[string]string{
				"BIFROST_SYNCER_ENABLED":            "false",
				"BIFROST_SYNCER_INTERVAL":           "5m",
				"BIFROST_SYNCER_FETCH_TIMEOUT":      "3s",
				"BIFROST_SYNCER_MIN_FETCH_INTERVAL": "1h",
			}),
			want: func(t *testing.T, cfg *Config) {
				assert.False(t, cfg.Syncer.Enabled)
				assert.Equal(t, 5*time.Minute, cfg.Syncer.Interval)
				assert.Equal(t, 3*time.Second, cfg.Syncer.FetchTimeout)
				assert.Equal(t, time.Hour, cfg.Syncer.MinFetchInterval)
			},
			wantErr: false,
		},
		{
			name:    "Should verify syncer defaults",
			envVars: mergeEnvVars(map[string]string{}),
			want: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.Syncer.Enabled)
				assert.Equal(t, 60*time.Second, cfg.Syncer.Interval)
				assert.Equal(t, 10*time.Second, cfg.Syncer.FetchTimeout)
				assert.Equal(t, 30*time.Second, cfg.Syncer.MinFetchInterval)
			},
			wantErr: false,
		},
		{
			name: "Should fail validation with interval below one second",
			envVars: mergeEnvVars(map[string]string{
				"BIFROST_SYNCER_INTERVAL": "500ms",
			}),
			wantErr: true,
		},
		{
			name: "Should fail validation with zero fetch timeout",
			envVars: mergeEnvVars(map[string]string{
				"BIFROST_SYNCER_FETCH_TIMEOUT": "0s",
			}),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			cfg, err := Load()

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			if tt.want != nil {
				tt.want(t, cfg)
			}
		})
	}
}
