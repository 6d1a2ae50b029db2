package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SITETIME_STORAGE_PATH", filepath.Join(dir, "data", "sitetime.bolt"))

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.BindAddress)
	assert.Equal(t, 7345, cfg.Server.APIPort)
	assert.Equal(t, "bolt", cfg.Storage.Type)
	assert.Equal(t, 64, cfg.Tracking.QueueSize)
	assert.Equal(t, "00:00", cfg.Tracking.DailyResetTime)
	assert.Equal(t, []string{"chrome-extension://*", "moz-extension://*"}, cfg.Server.AllowedOrigins)
	assert.DirExists(t, filepath.Dir(cfg.Storage.Path))
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("SITETIME_STORAGE_PATH", filepath.Join(t.TempDir(), "sitetime.bolt"))

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 9345, cfg.Server.MetricsPort)
}

func TestLoadEnvironmentOverride(t *testing.T) {
	t.Setenv("SITETIME_LOGGING_LEVEL", "debug")

	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"api port", "server:\n  api_port: 70000\n"},
		{"metrics clash", "server:\n  api_port: 8000\n  metrics_port: 8000\n"},
		{"log level", "logging:\n  level: verbose\n"},
		{"queue size", "tracking:\n  queue_size: 0\n"},
		{"reset time", "tracking:\n  daily_reset_time: \"25:00\"\n"},
		{"cache size", "classifier:\n  cache_size: -1\n"},
		{"storage type", "storage:\n  type: sqlite\n"},
		{"empty origin", "server:\n  allowed_origins: [\"\"]\n"},
		{"redis prefix", "storage:\n  type: redis\n  redis:\n    key_prefix: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestValidKeysCoverDefaults(t *testing.T) {
	keys := ValidKeys()
	for _, key := range []string{
		"server.api_port",
		"server.allowed_origins",
		"storage.redis.key_prefix",
		"tracking.daily_reset_time",
		"classifier.policy_file",
	} {
		assert.True(t, keys[key], key)
	}
	assert.False(t, keys["server.dns_port"])
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 3*time.Second, ParseDuration("3s", 0))
	assert.Equal(t, 5*time.Second, ParseDuration("nope", 5*time.Second))
}
