package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultDatabasePath, cfg.DatabasePath)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, DefaultRateLimit, cfg.RateLimit)
	assert.Equal(t, DefaultRateWindow, cfg.RateWindow)
	assert.Equal(t, ":9000", cfg.Addr())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("DATABASE_PATH", "/tmp/test.db")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RATE_LIMIT", "10")
	t.Setenv("RATE_WINDOW", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Port)
	assert.Equal(t, "/tmp/test.db", cfg.DatabasePath)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 10, cfg.RateLimit)
	assert.Equal(t, 30*time.Second, cfg.RateWindow)
	assert.Equal(t, ":8081", cfg.Addr())
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "non-numeric port", key: "PORT", value: "not-a-port"},
		{name: "unknown log format", key: "LOG_FORMAT", value: "xml"},
		{name: "unknown log level", key: "LOG_LEVEL", value: "verbose"},
		{name: "non-numeric rate limit", key: "RATE_LIMIT", value: "many"},
		{name: "invalid rate window", key: "RATE_WINDOW", value: "sometimes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"text", "json"} {
		t.Run(format, func(t *testing.T) {
			cfg := &Config{LogFormat: format, LogLevel: slog.LevelInfo}
			logger := cfg.NewLogger()
			require.NotNil(t, logger)
		})
	}
}
