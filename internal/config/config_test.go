package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.BackendURL)
	assert.Equal(t, 10*time.Minute, cfg.RefdataTTL)
	assert.Equal(t, uint(5), cfg.ChatReconnectAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.ChatBackoffInitial)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 100, cfg.HomeBatchSize)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("MARKET_BACKEND_URL", "https://api.example.com")
	t.Setenv("MARKET_LOG_LEVEL", "debug")
	t.Setenv("MARKET_CHAT_BACKOFF_MAX", "30s")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.BackendURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 30*time.Second, cfg.ChatBackoffMax)
}

func TestFlagsWinOverEnvironment(t *testing.T) {
	t.Setenv("MARKET_HTTP_ADDR", ":9000")
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, "http_addr", "backend_url")
	require.NoError(t, fs.Parse([]string{"--http-addr", ":7000"}))

	cfg, err := Load(fs)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.HTTPAddr)
	assert.Equal(t, "http://localhost:8080", cfg.BackendURL)
}

func TestValidation(t *testing.T) {
	t.Setenv("MARKET_CHAT_URL", "http://localhost:8080/ws/chat")
	_, err := Load(nil)
	assert.ErrorContains(t, err, "chat_url")
}
