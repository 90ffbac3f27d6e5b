package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gqlwire/internal/shared/constants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, constants.DefaultEndpoint, cfg.Endpoint)
	assert.Equal(t, constants.KeepAliveInterval, cfg.KeepAliveInterval)
	assert.Equal(t, constants.MaxReconnectAttempts, cfg.MaxReconnectAttempts)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
endpoint: https://api.example.com/graphql
ws_endpoint: wss://api.example.com/graphql
api_key: key-123
headers:
  X-Tenant: acme
keepalive_interval: 10s
max_reconnect_attempts: 4
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/graphql", cfg.Endpoint)
	assert.Equal(t, "wss://api.example.com/graphql", cfg.WSEndpoint)
	assert.Equal(t, "key-123", cfg.APIKey)
	assert.Equal(t, "acme", cfg.Headers["X-Tenant"])
	assert.Equal(t, 10*time.Second, cfg.KeepAliveInterval)
	assert.Equal(t, 4, cfg.MaxReconnectAttempts)
	// Untouched keys keep their defaults.
	assert.Equal(t, constants.ReconnectBaseDelay, cfg.ReconnectBaseDelay)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(constants.EnvEndpoint, "https://env.example.com/graphql")
	t.Setenv(constants.EnvAPIKey, "env-key")
	t.Setenv(constants.EnvToken, "env-token")

	cfg := FromEnv()
	assert.Equal(t, "https://env.example.com/graphql", cfg.Endpoint)
	assert.Equal(t, "env-key", cfg.APIKey)
	assert.Equal(t, "env-token", cfg.ConnectionParams["authToken"])
}
