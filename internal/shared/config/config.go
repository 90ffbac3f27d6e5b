package config

import (
	"fmt"
	"os"
	"time"

	"gqlwire/internal/shared/constants"

	"gopkg.in/yaml.v3"
)

// Config is the full configuration surface consumed by the clients.
type Config struct {
	// Endpoint is the GraphQL HTTP endpoint.
	Endpoint string `yaml:"endpoint"`

	// WSEndpoint is the GraphQL WebSocket endpoint for subscriptions.
	WSEndpoint string `yaml:"ws_endpoint"`

	// APIKey is sent as an API-key header on every HTTP request.
	APIKey string `yaml:"api_key"`

	// Headers are default headers applied to every HTTP request.
	Headers map[string]string `yaml:"headers"`

	// ConnectionParams is the opaque payload sent with connection_init.
	// An auth token configured via environment lands here.
	ConnectionParams map[string]any `yaml:"connection_params"`

	// KeepAliveInterval is the subscription ping interval.
	KeepAliveInterval time.Duration `yaml:"keepalive_interval"`

	// ReconnectBaseDelay is the initial reconnection delay.
	ReconnectBaseDelay time.Duration `yaml:"reconnect_base_delay"`

	// MaxReconnectAttempts caps automatic reconnection.
	MaxReconnectAttempts int `yaml:"max_reconnect_attempts"`

	// Timeout bounds a single HTTP request. Zero means no timeout.
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns a config with every tunable at its default.
func Default() *Config {
	return &Config{
		Endpoint:             constants.DefaultEndpoint,
		WSEndpoint:           constants.DefaultWSEndpoint,
		KeepAliveInterval:    constants.KeepAliveInterval,
		ReconnectBaseDelay:   constants.ReconnectBaseDelay,
		MaxReconnectAttempts: constants.MaxReconnectAttempts,
	}
}

// Load reads a YAML config file over the defaults, then applies environment
// overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// FromEnv returns the defaults with environment overrides applied.
func FromEnv() *Config {
	cfg := Default()
	cfg.applyEnv()
	return cfg
}

func (c *Config) applyEnv() {
	if v := os.Getenv(constants.EnvEndpoint); v != "" {
		c.Endpoint = v
	}
	if v := os.Getenv(constants.EnvWSEndpoint); v != "" {
		c.WSEndpoint = v
	}
	if v := os.Getenv(constants.EnvAPIKey); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv(constants.EnvToken); v != "" {
		if c.ConnectionParams == nil {
			c.ConnectionParams = make(map[string]any)
		}
		c.ConnectionParams["authToken"] = v
	}
}
