package constants

import "time"

const (
	// DefaultEndpoint is the default GraphQL HTTP endpoint.
	DefaultEndpoint = "http://localhost:8080/graphql"

	// DefaultWSEndpoint is the default GraphQL WebSocket endpoint.
	DefaultWSEndpoint = "ws://localhost:8080/graphql"

	// KeepAliveInterval is how often the client sends ping messages on a
	// live subscription connection.
	KeepAliveInterval = 30 * time.Second

	// ReconnectBaseDelay is the initial delay for reconnection attempts.
	// The delay doubles on every consecutive attempt.
	ReconnectBaseDelay = 1 * time.Second

	// MaxReconnectAttempts is the maximum number of automatic reconnection
	// attempts before the client stays disconnected.
	MaxReconnectAttempts = 10

	// HandshakeTimeout is the maximum time for the WebSocket handshake.
	HandshakeTimeout = 10 * time.Second

	// SendQueueSize is the capacity of the outbound message queue per
	// subscription connection.
	SendQueueSize = 64
)

// Environment variable names read by the configuration layer.
const (
	EnvEndpoint   = "GQLWIRE_ENDPOINT"
	EnvWSEndpoint = "GQLWIRE_WS_ENDPOINT"
	EnvAPIKey     = "GQLWIRE_API_KEY"
	EnvToken      = "GQLWIRE_TOKEN"
)
