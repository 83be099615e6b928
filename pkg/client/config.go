package client

import "time"

// Config holds configuration for the core connection and command dispatch.
type Config struct {
	// URL is the WebSocket URL of the core (e.g., "wss://api.seabird.chat/ws").
	URL string

	// PluginName identifies this plugin in the handshake.
	// Default: "seabird-radio".
	PluginName string

	// Timeouts

	// DialTimeout is the maximum time for the WebSocket dial.
	// Default: 10 seconds.
	DialTimeout time.Duration

	// HandshakeTimeout bounds the PluginHello/CoreHello exchange after the
	// connection is established.
	// Default: 10 seconds.
	HandshakeTimeout time.Duration

	// WriteTimeout is the maximum time to wait when sending a message.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// HeartbeatInterval is the time between ping control frames.
	// Default: 30 seconds.
	HeartbeatInterval time.Duration

	// LivenessTimeout is the idle period after which the session is
	// treated as disconnected, catching half-open connections.
	// Default: 90 seconds.
	LivenessTimeout time.Duration

	// Reconnection

	// BackoffBase is the delay before the first reconnect attempt.
	// Default: 1 second.
	BackoffBase time.Duration

	// BackoffCap is the upper bound on the reconnect delay.
	// Default: 2 minutes.
	BackoffCap time.Duration

	// Dispatch

	// MaxInFlight is the maximum number of concurrently running command
	// handlers. When the limit is reached, dispatch blocks, which in turn
	// backpressures the session read loop.
	// Default: 16.
	MaxInFlight int

	// InvocationTimeout is the soft deadline per handler invocation.
	// Handlers exceeding it produce a timeout error response.
	// Default: 15 seconds.
	InvocationTimeout time.Duration

	// Limits

	// MaxMessageSize is the maximum size of an incoming WebSocket message.
	// Default: 64KB.
	MaxMessageSize int64

	// CommandBuffer is the size of the inbound command channel buffer.
	// Default: 64.
	CommandBuffer int
}

// DefaultConfig returns a Config with sensible defaults. The URL is left
// empty and must be filled in by the caller.
func DefaultConfig() *Config {
	return &Config{
		PluginName:        "seabird-radio",
		DialTimeout:       10 * time.Second,
		HandshakeTimeout:  10 * time.Second,
		WriteTimeout:      10 * time.Second,
		HeartbeatInterval: 30 * time.Second,
		LivenessTimeout:   90 * time.Second,
		BackoffBase:       1 * time.Second,
		BackoffCap:        2 * time.Minute,
		MaxInFlight:       16,
		InvocationTimeout: 15 * time.Second,
		MaxMessageSize:    64 * 1024,
		CommandBuffer:     64,
	}
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}
