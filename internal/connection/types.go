package connection

import (
	"errors"
	"net/http"
	"time"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no ping)")
	ErrAlreadyClosed   = errors.New("already closed")
	ErrNoHandler       = errors.New("message handler is required")
	ErrSuperseded      = errors.New("connection superseded")
)

// Frame is one raw message received on the channel.
type Frame struct {
	Data       []byte    // Raw message bytes from WebSocket
	ReceivedAt time.Time // Local timestamp when ReadMessage() returned
}

// Handler receives frames from the active connection.
// Calls are sequential and in arrival order.
type Handler interface {
	HandleFrame(Frame)
}

// HandlerFunc is a function adapter for Handler.
type HandlerFunc func(Frame)

func (f HandlerFunc) HandleFrame(fr Frame) {
	f(fr)
}

// State is the lifecycle state of the managed connection.
type State int

const (
	StateClosed State = iota
	StateConnecting
	StateOpen
	StateReconnecting
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateConnecting:
		return "CONNECTING"
	case StateOpen:
		return "OPEN"
	case StateReconnecting:
		return "RECONNECTING"
	case StateClosing:
		return "CLOSING"
	default:
		return "UNKNOWN"
	}
}

// MarshalText lets State render as its name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ClientConfig configures a WebSocket client.
type ClientConfig struct {
	URL              string        // Full channel URL including the token query
	Header           http.Header   // Extra handshake headers
	PingInterval     time.Duration // How often we send a keepalive ping
	PingTimeout      time.Duration // Max time without ping/pong before considering connection stale
	WriteTimeout     time.Duration // Write deadline for sends
	HandshakeTimeout time.Duration // Dial handshake timeout
	BufferSize       int           // Message channel buffer size
}

// DefaultClientConfig returns sensible defaults. Keepalive pings are off
// until PingInterval is set.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		PingInterval:     0,
		PingTimeout:      60 * time.Second,
		WriteTimeout:     5 * time.Second,
		HandshakeTimeout: 10 * time.Second,
		BufferSize:       256,
	}
}

// ManagerConfig configures the Connection Manager.
type ManagerConfig struct {
	URL              string        // Channel endpoint without credentials (e.g., ws://127.0.0.1:8000/ws/chat/)
	ReconnectDelay   time.Duration // Fixed wait before each reconnect attempt
	MaxAttempts      int           // Reconnect attempts before giving up
	PingInterval     time.Duration
	PingTimeout      time.Duration
	WriteTimeout     time.Duration
	HandshakeTimeout time.Duration
	BufferSize       int
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	c := DefaultClientConfig()
	return ManagerConfig{
		URL:              "ws://127.0.0.1:8000/ws/chat/",
		ReconnectDelay:   3 * time.Second,
		MaxAttempts:      5,
		PingInterval:     c.PingInterval,
		PingTimeout:      c.PingTimeout,
		WriteTimeout:     c.WriteTimeout,
		HandshakeTimeout: c.HandshakeTimeout,
		BufferSize:       c.BufferSize,
	}
}

// ManagerStats provides statistics about the connection manager.
type ManagerStats struct {
	State      State  `json:"state"`
	ConnID     string `json:"conn_id,omitempty"`
	Username   string `json:"username,omitempty"`
	Attempts   int    `json:"attempts"`
	Connects   int64  `json:"connects"`   // Explicit Connect calls
	Reconnects int64  `json:"reconnects"` // Automatic reconnect dials
	Sent       int64  `json:"sent"`
	Dropped    int64  `json:"dropped"` // Sends refused because the channel was not open
}
