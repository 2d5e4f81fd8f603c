package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultWSURL                = "ws://127.0.0.1:8000/ws/chat/"
	DefaultAPIURL               = "http://127.0.0.1:8000/chat/api"
	DefaultAPITimeout           = 10 * time.Second
	DefaultMaxRetries           = 3
	DefaultReconnectDelay       = 3 * time.Second
	DefaultMaxAttempts          = 5
	DefaultWriteTimeout         = 5 * time.Second
	DefaultPingTimeout          = 60 * time.Second
	DefaultHandshakeTimeout     = 10 * time.Second
	DefaultBufferSize           = 256
	DefaultNotificationCapacity = 5
	DefaultLogLevel             = "info"
	DefaultLogFormat            = "text"
	DefaultStatusPort           = 8089
)

// ApplyDefaults fills zero values. PingInterval and Refresh.Interval keep
// zero, which disables them.
func (c *Config) ApplyDefaults() {
	// Server defaults
	if c.Server.WSURL == "" {
		c.Server.WSURL = DefaultWSURL
	}
	if c.Server.APIURL == "" {
		c.Server.APIURL = DefaultAPIURL
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = DefaultAPITimeout
	}
	if c.Server.MaxRetries == 0 {
		c.Server.MaxRetries = DefaultMaxRetries
	}

	// Connection defaults
	if c.Connection.ReconnectDelay == 0 {
		c.Connection.ReconnectDelay = DefaultReconnectDelay
	}
	if c.Connection.MaxAttempts == 0 {
		c.Connection.MaxAttempts = DefaultMaxAttempts
	}
	if c.Connection.WriteTimeout == 0 {
		c.Connection.WriteTimeout = DefaultWriteTimeout
	}
	if c.Connection.PingTimeout == 0 {
		c.Connection.PingTimeout = DefaultPingTimeout
	}
	if c.Connection.HandshakeTimeout == 0 {
		c.Connection.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Connection.BufferSize == 0 {
		c.Connection.BufferSize = DefaultBufferSize
	}

	if c.Notifications.Capacity == 0 {
		c.Notifications.Capacity = DefaultNotificationCapacity
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}

	if c.Status.Port == 0 {
		c.Status.Port = DefaultStatusPort
	}
}
