package config

import "time"

// Config is the root configuration for a connsync client.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Credentials   CredentialsConfig   `yaml:"credentials"`
	Connection    ConnectionConfig    `yaml:"connection"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Refresh       RefreshConfig       `yaml:"refresh"`
	Log           LogConfig           `yaml:"log"`
	Status        StatusConfig        `yaml:"status"`
}

// ServerConfig holds the backend endpoints.
type ServerConfig struct {
	WSURL      string        `yaml:"ws_url"`  // Channel endpoint, token is appended as ?token=
	APIURL     string        `yaml:"api_url"` // REST base for login/ and register/, used when no token is configured
	Timeout    time.Duration `yaml:"timeout"` // REST request timeout
	MaxRetries int           `yaml:"max_retries"`
}

// CredentialsConfig identifies the local user.
// Either Token or Password must be set.
type CredentialsConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Token    string `yaml:"token"`
}

// ConnectionConfig holds channel lifecycle settings.
type ConnectionConfig struct {
	ReconnectDelay   time.Duration `yaml:"reconnect_delay"`
	MaxAttempts      int           `yaml:"max_attempts"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	PingInterval     time.Duration `yaml:"ping_interval"` // 0 disables keepalive pings
	PingTimeout      time.Duration `yaml:"ping_timeout"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	BufferSize       int           `yaml:"buffer_size"`
}

// NotificationsConfig holds notification queue settings.
type NotificationsConfig struct {
	Capacity int `yaml:"capacity"`
}

// RefreshConfig holds periodic get_users settings.
type RefreshConfig struct {
	Interval time.Duration `yaml:"interval"` // 0 disables periodic refresh
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// StatusConfig holds the local HTTP status surface settings.
type StatusConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}
