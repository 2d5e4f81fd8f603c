package connection

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/connsync/internal/auth"
	"github.com/rickgao/connsync/internal/protocol"
	"github.com/rickgao/connsync/internal/version"
)

// Manager owns the channel lifecycle.
type Manager interface {
	// Connect opens a new channel for creds, replacing any existing one, and
	// binds handler as the only receiver of frames. A dial failure is returned
	// and also starts the reconnect cycle.
	Connect(ctx context.Context, creds auth.Credentials, handler Handler) error

	// Send marshals cmd and transmits it if the channel is open.
	// Returns false without queueing or retrying otherwise.
	Send(cmd any) bool

	// Disconnect tears down the channel and suppresses any pending reconnect.
	// It returns once no frame is being handled, so it must not be called
	// from inside the handler.
	Disconnect()

	// State returns the current lifecycle state.
	State() State

	// Stats returns current connection statistics.
	Stats() ManagerStats
}

// connState holds the state for one logical connection.
type connState struct {
	id      uuid.UUID
	creds   auth.Credentials
	url     string
	handler Handler
	logger  *slog.Logger

	client   Client
	state    State
	attempts int
	timer    *time.Timer // Pending reconnect

	// Held for the duration of each HandleFrame call.
	dispatchMu sync.Mutex
}

// manager implements the Manager interface.
type manager struct {
	cfg       ManagerConfig
	logger    *slog.Logger
	newClient func(ClientConfig, *slog.Logger) Client

	mu   sync.RWMutex
	conn *connState

	// Stats
	connects   atomic.Int64
	reconnects atomic.Int64
	sent       atomic.Int64
	dropped    atomic.Int64
}

// NewManager creates a new Connection Manager.
func NewManager(cfg ManagerConfig, logger *slog.Logger) Manager {
	if logger == nil {
		logger = slog.Default()
	}

	return &manager{
		cfg:       cfg,
		logger:    logger,
		newClient: NewClient,
	}
}

// Connect opens a new connection.
func (m *manager) Connect(ctx context.Context, creds auth.Credentials, handler Handler) error {
	if handler == nil {
		return ErrNoHandler
	}
	if err := creds.Validate(); err != nil {
		return err
	}
	url, err := creds.ChannelURL(m.cfg.URL)
	if err != nil {
		return err
	}

	id := uuid.New()
	c := &connState{
		id:      id,
		creds:   creds,
		url:     url,
		handler: handler,
		state:   StateConnecting,
		logger:  m.logger.With("conn_id", id.String(), "username", creds.Username),
	}

	if creds.Expired(time.Now()) {
		exp, _ := creds.ExpiresAt()
		c.logger.Warn("access token already expired, server may reject the channel",
			"expired_at", exp,
		)
	}

	m.mu.Lock()
	old := m.conn
	if old != nil {
		old.logger.Info("replacing existing connection", "state", old.state)
		m.teardownLocked(old)
	}
	m.conn = c
	m.mu.Unlock()

	if old != nil {
		old.waitIdle()
	}

	m.connects.Add(1)
	c.logger.Info("connecting", "url", m.cfg.URL, "token", creds.Redacted())

	return m.dial(ctx, c)
}

// Send transmits a command if the channel is open.
func (m *manager) Send(cmd any) bool {
	m.mu.RLock()
	c := m.conn
	var client Client
	if c != nil && c.state == StateOpen {
		client = c.client
	}
	m.mu.RUnlock()

	return m.sendOn(c, client, cmd)
}

// Disconnect closes the channel intentionally.
func (m *manager) Disconnect() {
	m.mu.Lock()
	c := m.conn
	if c == nil {
		m.mu.Unlock()
		return
	}

	c.logger.Info("disconnecting")
	m.teardownLocked(c)
	m.conn = nil
	m.mu.Unlock()

	c.waitIdle()
}

// waitIdle blocks until no HandleFrame call is running for c. Once c has
// been torn down no new call can start.
func (c *connState) waitIdle() {
	c.dispatchMu.Lock()
	c.dispatchMu.Unlock()
}

// State returns the current lifecycle state.
func (m *manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.conn == nil {
		return StateClosed
	}
	return m.conn.state
}

// Stats returns current statistics.
func (m *manager) Stats() ManagerStats {
	stats := ManagerStats{
		State:      StateClosed,
		Connects:   m.connects.Load(),
		Reconnects: m.reconnects.Load(),
		Sent:       m.sent.Load(),
		Dropped:    m.dropped.Load(),
	}

	m.mu.RLock()
	if c := m.conn; c != nil {
		stats.State = c.state
		stats.ConnID = c.id.String()
		stats.Username = c.creds.Username
		stats.Attempts = c.attempts
	}
	m.mu.RUnlock()

	return stats
}

// teardownLocked closes c for good. The attempt counter is raised to the
// maximum before the close is issued so that a close racing with a pending
// reconnect cannot revive the connection. Must be called with m.mu held.
func (m *manager) teardownLocked(c *connState) {
	c.attempts = m.cfg.MaxAttempts
	c.state = StateClosing

	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.client != nil {
		if err := c.client.Close(); err != nil {
			c.logger.Debug("error closing websocket", "error", err)
		}
		c.client = nil
	}

	c.handler = nil
	c.state = StateClosed
}

// dial performs one connection attempt for c.
func (m *manager) dial(ctx context.Context, c *connState) error {
	client := m.newClient(m.clientConfig(c.url), c.logger)
	err := client.Connect(ctx)

	m.mu.Lock()
	if m.conn != c || c.state != StateConnecting {
		// Disconnected or replaced while dialing
		m.mu.Unlock()
		client.Close()
		return ErrSuperseded
	}

	if err != nil {
		m.scheduleReconnectLocked(c, err)
		m.mu.Unlock()
		return fmt.Errorf("dial channel: %w", err)
	}

	c.client = client
	c.state = StateOpen
	c.attempts = 0
	m.mu.Unlock()

	c.logger.Info("channel open")

	go m.readLoop(c, client)

	// Announce ourselves as soon as the channel is open, then ask for the
	// initial snapshot.
	m.sendOn(c, client, protocol.InitConnection(c.creds.Username))
	m.sendOn(c, client, protocol.GetUsers())

	return nil
}

// scheduleReconnectLocked reacts to an unexpected close or failed dial.
// Must be called with m.mu held.
func (m *manager) scheduleReconnectLocked(c *connState, cause error) {
	if c.attempts >= m.cfg.MaxAttempts {
		c.state = StateClosed
		c.handler = nil
		c.logger.Error("reconnect attempts exhausted, connection closed",
			"attempts", c.attempts,
			"error", cause,
		)
		return
	}

	c.attempts++
	c.state = StateReconnecting
	c.logger.Warn("channel closed, scheduling reconnect",
		"attempt", c.attempts,
		"max_attempts", m.cfg.MaxAttempts,
		"delay", m.cfg.ReconnectDelay,
		"error", cause,
	)

	c.timer = time.AfterFunc(m.cfg.ReconnectDelay, func() {
		m.redial(c)
	})
}

// redial runs when a reconnect timer fires.
func (m *manager) redial(c *connState) {
	m.mu.Lock()
	if m.conn != c || c.state != StateReconnecting || c.handler == nil {
		// Stale timer: disconnected or replaced since it was scheduled
		m.mu.Unlock()
		return
	}
	c.state = StateConnecting
	c.timer = nil
	attempt := c.attempts
	m.mu.Unlock()

	m.reconnects.Add(1)
	c.logger.Info("attempting reconnection", "attempt", attempt)

	ctx, cancel := context.WithTimeout(context.Background(), m.handshakeTimeout())
	defer cancel()

	if err := m.dial(ctx, c); err != nil {
		c.logger.Debug("reconnection failed", "attempt", attempt, "error", err)
	}
}

// readLoop hands frames to the bound handler until the client fails or closes.
func (m *manager) readLoop(c *connState, client Client) {
	for {
		select {
		case <-client.Done():
			return

		case err := <-client.Errors():
			// Frames read before the failure are already buffered and
			// must be handled ahead of the close.
			m.drain(c, client)
			m.handleClose(c, client, err)
			return

		case frame := <-client.Messages():
			if !m.deliver(c, client, frame) {
				return
			}
		}
	}
}

// drain hands every buffered frame to the handler without blocking.
func (m *manager) drain(c *connState, client Client) {
	for {
		select {
		case frame := <-client.Messages():
			if !m.deliver(c, client, frame) {
				return
			}
		default:
			return
		}
	}
}

// deliver passes frame to the bound handler if client is still the active
// one for c. Returns false once it is not.
func (m *manager) deliver(c *connState, client Client, frame Frame) bool {
	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()

	m.mu.RLock()
	handler := c.handler
	current := m.conn == c && c.client == client
	m.mu.RUnlock()

	if !current || handler == nil {
		return false
	}
	handler.HandleFrame(frame)
	return true
}

// handleClose reacts to a transport error on the active client.
func (m *manager) handleClose(c *connState, client Client, cause error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn != c || c.client != client {
		return
	}

	client.Close()
	c.client = nil
	m.scheduleReconnectLocked(c, cause)
}

// sendOn marshals and writes cmd on client if c is still the open connection.
func (m *manager) sendOn(c *connState, client Client, cmd any) bool {
	if c == nil || client == nil {
		m.dropped.Add(1)
		m.logger.Warn("channel not open, dropping message", "message", cmd)
		return false
	}

	data, err := json.Marshal(cmd)
	if err != nil {
		c.logger.Error("failed to marshal message", "error", err)
		return false
	}

	if err := client.Send(data); err != nil {
		m.dropped.Add(1)
		c.logger.Warn("failed to send message", "error", err)
		return false
	}

	m.sent.Add(1)
	c.logger.Debug("message sent", "message", string(data))
	return true
}

func (m *manager) clientConfig(url string) ClientConfig {
	header := http.Header{}
	header.Set("User-Agent", version.UserAgent())

	return ClientConfig{
		URL:              url,
		Header:           header,
		PingInterval:     m.cfg.PingInterval,
		PingTimeout:      m.cfg.PingTimeout,
		WriteTimeout:     m.cfg.WriteTimeout,
		HandshakeTimeout: m.cfg.HandshakeTimeout,
		BufferSize:       m.cfg.BufferSize,
	}
}

func (m *manager) handshakeTimeout() time.Duration {
	if m.cfg.HandshakeTimeout > 0 {
		return m.cfg.HandshakeTimeout
	}
	return DefaultClientConfig().HandshakeTimeout
}
