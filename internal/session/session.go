// Package session ties the channel, the dispatcher and the state store into
// the operations a user interface performs.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/connsync/internal/api"
	"github.com/rickgao/connsync/internal/auth"
	"github.com/rickgao/connsync/internal/connection"
	"github.com/rickgao/connsync/internal/dispatch"
	"github.com/rickgao/connsync/internal/model"
	"github.com/rickgao/connsync/internal/poller"
	"github.com/rickgao/connsync/internal/protocol"
	"github.com/rickgao/connsync/internal/state"
)

// Errors
var (
	ErrNotLoggedIn  = errors.New("not logged in")
	ErrNotSent      = errors.New("channel not open, command dropped")
	ErrEmptyUser    = errors.New("user name is required")
	ErrNoAuthorizer = errors.New("no login endpoint configured")
)

// Authenticator exchanges a password for an access token. *api.Client satisfies it.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (api.LoginResponse, error)
}

// Config holds session settings.
type Config struct {
	Refresh poller.Config
}

// Stats aggregates component statistics.
type Stats struct {
	Username   string                  `json:"username,omitempty"`
	Connection connection.ManagerStats `json:"connection"`
	Dispatch   dispatch.Stats          `json:"dispatch"`
	Queue      state.QueueStats        `json:"notifications"`
	Refresh    poller.Stats            `json:"refresh"`
}

// Session is one logged-in user's view of the connection graph.
type Session struct {
	cfg        Config
	manager    connection.Manager
	store      *state.Store
	dispatcher *dispatch.Dispatcher
	authn      Authenticator
	logger     *slog.Logger

	mu     sync.RWMutex
	creds  auth.Credentials
	poller *poller.Poller
}

// New creates a Session. authn may be nil when tokens are supplied directly.
func New(cfg Config, manager connection.Manager, store *state.Store, authn Authenticator, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}

	return &Session{
		cfg:        cfg,
		manager:    manager,
		store:      store,
		dispatcher: dispatch.New(store, manager, logger.With("component", "dispatch")),
		authn:      authn,
		logger:     logger,
	}
}

// Login obtains a token for username and connects with it.
func (s *Session) Login(ctx context.Context, username, password string) error {
	if s.authn == nil {
		return ErrNoAuthorizer
	}
	if username == "" {
		return ErrEmptyUser
	}

	resp, err := s.authn.Login(ctx, username, password)
	if err != nil {
		return err
	}

	return s.Connect(ctx, auth.Credentials{Token: resp.Access, Username: username})
}

// Connect opens the channel for creds, replacing any previous login.
// A dial failure is returned but the manager keeps retrying in the background.
func (s *Session) Connect(ctx context.Context, creds auth.Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	prev := s.creds.Username
	s.creds = creds
	old := s.poller
	s.poller = poller.New(s.cfg.Refresh, s.manager, s.logger.With("component", "poller"))
	p := s.poller
	s.mu.Unlock()

	if prev != "" && prev != creds.Username {
		// Another user's lists must not leak into this login.
		s.store.Reset()
	}
	stopPoller(old)

	err := s.manager.Connect(ctx, creds, s.dispatcher)
	if err != nil && !errors.Is(err, connection.ErrSuperseded) {
		s.logger.Warn("initial connect failed, retrying in background", "error", err)
	}

	p.Start(context.Background())

	if err != nil {
		return fmt.Errorf("connect %s: %w", creds.Username, err)
	}
	return nil
}

// SendRequest asks receiver to connect with the local user.
func (s *Session) SendRequest(receiver string) error {
	return s.sendToPeer(receiver, func(self, peer string) protocol.Command {
		return protocol.SendRequest(self, peer)
	})
}

// Approve accepts a pending request from sender.
func (s *Session) Approve(sender string) error {
	return s.sendToPeer(sender, func(self, peer string) protocol.Command {
		return protocol.ApproveRequest(peer, self)
	})
}

// Reject declines a pending request from sender.
func (s *Session) Reject(sender string) error {
	return s.sendToPeer(sender, func(self, peer string) protocol.Command {
		return protocol.RejectRequest(peer, self)
	})
}

// Refresh asks the server for a fresh snapshot.
func (s *Session) Refresh() error {
	if s.Username() == "" {
		return ErrNotLoggedIn
	}
	return s.send(protocol.GetUsers())
}

// Ping asks the server for a pong.
func (s *Session) Ping() error {
	if s.Username() == "" {
		return ErrNotLoggedIn
	}
	return s.send(protocol.Ping())
}

// Logout tells the server we are leaving, closes the channel and clears all
// local state. It is safe to call when not logged in.
func (s *Session) Logout() {
	s.mu.Lock()
	user := s.creds.Username
	s.creds = auth.Credentials{}
	p := s.poller
	s.poller = nil
	s.mu.Unlock()

	stopPoller(p)

	if user != "" {
		s.manager.Send(protocol.Disconnect())
	}
	s.manager.Disconnect()
	s.store.Reset()

	s.logger.Info("logged out", "username", user)
}

// Username returns the logged-in user, or "" when logged out.
func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.Username
}

// View returns the current read model.
func (s *Session) View() model.View {
	return s.store.View(s.Username())
}

// State returns the channel lifecycle state.
func (s *Session) State() connection.State {
	return s.manager.State()
}

// Store returns the backing state store.
func (s *Session) Store() *state.Store {
	return s.store
}

// Stats aggregates component statistics.
func (s *Session) Stats() Stats {
	s.mu.RLock()
	user := s.creds.Username
	p := s.poller
	s.mu.RUnlock()

	st := Stats{
		Username:   user,
		Connection: s.manager.Stats(),
		Dispatch:   s.dispatcher.Stats(),
		Queue:      s.store.QueueStats(),
	}
	if p != nil {
		st.Refresh = p.Stats()
	}
	return st
}

func (s *Session) sendToPeer(peer string, build func(self, peer string) protocol.Command) error {
	if peer == "" {
		return ErrEmptyUser
	}
	self := s.Username()
	if self == "" {
		return ErrNotLoggedIn
	}
	return s.send(build(self, peer))
}

func (s *Session) send(cmd protocol.Command) error {
	if !s.manager.Send(cmd) {
		return ErrNotSent
	}
	return nil
}

func stopPoller(p *poller.Poller) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	p.Stop(ctx)
}
