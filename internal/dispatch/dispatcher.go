package dispatch

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/connsync/internal/connection"
	"github.com/rickgao/connsync/internal/protocol"
	"github.com/rickgao/connsync/internal/state"
)

// Dispatcher applies incoming frames to a state store.
// It implements connection.Handler.
type Dispatcher struct {
	store  *state.Store
	sender Sender
	logger *slog.Logger

	mu          sync.RWMutex
	received    int64
	dispatched  int64
	parseErrors int64
	unknown     int64
	refreshes   int64
	lastPongAt  time.Time
}

var _ connection.Handler = (*Dispatcher)(nil)

// New creates a Dispatcher. sender is used for the follow-up get_users
// requested by a refresh_users notification.
func New(store *state.Store, sender Sender, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		store:  store,
		sender: sender,
		logger: logger,
	}
}

// HandleFrame decodes and applies a single frame.
func (d *Dispatcher) HandleFrame(frame connection.Frame) {
	d.mu.Lock()
	d.received++
	d.mu.Unlock()

	var env protocol.Envelope
	if err := json.Unmarshal(frame.Data, &env); err != nil {
		d.logger.Warn("failed to parse message", "error", err, "size", len(frame.Data))
		d.countParseError()
		return
	}

	switch env.Type {
	case protocol.TypeUpdateUsers:
		d.handleUpdateUsers(frame)

	case protocol.TypeNotification:
		d.handleNotification(frame)

	case protocol.TypeError:
		d.handleError(frame)

	case protocol.TypePong:
		d.mu.Lock()
		d.lastPongAt = frame.ReceivedAt
		d.dispatched++
		d.mu.Unlock()

	default:
		d.logger.Debug("skipping message type", "type", env.Type)
		d.mu.Lock()
		d.unknown++
		d.mu.Unlock()
	}
}

// Stats returns current statistics.
func (d *Dispatcher) Stats() Stats {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return Stats{
		Received:    d.received,
		Dispatched:  d.dispatched,
		ParseErrors: d.parseErrors,
		Unknown:     d.unknown,
		Refreshes:   d.refreshes,
		LastPongAt:  d.lastPongAt,
	}
}

func (d *Dispatcher) handleUpdateUsers(frame connection.Frame) {
	var wire protocol.UpdateUsersWire
	if err := json.Unmarshal(frame.Data, &wire); err != nil {
		d.logger.Warn("failed to parse update_users", "error", err)
		d.countParseError()
		return
	}

	snap, err := decodeSnapshot(wire)
	if err != nil {
		d.logger.Warn("rejected user list snapshot", "error", err)
		d.store.SetError(err.Error())
		d.countDispatched()
		return
	}

	d.store.ReplaceUsers(snap)
	d.logger.Debug("user lists updated",
		"available", len(snap.Available),
		"sent", len(snap.SentRequests),
		"pending", len(snap.PendingRequests),
		"mutual", len(snap.MutualConnections),
	)
	d.countDispatched()
}

func (d *Dispatcher) handleNotification(frame connection.Frame) {
	var wire protocol.NotificationWire
	if err := json.Unmarshal(frame.Data, &wire); err != nil {
		d.logger.Warn("failed to parse notification", "error", err)
		d.countParseError()
		return
	}

	n := d.store.PushNotification(wire.Message)
	d.logger.Info("notification received", "id", n.ID, "message", wire.Message, "action", wire.Action)

	if wire.Action == protocol.ActionRefreshUsers {
		d.mu.Lock()
		d.refreshes++
		d.mu.Unlock()

		if d.sender == nil || !d.sender.Send(protocol.GetUsers()) {
			d.logger.Warn("refresh requested but get_users was not sent")
		}
	}
	d.countDispatched()
}

func (d *Dispatcher) handleError(frame connection.Frame) {
	var wire protocol.ErrorWire
	if err := json.Unmarshal(frame.Data, &wire); err != nil {
		d.logger.Warn("failed to parse error message", "error", err)
		d.countParseError()
		return
	}

	msg := errorText(wire.Message)
	d.logger.Warn("server reported error", "message", msg)
	d.store.SetError(msg)
	d.countDispatched()
}

func (d *Dispatcher) countParseError() {
	d.mu.Lock()
	d.parseErrors++
	d.mu.Unlock()
}

func (d *Dispatcher) countDispatched() {
	d.mu.Lock()
	d.dispatched++
	d.mu.Unlock()
}
