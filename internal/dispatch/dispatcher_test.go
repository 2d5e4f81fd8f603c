package dispatch

import (
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/rickgao/connsync/internal/connection"
	"github.com/rickgao/connsync/internal/model"
	"github.com/rickgao/connsync/internal/protocol"
	"github.com/rickgao/connsync/internal/state"
)

// recordingSender captures commands instead of writing them.
type recordingSender struct {
	mu   sync.Mutex
	cmds []protocol.Command
	fail bool
}

func (s *recordingSender) Send(cmd any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return false
	}
	if c, ok := cmd.(protocol.Command); ok {
		s.cmds = append(s.cmds, c)
	}
	return true
}

func (s *recordingSender) sent() []protocol.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]protocol.Command(nil), s.cmds...)
}

func frame(data string) connection.Frame {
	return connection.Frame{Data: []byte(data), ReceivedAt: time.Now()}
}

func newTestDispatcher() (*Dispatcher, *state.Store, *recordingSender) {
	store := state.NewStore(state.DefaultNotificationCapacity)
	sender := &recordingSender{}
	return New(store, sender, nil), store, sender
}

func TestDispatcher_UpdateUsers(t *testing.T) {
	d, store, _ := newTestDispatcher()
	store.SetError("stale")

	d.HandleFrame(frame(`{"type":"update_users","users":["bob","carol"],"sent_requests":[],"pending_requests":["carol"],"mutual_connections":["bob"]}`))

	snap := store.Snapshot()
	if !slices.Equal(snap.Available, []string{"bob", "carol"}) {
		t.Errorf("Available = %v", snap.Available)
	}
	if len(snap.SentRequests) != 0 {
		t.Errorf("SentRequests = %v, want empty", snap.SentRequests)
	}
	if !slices.Equal(snap.PendingRequests, []string{"carol"}) {
		t.Errorf("PendingRequests = %v", snap.PendingRequests)
	}
	if !slices.Equal(snap.MutualConnections, []string{"bob"}) {
		t.Errorf("MutualConnections = %v", snap.MutualConnections)
	}
	if store.Error() != "" {
		t.Errorf("Error() = %q, want cleared", store.Error())
	}
	if got := store.View("alice").Requestable; !slices.Equal(got, []string{"carol"}) {
		t.Errorf("Requestable = %v, want [carol]", got)
	}
}

func TestDispatcher_UpdateUsersMissingOptionalLists(t *testing.T) {
	d, store, _ := newTestDispatcher()

	d.HandleFrame(frame(`{"type":"update_users","users":["a","b"]}`))

	snap := store.Snapshot()
	if !slices.Equal(snap.Available, []string{"a", "b"}) {
		t.Errorf("Available = %v", snap.Available)
	}
	if snap.SentRequests == nil || snap.PendingRequests == nil || snap.MutualConnections == nil {
		t.Errorf("missing lists should default to empty, got %+v", snap)
	}
}

func TestDispatcher_UpdateUsersInvalid(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"users missing", `{"type":"update_users","sent_requests":["x"]}`, MsgInvalidUserData},
		{"users null", `{"type":"update_users","users":null}`, MsgInvalidUserData},
		{"users object", `{"type":"update_users","users":{"bob":true}}`, MsgInvalidUserData},
		{"users string", `{"type":"update_users","users":"bob"}`, MsgInvalidUserData},
		{"users numbers", `{"type":"update_users","users":[1,2]}`, MsgInvalidUserData},
		{"bad sent list", `{"type":"update_users","users":["x"],"sent_requests":"y"}`, "Invalid sent_requests received"},
		{"bad mutual list", `{"type":"update_users","users":["x"],"mutual_connections":[{}]}`, "Invalid mutual_connections received"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, store, _ := newTestDispatcher()
			d.HandleFrame(frame(`{"type":"update_users","users":["prior"]}`))

			d.HandleFrame(frame(tt.data))

			if got := store.Error(); got != tt.wantErr {
				t.Errorf("Error() = %q, want %q", got, tt.wantErr)
			}
			if got := store.Snapshot().Available; !slices.Equal(got, []string{"prior"}) {
				t.Errorf("snapshot changed to %v, want [prior]", got)
			}
		})
	}
}

func TestDispatcher_LatestSnapshotWins(t *testing.T) {
	d, store, _ := newTestDispatcher()

	d.HandleFrame(frame(`{"type":"update_users","users":["a"],"sent_requests":["a"],"pending_requests":["p"],"mutual_connections":["m"]}`))
	d.HandleFrame(frame(`{"type":"update_users","users":["b"]}`))

	want := model.UserListSnapshot{
		Available:         []string{"b"},
		SentRequests:      []string{},
		PendingRequests:   []string{},
		MutualConnections: []string{},
	}
	got := store.Snapshot()
	if !slices.Equal(got.Available, want.Available) ||
		len(got.SentRequests) != 0 || len(got.PendingRequests) != 0 || len(got.MutualConnections) != 0 {
		t.Errorf("Snapshot() = %+v, want %+v", got, want)
	}
}

func TestDispatcher_Notification(t *testing.T) {
	d, store, sender := newTestDispatcher()

	d.HandleFrame(frame(`{"type":"notification","message":"bob sent you a request"}`))

	notes := store.Notifications()
	if len(notes) != 1 || notes[0].Message != "bob sent you a request" {
		t.Fatalf("Notifications() = %+v", notes)
	}
	if len(sender.sent()) != 0 {
		t.Errorf("plain notification should not send commands, sent %v", sender.sent())
	}
}

func TestDispatcher_NotificationRefresh(t *testing.T) {
	d, store, sender := newTestDispatcher()

	d.HandleFrame(frame(`{"type":"notification","message":"X","action":"refresh_users"}`))

	cmds := sender.sent()
	if len(cmds) != 1 || cmds[0].Action != protocol.ActionGetUsers {
		t.Fatalf("sent %v, want exactly one get_users", cmds)
	}
	if notes := store.Notifications(); len(notes) != 1 || notes[0].Message != "X" {
		t.Errorf("Notifications() = %+v", notes)
	}
	if d.Stats().Refreshes != 1 {
		t.Errorf("Refreshes = %d, want 1", d.Stats().Refreshes)
	}
}

func TestDispatcher_NotificationRefreshWhileClosed(t *testing.T) {
	d, store, sender := newTestDispatcher()
	sender.fail = true

	d.HandleFrame(frame(`{"type":"notification","message":"X","action":"refresh_users"}`))

	if len(store.Notifications()) != 1 {
		t.Error("notification should be stored even if the refresh cannot be sent")
	}
}

func TestDispatcher_NotificationCapacity(t *testing.T) {
	d, store, _ := newTestDispatcher()

	for _, m := range []string{"1", "2", "3", "4", "5", "6", "7"} {
		d.HandleFrame(frame(`{"type":"notification","message":"` + m + `"}`))
	}

	notes := store.Notifications()
	var got []string
	for _, n := range notes {
		got = append(got, n.Message)
	}
	if want := []string{"7", "6", "5", "4", "3"}; !slices.Equal(got, want) {
		t.Errorf("messages = %v, want %v", got, want)
	}
}

func TestDispatcher_Error(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"with message", `{"type":"error","message":"Receiver not found"}`, "Receiver not found"},
		{"without message", `{"type":"error"}`, MsgUnknownError},
		{"empty message", `{"type":"error","message":""}`, MsgUnknownError},
		{"null message", `{"type":"error","message":null}`, MsgUnknownError},
		{"object message", `{"type":"error","message":{"code":4}}`, `{"code":4}`},
		{"numeric message", `{"type":"error","message":42}`, "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, store, _ := newTestDispatcher()
			d.HandleFrame(frame(tt.data))
			if got := store.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
			if st := d.Stats(); st.ParseErrors != 0 || st.Dispatched != 1 {
				t.Errorf("Stats() = %+v, want 1 dispatched and no parse errors", st)
			}
		})
	}
}

func TestDispatcher_ErrorThenSnapshotClears(t *testing.T) {
	d, store, _ := newTestDispatcher()

	d.HandleFrame(frame(`{"type":"error","message":"boom"}`))
	d.HandleFrame(frame(`{"type":"update_users","users":[]}`))

	if store.Error() != "" {
		t.Errorf("Error() = %q, want cleared", store.Error())
	}
}

func TestDispatcher_MalformedAndUnknown(t *testing.T) {
	d, store, sender := newTestDispatcher()
	before := store.View("alice")

	d.HandleFrame(frame(`not json`))
	d.HandleFrame(frame(`[1,2,3]`))
	d.HandleFrame(frame(`{"type":"presence","user":"bob"}`))
	d.HandleFrame(frame(`{"no_type":true}`))

	after := store.View("alice")
	if after.Error != before.Error || len(after.Notifications) != 0 || len(after.Users.Available) != 0 {
		t.Errorf("state changed: %+v", after)
	}
	if len(sender.sent()) != 0 {
		t.Errorf("unexpected commands: %v", sender.sent())
	}

	stats := d.Stats()
	if stats.Received != 4 {
		t.Errorf("Received = %d, want 4", stats.Received)
	}
	if stats.ParseErrors != 2 {
		t.Errorf("ParseErrors = %d, want 2", stats.ParseErrors)
	}
	if stats.Unknown != 2 {
		t.Errorf("Unknown = %d, want 2", stats.Unknown)
	}
	if stats.Dispatched != 0 {
		t.Errorf("Dispatched = %d, want 0", stats.Dispatched)
	}
}

func TestDispatcher_Pong(t *testing.T) {
	d, _, _ := newTestDispatcher()
	f := frame(`{"type":"pong"}`)

	d.HandleFrame(f)

	if got := d.Stats().LastPongAt; !got.Equal(f.ReceivedAt) {
		t.Errorf("LastPongAt = %v, want %v", got, f.ReceivedAt)
	}
}
