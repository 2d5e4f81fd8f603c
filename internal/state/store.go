package state

import (
	"sync"
	"time"

	"github.com/rickgao/connsync/internal/model"
)

// DefaultNotificationCapacity is the number of notifications kept.
const DefaultNotificationCapacity = 5

// ChangeKind identifies what part of the store changed.
type ChangeKind string

const (
	ChangeUsers        ChangeKind = "users"
	ChangeNotification ChangeKind = "notification"
	ChangeError        ChangeKind = "error"
	ChangeReset        ChangeKind = "reset"
)

// Change is published to watchers after every mutation.
type Change struct {
	Kind ChangeKind
	At   time.Time
}

// Store holds the synchronized client state.
type Store struct {
	mu       sync.RWMutex
	users    model.UserListSnapshot
	lastErr  string
	lastID   int64
	notifies *Queue[model.Notification]
	now      func() time.Time

	watchMu  sync.RWMutex
	watchers map[int]chan Change
	nextID   int
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for notification IDs.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates an empty store keeping up to capacity notifications.
func NewStore(capacity int, opts ...Option) *Store {
	if capacity < 1 {
		capacity = DefaultNotificationCapacity
	}
	s := &Store{
		users:    model.UserListSnapshot{}.Clone(),
		notifies: NewQueue[model.Notification](capacity),
		now:      time.Now,
		watchers: make(map[int]chan Change),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReplaceUsers swaps in a new snapshot and clears the last error.
// All four collections change together.
func (s *Store) ReplaceUsers(snap model.UserListSnapshot) {
	next := snap.Clone()

	s.mu.Lock()
	s.users = next
	s.lastErr = ""
	s.mu.Unlock()

	s.publish(ChangeUsers)
}

// SetError overwrites the last error.
func (s *Store) SetError(msg string) {
	s.mu.Lock()
	s.lastErr = msg
	s.mu.Unlock()

	s.publish(ChangeError)
}

// PushNotification records a notice as the newest entry, evicting past capacity.
func (s *Store) PushNotification(msg string) model.Notification {
	s.mu.Lock()
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	n := model.Notification{ID: id, Message: msg}
	s.notifies.Push(n)
	s.mu.Unlock()

	s.publish(ChangeNotification)
	return n
}

// Snapshot returns a copy of the current user lists.
func (s *Store) Snapshot() model.UserListSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users.Clone()
}

// Notifications returns the notifications, newest first.
func (s *Store) Notifications() []model.Notification {
	return s.notifies.Items()
}

// Error returns the last error, or "" if none.
func (s *Store) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// View builds the read model for a rendering layer.
func (s *Store) View(self string) model.View {
	s.mu.RLock()
	users := s.users.Clone()
	lastErr := s.lastErr
	s.mu.RUnlock()

	return model.View{
		Username:      self,
		Users:         users,
		Requestable:   users.Requestable(self),
		Notifications: s.notifies.Items(),
		Error:         lastErr,
	}
}

// Reset clears everything. Used on logout.
func (s *Store) Reset() {
	s.mu.Lock()
	s.users = model.UserListSnapshot{}.Clone()
	s.lastErr = ""
	s.notifies.Clear()
	s.mu.Unlock()

	s.publish(ChangeReset)
}

// QueueStats returns notification queue statistics.
func (s *Store) QueueStats() QueueStats {
	return s.notifies.Stats()
}

// Watch returns a channel receiving every change. bufSize controls the channel
// buffer; changes are dropped for a watcher whose buffer is full.
// The returned function unsubscribes.
func (s *Store) Watch(bufSize int) (<-chan Change, func()) {
	ch := make(chan Change, bufSize)

	s.watchMu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = ch
	s.watchMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.watchMu.Lock()
			delete(s.watchers, id)
			s.watchMu.Unlock()
		})
	}
}

func (s *Store) publish(kind ChangeKind) {
	evt := Change{Kind: kind, At: s.now()}

	s.watchMu.RLock()
	defer s.watchMu.RUnlock()
	for _, ch := range s.watchers {
		select {
		case ch <- evt:
		default:
		}
	}
}
