package model

import "slices"

// -----------------------------------------------------------------------------
// Synchronized State
// -----------------------------------------------------------------------------

// UserListSnapshot is the complete set of user collections pushed by the server.
// It is always replaced as a whole, never merged.
type UserListSnapshot struct {
	Available         []string `json:"available"`          // All other users known to the server
	SentRequests      []string `json:"sent_requests"`      // Pending requests sent by the local user
	PendingRequests   []string `json:"pending_requests"`   // Pending requests received by the local user
	MutualConnections []string `json:"mutual_connections"` // Approved connections in either direction
}

// Clone returns a deep copy. Nil lists become empty lists.
func (s UserListSnapshot) Clone() UserListSnapshot {
	return UserListSnapshot{
		Available:         cloneList(s.Available),
		SentRequests:      cloneList(s.SentRequests),
		PendingRequests:   cloneList(s.PendingRequests),
		MutualConnections: cloneList(s.MutualConnections),
	}
}

// Requestable returns the users the local user may still send a request to:
// Available minus self, minus SentRequests, minus MutualConnections.
// PendingRequests is a separate bucket and does not exclude anyone.
func (s UserListSnapshot) Requestable(self string) []string {
	out := make([]string, 0, len(s.Available))
	for _, u := range s.Available {
		if u == self || slices.Contains(s.SentRequests, u) || slices.Contains(s.MutualConnections, u) {
			continue
		}
		out = append(out, u)
	}
	return out
}

// Notification is a server-pushed notice.
type Notification struct {
	ID      int64  `json:"id"`      // Receive timestamp (ms since epoch), strictly increasing
	Message string `json:"message"` // Display text
}

// -----------------------------------------------------------------------------
// Read Model
// -----------------------------------------------------------------------------

// View is the read-only state handed to a rendering layer.
type View struct {
	Username      string           `json:"username"`
	Users         UserListSnapshot `json:"users"`
	Requestable   []string         `json:"requestable"`
	Notifications []Notification   `json:"notifications"` // Newest first
	Error         string           `json:"error,omitempty"`
}

func cloneList(in []string) []string {
	if in == nil {
		return []string{}
	}
	return slices.Clone(in)
}
