package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rickgao/connsync/internal/model"
	"github.com/rickgao/connsync/internal/protocol"
)

// Error messages surfaced to the store.
const (
	MsgInvalidUserData = "Invalid user data received"
	MsgUnknownError    = "Unknown error occurred"
)

var errNotList = errors.New("not a list of strings")

// Sender transmits a command on the channel. connection.Manager satisfies it.
type Sender interface {
	Send(cmd any) bool
}

// Stats contains runtime statistics.
type Stats struct {
	Received    int64     `json:"received"`
	Dispatched  int64     `json:"dispatched"`
	ParseErrors int64     `json:"parse_errors"`
	Unknown     int64     `json:"unknown"`
	Refreshes   int64     `json:"refreshes"` // get_users issued because of refresh_users
	LastPongAt  time.Time `json:"last_pong_at,omitzero"`
}

// errorText renders an error payload's message. A string is used as is and
// any other JSON value as its raw text.
func errorText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return MsgUnknownError
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return MsgUnknownError
		}
		return s
	}
	return string(raw)
}

// decodeSnapshot validates every list in an update_users payload.
// users is required; the other lists default to empty when absent or null.
func decodeSnapshot(wire protocol.UpdateUsersWire) (model.UserListSnapshot, error) {
	users, ok, err := decodeList(wire.Users)
	if err != nil || !ok {
		return model.UserListSnapshot{}, errors.New(MsgInvalidUserData)
	}

	var snap model.UserListSnapshot
	snap.Available = users

	optional := []struct {
		name string
		raw  json.RawMessage
		dst  *[]string
	}{
		{"sent_requests", wire.SentRequests, &snap.SentRequests},
		{"pending_requests", wire.PendingRequests, &snap.PendingRequests},
		{"mutual_connections", wire.MutualConnections, &snap.MutualConnections},
	}
	for _, f := range optional {
		list, _, err := decodeList(f.raw)
		if err != nil {
			return model.UserListSnapshot{}, fmt.Errorf("Invalid %s received", f.name)
		}
		*f.dst = list
	}

	return snap.Clone(), nil
}

// decodeList reports ok=false for an absent or null field.
func decodeList(raw json.RawMessage) ([]string, bool, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, false, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, false, errNotList
	}
	if list == nil {
		list = []string{}
	}
	return list, true, nil
}
