package protocol

import "encoding/json"

// Incoming message types.
const (
	TypeUpdateUsers  = "update_users"
	TypeNotification = "notification"
	TypeError        = "error"
	TypePong         = "pong"
)

// ActionRefreshUsers is the notification action asking the client to re-fetch users.
const ActionRefreshUsers = "refresh_users"

// Envelope is used for fast type extraction.
type Envelope struct {
	Type string `json:"type"`
}

// UpdateUsersWire is the wire format for update_users messages.
// Fields stay raw so each list can be validated before anything is stored.
type UpdateUsersWire struct {
	Type              string          `json:"type"`
	Users             json.RawMessage `json:"users"`
	SentRequests      json.RawMessage `json:"sent_requests"`
	PendingRequests   json.RawMessage `json:"pending_requests"`
	MutualConnections json.RawMessage `json:"mutual_connections"`
}

// NotificationWire is the wire format for notification messages.
type NotificationWire struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
}

// ErrorWire is the wire format for error messages.
// Message stays raw since servers do not always send a string.
type ErrorWire struct {
	Type    string          `json:"type"`
	Message json.RawMessage `json:"message"`
}
