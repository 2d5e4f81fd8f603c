package protocol

// Outgoing actions.
const (
	ActionInitConnection = "init_connection"
	ActionGetUsers       = "get_users"
	ActionSendRequest    = "send_request"
	ActionApproveRequest = "approve_request"
	ActionRejectRequest  = "reject_request"
	ActionDisconnect     = "disconnect"
	ActionPing           = "ping"
)

// Command is an outgoing message to the server.
type Command struct {
	Action   string `json:"action"`
	Username string `json:"username,omitempty"`
	Sender   string `json:"sender,omitempty"`
	Receiver string `json:"receiver,omitempty"`
}

// InitConnection announces the local user after the channel opens.
func InitConnection(username string) Command {
	return Command{Action: ActionInitConnection, Username: username}
}

// GetUsers asks the server for a fresh update_users snapshot.
func GetUsers() Command {
	return Command{Action: ActionGetUsers}
}

// SendRequest asks receiver to connect with sender.
func SendRequest(sender, receiver string) Command {
	return Command{Action: ActionSendRequest, Sender: sender, Receiver: receiver}
}

// ApproveRequest accepts a pending request from sender.
func ApproveRequest(sender, receiver string) Command {
	return Command{Action: ActionApproveRequest, Sender: sender, Receiver: receiver}
}

// RejectRequest declines a pending request from sender.
func RejectRequest(sender, receiver string) Command {
	return Command{Action: ActionRejectRequest, Sender: sender, Receiver: receiver}
}

// Disconnect tells the server the client is leaving.
func Disconnect() Command {
	return Command{Action: ActionDisconnect}
}

// Ping asks the server for a pong.
func Ping() Command {
	return Command{Action: ActionPing}
}
