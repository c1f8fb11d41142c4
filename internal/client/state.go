package client

// State is the client session state.
type State int

const (
	// StateConnecting precedes the first loop iteration.
	StateConnecting State = iota
	// StateAwaitingUsernameSend holds until the username bytes are accepted by the socket,
	// and again after the server rejects a name.
	StateAwaitingUsernameSend
	// StateActive means the username went out and chat lines may follow.
	StateActive
	// StateDisconnected is terminal.
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAwaitingUsernameSend:
		return "awaiting_username_send"
	case StateActive:
		return "active"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}
