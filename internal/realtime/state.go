package realtime

// State connection lifecycle state
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// Domain feature a connection belongs to; each domain gets its own socket.
type Domain string

const (
	DomainChat         Domain = "chat"
	DomainAdminChat    Domain = "admin-chat"
	DomainNotification Domain = "notification"
)
