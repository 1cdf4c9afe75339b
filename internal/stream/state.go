package stream

// ConnectionState identifies the lifecycle phase of a Manager. Exactly one
// state is active per manager at any time.
type ConnectionState int

const (
	// StateConnecting means a handshake is in flight.
	StateConnecting ConnectionState = iota
	// StateOpen means the socket is established and usable.
	StateOpen
	// StateClosing means an explicit close is tearing the socket down.
	StateClosing
	// StateClosed is terminal until an explicit Reconnect call.
	StateClosed
	// StateReconnecting means a retry timer is pending after a drop.
	StateReconnecting
)

// String returns the state name.
func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}
