package client

// State is the connection lifecycle position of a Session.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateAwaitingHandshake
	StateAuthenticating
	StateConnected
	StateClosed
	StateFailed
)

var stateNames = [...]string{
	StateDisconnected:      "disconnected",
	StateConnecting:        "connecting",
	StateAwaitingHandshake: "awaiting_handshake",
	StateAuthenticating:    "authenticating",
	StateConnected:         "connected",
	StateClosed:            "closed",
	StateFailed:            "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateClosed || s == StateFailed
}

// open reports whether a transport is (or is about to be) held.
func (s State) open() bool {
	switch s {
	case StateConnecting, StateAwaitingHandshake, StateAuthenticating, StateConnected:
		return true
	default:
		return false
	}
}
