// internal/link/state.go
package link

import "errors"

// State names the connection state machine positions. Transitions are
// owned by the manager's run loop; everything else only reads.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateDegraded
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// ErrLinkDown is returned for commands submitted while the link is not
// connected. No bytes reach the wire.
var ErrLinkDown = errors.New("link: board not connected")

// ErrTimeout is returned when a command's response deadline elapses.
// The overrun counts as a link failure; partial success is never assumed.
var ErrTimeout = errors.New("link: command timed out")
