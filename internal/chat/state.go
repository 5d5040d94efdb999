package chat

import "fmt"

// State is the connection state of a chat session.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Reconnecting
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var validNext = map[State]map[State]bool{
	Disconnected: {Connecting: true},
	Connecting:   {Connected: true, Disconnected: true},
	Connected:    {Reconnecting: true, Disconnected: true},
	Reconnecting: {Connected: true, Disconnected: true},
}

// CanTransition reports whether a session may move from one state to another.
func CanTransition(from, to State) bool {
	return validNext[from][to]
}
