package session

import "github.com/mesh-intelligence/daqd/internal/wire"

// State is the decoder position within the frame grammar.
type State int

const (
	StateHeader State = iota
	StateString
	StateEntry
	StateDescriptor
)

func (s State) String() string {
	switch s {
	case StateHeader:
		return "header"
	case StateString:
		return "string"
	case StateEntry:
		return "entry"
	case StateDescriptor:
		return "descriptor"
	default:
		return "unknown"
	}
}

// msgType names the frame a payload state is decoding.
func (s State) msgType() wire.MsgType {
	switch s {
	case StateString:
		return wire.MsgString
	case StateEntry:
		return wire.MsgEntry
	case StateDescriptor:
		return wire.MsgDescriptor
	default:
		return wire.MsgInvalid
	}
}

// stateFor maps a header message type to the payload state decoding it.
// ok is false for message types that carry no known payload.
func stateFor(msg wire.MsgType) (State, bool) {
	switch msg {
	case wire.MsgString:
		return StateString, true
	case wire.MsgEntry:
		return StateEntry, true
	case wire.MsgDescriptor:
		return StateDescriptor, true
	default:
		return StateHeader, false
	}
}

// Action tells the run loop what to do after a transition.
type Action int

const (
	// ActionResume means another transition can run on buffered bytes.
	ActionResume Action = iota
	// ActionAwait means the transport must supply more bytes first.
	ActionAwait
)

func (a Action) String() string {
	if a == ActionAwait {
		return "await"
	}
	return "resume"
}

// Stats counts what a session has processed.
type Stats struct {
	Strings     int
	Descriptors int
	Entries     int
	Unknown     int
	Malformed   int
	ResyncBytes int
}
