package types

import "errors"

// Kind classifies a decoder error by how the session must react to it.
type Kind int

const (
	// KindUnknown is any error not produced by the decoder taxonomy.
	KindUnknown Kind = iota
	// KindInsufficientData means more bytes are needed; never fatal.
	KindInsufficientData
	// KindMalformedFrame means the current frame is discarded and header
	// scanning resumes.
	KindMalformedFrame
	// KindProtocolViolation ends the session.
	KindProtocolViolation
	// KindTransportFailure ends the session.
	KindTransportFailure
	// KindSinkFailure ends the session.
	KindSinkFailure
)

func (k Kind) String() string {
	switch k {
	case KindInsufficientData:
		return "insufficient_data"
	case KindMalformedFrame:
		return "malformed_frame"
	case KindProtocolViolation:
		return "protocol_violation"
	case KindTransportFailure:
		return "transport_failure"
	case KindSinkFailure:
		return "sink_failure"
	default:
		return "unknown"
	}
}

// Taxonomy roots. Specific errors below wrap exactly one of these.
var (
	ErrInsufficientData  = errors.New("insufficient data")
	ErrMalformedFrame    = errors.New("malformed frame")
	ErrProtocolViolation = errors.New("protocol violation")
	ErrTransportFailure  = errors.New("transport failure")
	ErrSinkFailure       = errors.New("sink failure")
)

// Malformed frame causes.
var (
	ErrUnknownFieldTag = wrapKind(ErrMalformedFrame, "unknown field tag")
	ErrInvalidUTF8     = wrapKind(ErrMalformedFrame, "invalid utf-8 text")
	ErrBadFieldCount   = wrapKind(ErrMalformedFrame, "field count out of range")
)

// Protocol violation causes.
var (
	ErrOutOfSequenceID   = wrapKind(ErrProtocolViolation, "out of sequence id")
	ErrUnknownID         = wrapKind(ErrProtocolViolation, "unknown string id")
	ErrUnknownDescriptor = wrapKind(ErrProtocolViolation, "unknown descriptor")
	ErrInvalidIdentifier = wrapKind(ErrProtocolViolation, "invalid sql identifier")
)

// Transport causes.
var (
	ErrTransportClosed = wrapKind(ErrTransportFailure, "transport closed")
	ErrUnexpectedClose = wrapKind(ErrTransportFailure, "transport closed mid-frame")
	ErrFrameTooLarge   = wrapKind(ErrTransportFailure, "frame exceeds buffer capacity")
)

// Config validation errors.
var (
	ErrDBPathEmpty        = errors.New("db path must not be empty")
	ErrBufferTooSmall     = errors.New("buffer size below largest frame size")
	ErrBackoffInvalid     = errors.New("reconnect backoff must be positive")
	ErrMultiplierInvalid  = errors.New("reconnect multiplier must be >= 1")
	ErrMaxAttemptsInvalid = errors.New("reconnect max attempts must not be negative")
)

// Sink lifecycle errors.
var (
	ErrSinkDetached  = wrapKind(ErrSinkFailure, "sink is detached")
	ErrAlreadyOpen   = errors.New("sink is already attached")
	ErrTableConflict = wrapKind(ErrSinkFailure, "table exists with a different definition")
	ErrTableUnknown  = wrapKind(ErrSinkFailure, "unknown table")
)

type kindError struct {
	root error
	msg  string
}

func wrapKind(root error, msg string) error {
	return &kindError{root: root, msg: msg}
}

func (e *kindError) Error() string { return e.root.Error() + ": " + e.msg }

func (e *kindError) Unwrap() error { return e.root }

// KindOf reports which taxonomy kind err belongs to.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrInsufficientData):
		return KindInsufficientData
	case errors.Is(err, ErrMalformedFrame):
		return KindMalformedFrame
	case errors.Is(err, ErrProtocolViolation):
		return KindProtocolViolation
	case errors.Is(err, ErrTransportFailure):
		return KindTransportFailure
	case errors.Is(err, ErrSinkFailure):
		return KindSinkFailure
	default:
		return KindUnknown
	}
}

// IsFatal reports whether err must end the session. Malformed frames and
// missing data are the only recoverable conditions.
func IsFatal(err error) bool {
	switch KindOf(err) {
	case KindInsufficientData, KindMalformedFrame:
		return false
	default:
		return err != nil
	}
}
