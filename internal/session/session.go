package session

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mesh-intelligence/daqd/internal/metrics"
	"github.com/mesh-intelligence/daqd/internal/registry"
	"github.com/mesh-intelligence/daqd/internal/stream"
	"github.com/mesh-intelligence/daqd/internal/strtab"
	"github.com/mesh-intelligence/daqd/internal/wire"
	"github.com/mesh-intelligence/daqd/pkg/types"
)

// Config holds per-session settings. The zero value is usable.
type Config struct {
	// ID identifies the session in logs. A UUID v7 is generated if empty.
	ID string

	// BufferSize is the reassembly capacity, raised to wire.MaxFrameSize
	// if smaller. Zero selects types.DefaultBufferSize.
	BufferSize int

	// Logger defaults to the global zerolog logger when nil.
	Logger *zerolog.Logger
}

// Session decodes one connection's byte stream into sink writes.
type Session struct {
	id    string
	buf   *stream.Buffer
	names *strtab.Table
	reg   *registry.Registry
	sink  types.Sink
	log   zerolog.Logger

	state  State
	desync int
	stats  Stats
}

// New creates a session with empty string and descriptor tables.
func New(sink types.Sink, cfg Config) *Session {
	size := cfg.BufferSize
	if size == 0 {
		size = types.DefaultBufferSize
	}
	if size < wire.MaxFrameSize {
		size = wire.MaxFrameSize
	}
	id := cfg.ID
	if id == "" {
		id = generateUUID()
	}
	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	return &Session{
		id:    id,
		buf:   stream.New(size),
		names: strtab.New(),
		reg:   registry.New(),
		sink:  sink,
		log:   logger.With().Str("session", id).Logger(),
		state: StateHeader,
	}
}

// generateUUID returns a UUID v7, falling back to v4.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns the current decoder state.
func (s *Session) State() State { return s.state }

// Stats returns a snapshot of the processing counters.
func (s *Session) Stats() Stats { return s.stats }

// Run decodes frames from r until the transport fails, a fatal protocol
// error occurs, or ctx is done. End of stream at a frame boundary returns
// types.ErrTransportClosed; callers that treat that as a clean end check
// for it with errors.Is. The reassembly buffer is released on return.
func (s *Session) Run(ctx context.Context, r io.Reader) error {
	defer s.buf.Release()
	defer s.flushDesync()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		act, err := s.Step(ctx)
		if err != nil {
			return err
		}
		if act == ActionResume {
			continue
		}
		if _, err := s.buf.Supply(r); err != nil {
			if errors.Is(err, types.ErrTransportClosed) && s.state != StateHeader {
				return fmt.Errorf("%s payload pending: %w", s.state, types.ErrUnexpectedClose)
			}
			return err
		}
	}
}

// Step runs a single transition against the buffered bytes. Malformed
// frames are logged and skipped here; only fatal errors are returned.
func (s *Session) Step(ctx context.Context) (Action, error) {
	var (
		next State
		act  Action
		err  error
	)
	switch s.state {
	case StateHeader:
		next, act = s.parseHeader()
	case StateString:
		next, act, err = s.parseString()
	case StateDescriptor:
		next, act, err = s.parseDescriptor(ctx)
	case StateEntry:
		next, act, err = s.parseEntry(ctx)
	default:
		return ActionAwait, fmt.Errorf("session in state %d", s.state)
	}

	if err != nil {
		if types.IsFatal(err) {
			return ActionAwait, err
		}
		s.stats.Malformed++
		metrics.RecordMalformed(s.state.msgType().String())
		s.log.Warn().Err(err).Str("frame", s.state.msgType().String()).Msg("skipped malformed frame")
		s.state = StateHeader
		return ActionResume, nil
	}
	s.state = next
	return act, nil
}

func (s *Session) parseHeader() (State, Action) {
	w, ok := s.buf.Peek(wire.HeaderSize)
	if !ok {
		return StateHeader, ActionAwait
	}
	msg, match, _ := wire.ParseHeader(w)
	if !match {
		s.buf.Advance(1)
		s.desync++
		return StateHeader, ActionResume
	}
	s.flushDesync()
	s.buf.Advance(wire.HeaderSize)

	next, known := stateFor(msg)
	if !known {
		s.stats.Unknown++
		s.log.Debug().Uint8("type", uint8(msg)).Msg("ignored frame with unknown message type")
	}
	return next, ActionResume
}

// flushDesync reports a finished run of skipped bytes.
func (s *Session) flushDesync() {
	if s.desync == 0 {
		return
	}
	s.stats.ResyncBytes += s.desync
	metrics.RecordResync(s.desync)
	s.log.Warn().Int("skipped", s.desync).Msg("resynchronized on frame header")
	s.desync = 0
}

func (s *Session) parseString() (State, Action, error) {
	limit := s.buf.Cap() - wire.StringPrefixSize
	uid, text, size, err := wire.ParseString(s.buf.Window(), limit)
	switch {
	case errors.Is(err, types.ErrInsufficientData):
		return StateString, ActionAwait, nil
	case types.KindOf(err) == types.KindMalformedFrame:
		s.buf.Advance(size)
		return StateHeader, ActionResume, err
	case err != nil:
		return StateString, ActionAwait, err
	}

	if err := s.names.Intern(uid, text); err != nil {
		return StateString, ActionAwait, err
	}
	s.buf.Advance(size)
	s.stats.Strings++
	metrics.RecordFrame(wire.MsgString.String())
	s.log.Debug().Uint32("uid", uid).Str("text", text).Msg("interned string")
	return StateHeader, ActionResume, nil
}

func (s *Session) parseDescriptor(ctx context.Context) (State, Action, error) {
	uid, d, size, err := wire.ParseDescriptor(s.buf.Window())
	switch {
	case errors.Is(err, types.ErrInsufficientData):
		return StateDescriptor, ActionAwait, nil
	case types.KindOf(err) == types.KindMalformedFrame:
		s.buf.Advance(size)
		return StateHeader, ActionResume, err
	case err != nil:
		return StateDescriptor, ActionAwait, err
	}

	e, err := s.reg.Register(uid, d, s.names)
	if err != nil {
		return StateDescriptor, ActionAwait, err
	}
	s.buf.Advance(size)

	if err := s.sink.EnsureTable(ctx, e.Table); err != nil {
		return StateHeader, ActionAwait, fmt.Errorf("ensure table %s: %w: %w", e.Table.Name, types.ErrSinkFailure, err)
	}
	s.stats.Descriptors++
	metrics.RecordFrame(wire.MsgDescriptor.String())
	metrics.RecordTable()
	s.log.Info().Uint32("uid", uid).Str("table", e.Table.Name).Int("fields", len(e.Table.Columns)).Msg("registered descriptor")
	return StateHeader, ActionResume, nil
}

func (s *Session) parseEntry(ctx context.Context) (State, Action, error) {
	w := s.buf.Window()
	uid, err := wire.ParseEntryUID(w)
	if err != nil {
		return StateEntry, ActionAwait, nil
	}
	e, err := s.reg.Get(uid)
	if err != nil {
		return StateEntry, ActionAwait, err
	}
	values, size, err := wire.DecodeEntry(e.Descriptor, w)
	if errors.Is(err, types.ErrInsufficientData) {
		return StateEntry, ActionAwait, nil
	}
	if err != nil {
		return StateEntry, ActionAwait, err
	}

	args, err := s.bind(values)
	if err != nil {
		return StateEntry, ActionAwait, fmt.Errorf("entry for descriptor %d: %w", uid, err)
	}
	s.buf.Advance(size)

	if err := s.sink.InsertRow(ctx, e.Table, args); err != nil {
		return StateHeader, ActionAwait, fmt.Errorf("insert into %s: %w: %w", e.Table.Name, types.ErrSinkFailure, err)
	}
	s.stats.Entries++
	metrics.RecordFrame(wire.MsgEntry.String())
	metrics.RecordRow()
	return StateHeader, ActionResume, nil
}

// bind converts decoded values to sink arguments, resolving string
// references through the session's string table.
func (s *Session) bind(values []wire.Value) ([]any, error) {
	args := make([]any, len(values))
	for i, v := range values {
		if v.Type != wire.TypeStr {
			args[i] = v.Scalar()
			continue
		}
		text, err := s.names.Resolve(v.StrID)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
		args[i] = text
	}
	return args, nil
}
