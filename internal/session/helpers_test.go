package session

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/daqd/internal/testutil/testlog"
	"github.com/mesh-intelligence/daqd/internal/wire"
	"github.com/mesh-intelligence/daqd/pkg/types"
)

type row struct {
	table  string
	values []any
}

// recordingSink keeps every call in memory.
type recordingSink struct {
	mu        sync.Mutex
	tables    []types.Table
	rows      []row
	ensureErr error
	insertErr error
}

func (s *recordingSink) EnsureTable(_ context.Context, t types.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ensureErr != nil {
		return s.ensureErr
	}
	s.tables = append(s.tables, t)
	return nil
}

func (s *recordingSink) InsertRow(_ context.Context, t types.Table, values []any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	s.rows = append(s.rows, row{table: t.Name, values: values})
	return nil
}

func newTestSession(t *testing.T, sink types.Sink) *Session {
	t.Helper()
	logger := testlog.New(t)
	return New(sink, Config{ID: "test", Logger: &logger, BufferSize: wire.MaxFrameSize})
}

// chunkReader returns data in pseudo-random pieces of 1..max bytes.
type chunkReader struct {
	data []byte
	rng  *rand.Rand
	max  int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	n := 1 + r.rng.Intn(r.max)
	if n > len(p) {
		n = len(p)
	}
	if n > len(r.data) {
		n = len(r.data)
	}
	copy(p, r.data[:n])
	r.data = r.data[n:]
	return n, nil
}

// runAll runs a session over data and requires a clean end of stream.
func runAll(t *testing.T, s *Session, r io.Reader) {
	t.Helper()
	err := s.Run(context.Background(), r)
	require.ErrorIs(t, err, types.ErrTransportClosed)
}

// sensorsStream interns filler strings 0..6, "temperature" at 7 and
// "sensors" at 8, then registers filler descriptors 0..5 and the sensors
// descriptor at uid 6 with fields [(Int, 7)].
func sensorsStream() []byte {
	var b []byte
	for i := uint32(0); i < 7; i++ {
		b = wire.AppendString(b, i, fmt.Sprintf("f%d", i))
	}
	b = wire.AppendString(b, 7, "temperature")
	b = wire.AppendString(b, 8, "sensors")
	for i := uint32(0); i < 6; i++ {
		b = wire.AppendDescriptor(b, i, wire.Descriptor{
			Name:   i,
			Fields: []wire.FieldDescriptor{{Type: wire.TypeInt, Name: 6}},
		})
	}
	return wire.AppendDescriptor(b, 6, wire.Descriptor{
		Name:   8,
		Fields: []wire.FieldDescriptor{{Type: wire.TypeInt, Name: 7}},
	})
}

// mixedStream exercises every message and field type.
func mixedStream() []byte {
	var b []byte
	b = wire.AppendString(b, 0, "readings")
	b = wire.AppendString(b, 1, "count")
	b = wire.AppendString(b, 2, "level")
	b = wire.AppendString(b, 3, "armed")
	b = wire.AppendString(b, 4, "label")
	b = wire.AppendString(b, 5, "north")
	b = wire.AppendDescriptor(b, 0, wire.Descriptor{Name: 0, Fields: []wire.FieldDescriptor{
		{Type: wire.TypeInt, Name: 1},
		{Type: wire.TypeFloat, Name: 2},
		{Type: wire.TypeBool, Name: 3},
		{Type: wire.TypeStr, Name: 4},
	}})
	for i := uint32(0); i < 20; i++ {
		b = wire.AppendEntry(b, 0, wire.Int(i), wire.Float(float32(i)/4), wire.Bool(i%2 == 0), wire.Str(5))
	}
	return b
}
