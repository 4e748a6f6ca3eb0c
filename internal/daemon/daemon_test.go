package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/daqd/internal/sqlite"
	"github.com/mesh-intelligence/daqd/internal/testutil/testlog"
	"github.com/mesh-intelligence/daqd/internal/wire"
	"github.com/mesh-intelligence/daqd/pkg/types"
)

func newSink(t *testing.T) *sqlite.Backend {
	t.Helper()
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{DBPath: filepath.Join(t.TempDir(), "daqd.db"), FreshDB: true}))
	t.Cleanup(func() { b.Detach() })
	return b
}

// producerStream announces table "sensors" with one Int column and sends
// the given readings.
func producerStream(readings ...uint32) []byte {
	var b []byte
	b = wire.AppendString(b, 0, "sensors")
	b = wire.AppendString(b, 1, "temperature")
	b = wire.AppendDescriptor(b, 0, wire.Descriptor{
		Name:   0,
		Fields: []wire.FieldDescriptor{{Type: wire.TypeInt, Name: 1}},
	})
	for _, r := range readings {
		b = wire.AppendEntry(b, 0, wire.Int(r))
	}
	return b
}

func waitForRows(t *testing.T, sink *sqlite.Backend, table string, want int) {
	t.Helper()
	require.Eventually(t, func() bool {
		n, err := sink.CountRows(context.Background(), table)
		return err == nil && n == want
	}, 5*time.Second, 10*time.Millisecond)
}

var fastBackoff = types.BackoffConfig{InitialDelay: 5 * time.Millisecond, Multiplier: 2, MaxDelay: 20 * time.Millisecond}

func TestClient_ReconnectsWithFreshSession(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	// Each connection restarts uid numbering at zero, as a restarted
	// producer would.
	go func() {
		for i := 0; i < 2; i++ {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Write(producerStream(uint32(10*i), uint32(10*i+1)))
			conn.Close()
		}
	}()

	sink := newSink(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := &Client{Addr: ln.Addr().String(), Sink: sink, Backoff: fastBackoff, Logger: testlog.New(t)}
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	waitForRows(t, sink, "sensors", 4)
	cancel()
	require.NoError(t, <-done)
}

func TestClient_GivesUpAfterMaxAttempts(t *testing.T) {
	dials := 0
	c := &Client{
		Addr:    "producer:2001",
		Sink:    newSink(t),
		Backoff: types.BackoffConfig{InitialDelay: time.Millisecond, Multiplier: 1, MaxDelay: time.Millisecond, MaxAttempts: 3},
		Logger:  testlog.New(t),
		Dial: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dials++
			return nil, errors.New("connection refused")
		},
	}
	err := c.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 attempts")
	assert.Equal(t, 3, dials)
}

func TestClient_CancelUnblocksRead(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()

	dialed := make(chan struct{})
	c := &Client{
		Addr:    "pipe",
		Sink:    newSink(t),
		Backoff: fastBackoff,
		Logger:  testlog.New(t),
		Dial: func(ctx context.Context, network, addr string) (net.Conn, error) {
			select {
			case <-dialed:
				<-ctx.Done()
				return nil, ctx.Err()
			default:
				close(dialed)
				return client, nil
			}
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	<-dialed
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestServer_IndependentSessionsShareSink(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	sink := newSink(t)
	srv := &Server{Sink: sink, Logger: testlog.New(t)}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	const producers = 4
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			conn, err := net.Dial("tcp", ln.Addr().String())
			if !assert.NoError(t, err) {
				return
			}
			defer conn.Close()
			_, err = conn.Write(producerStream(uint32(p), uint32(p+100), uint32(p+200)))
			assert.NoError(t, err)
		}(p)
	}
	wg.Wait()

	waitForRows(t, sink, "sensors", producers*3)
	cancel()
	require.NoError(t, <-done)
}

func TestServer_ProtocolViolationEndsOnlyThatSession(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	sink := newSink(t)
	srv := &Server{Sink: sink, Logger: testlog.New(t)}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	bad, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	_, err = bad.Write(wire.AppendEntry(nil, 9, wire.Int(1)))
	require.NoError(t, err)

	// The server closes the violating connection.
	bad.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, err = bad.Read(make([]byte, 1))
	require.Error(t, err)
	bad.Close()

	good, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer good.Close()
	_, err = good.Write(producerStream(1, 2))
	require.NoError(t, err)

	waitForRows(t, sink, "sensors", 2)
	cancel()
	require.NoError(t, <-done)
}

func TestServer_ListenAndServeBadAddr(t *testing.T) {
	srv := &Server{Sink: newSink(t), Logger: testlog.New(t)}
	err := srv.ListenAndServe(context.Background(), fmt.Sprintf("127.0.0.1:%d", 99999))
	require.Error(t, err)
}
