package daemon

import (
	"context"
	"errors"
	"net"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/daqd/internal/metrics"
	"github.com/mesh-intelligence/daqd/internal/session"
	"github.com/mesh-intelligence/daqd/pkg/types"
)

// serveConn runs one session over conn until the session ends or ctx is
// done. Closing the connection is what unblocks a pending read on cancel.
func serveConn(ctx context.Context, conn net.Conn, sink types.Sink, bufferSize int, logger zerolog.Logger) (session.Stats, error) {
	connLog := logger.With().Str("remote", conn.RemoteAddr().String()).Logger()
	s := session.New(sink, session.Config{BufferSize: bufferSize, Logger: &connLog})

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()
	defer conn.Close()

	connLog.Info().Str("session", s.ID()).Msg("session started")
	err := s.Run(ctx, conn)
	if ctx.Err() != nil {
		err = ctx.Err()
	}

	stats := s.Stats()
	kind := types.KindOf(err).String()
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kind = "canceled"
	case errors.Is(err, types.ErrTransportClosed):
		kind = "closed"
	}
	metrics.RecordSessionEnd(kind)

	event := connLog.Info()
	if kind != "closed" && kind != "canceled" {
		event = connLog.Error().Err(err)
	}
	event.
		Str("session", s.ID()).
		Str("reason", kind).
		Int("strings", stats.Strings).
		Int("descriptors", stats.Descriptors).
		Int("entries", stats.Entries).
		Int("malformed", stats.Malformed).
		Int("resync_bytes", stats.ResyncBytes).
		Msg("session ended")
	return stats, err
}
