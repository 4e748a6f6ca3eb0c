package daemon

import (
	"context"
	"errors"
	"net"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/daqd/pkg/types"
)

// Server accepts producer connections and runs an independent session for
// each. The Sink is shared and must be safe for concurrent use.
type Server struct {
	Sink       types.Sink
	BufferSize int
	Logger     zerolog.Logger
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts on ln until ctx is done or Accept fails, then closes every
// open connection and waits for their sessions to finish. A session
// failure never stops the server. Returns nil on cancellation.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	group, ctx := errgroup.WithContext(ctx)
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	s.Logger.Info().Str("listen", ln.Addr().String()).Msg("accepting producers")
	var acceptErr error
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, net.ErrClosed) {
				acceptErr = err
			}
			break
		}
		group.Go(func() error {
			serveConn(ctx, conn, s.Sink, s.BufferSize, s.Logger)
			return nil
		})
	}
	cancel()
	group.Wait()
	return acceptErr
}
