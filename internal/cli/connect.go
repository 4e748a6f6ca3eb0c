package cli

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/daqd/internal/daemon"
	"github.com/mesh-intelligence/daqd/internal/sqlite"
)

func newConnectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Connect to a producer and decode its stream, reconnecting on failure",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.config
			return runWithSink(cmd.Context(), cfg, func(ctx context.Context, sink *sqlite.Backend) error {
				c := &daemon.Client{
					Addr:       cfg.Addr,
					Sink:       sink,
					Backoff:    cfg.Reconnect,
					BufferSize: cfg.BufferSize,
					Logger:     log.Logger,
				}
				return c.Run(ctx)
			})
		},
	}
	cmd.Flags().String("addr", "", "producer address (default: 127.0.0.1:2001)")
	cmd.Flags().Int("max-attempts", 0, "give up after this many consecutive failed connections (0: never)")
	return cmd
}

func newListenCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Accept producer connections, one session per connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.config
			return runWithSink(cmd.Context(), cfg, func(ctx context.Context, sink *sqlite.Backend) error {
				srv := &daemon.Server{Sink: sink, BufferSize: cfg.BufferSize, Logger: log.Logger}
				return srv.ListenAndServe(ctx, cfg.Listen)
			})
		},
	}
	cmd.Flags().String("listen", "", "listen address (default: :2001)")
	return cmd
}
