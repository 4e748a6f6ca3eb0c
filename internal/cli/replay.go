package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/daqd/internal/session"
	"github.com/mesh-intelligence/daqd/internal/sqlite"
	"github.com/mesh-intelligence/daqd/pkg/types"
)

func newReplayCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "replay <file>",
		Short: "Decode a captured stream from a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			return runWithSink(cmd.Context(), a.config, func(ctx context.Context, sink *sqlite.Backend) error {
				stats, err := replay(ctx, f, sink, a.config.BufferSize)
				if err != nil {
					return err
				}
				return printSummary(ctx, cmd.OutOrStdout(), sink, stats)
			})
		},
	}
}

// replay runs one session over r. End of input between frames is a clean end.
func replay(ctx context.Context, r io.Reader, sink types.Sink, bufferSize int) (session.Stats, error) {
	logger := log.Logger.With().Str("source", "replay").Logger()
	s := session.New(sink, session.Config{BufferSize: bufferSize, Logger: &logger})
	err := s.Run(ctx, r)
	if errors.Is(err, types.ErrTransportClosed) {
		err = nil
	}
	return s.Stats(), err
}

func printSummary(ctx context.Context, w io.Writer, sink *sqlite.Backend, stats session.Stats) error {
	fmt.Fprintf(w, "strings: %d  descriptors: %d  entries: %d  malformed: %d  resync bytes: %d\n",
		stats.Strings, stats.Descriptors, stats.Entries, stats.Malformed, stats.ResyncBytes)

	tables, err := sink.Tables(ctx)
	if err != nil {
		return err
	}
	for _, name := range tables {
		n, err := sink.CountRows(ctx, name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %s: %d rows\n", name, n)
	}
	return nil
}
