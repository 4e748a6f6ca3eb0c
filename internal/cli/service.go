package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/daqd/internal/metrics"
	"github.com/mesh-intelligence/daqd/internal/sqlite"
	"github.com/mesh-intelligence/daqd/pkg/types"
)

const metricsShutdownTimeout = 5 * time.Second

// runWithSink attaches the sqlite sink, starts the metrics endpoint when
// configured, and runs fn until it returns or ctx is done.
func runWithSink(ctx context.Context, cfg types.Config, fn func(ctx context.Context, sink *sqlite.Backend) error) error {
	backend := sqlite.NewBackend()
	if err := backend.Attach(cfg); err != nil {
		return sysError(fmt.Errorf("attach %s: %w", cfg.DBPath, err))
	}
	defer func() {
		if err := backend.Detach(); err != nil {
			log.Error().Err(err).Msg("detach sink")
		}
	}()
	log.Info().Str("db", cfg.DBPath).Bool("fresh", cfg.FreshDB).Msg("sink attached")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	group, ctx := errgroup.WithContext(ctx)

	if cfg.MetricsAddr != "" {
		metrics.RegisterMetrics()
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		group.Go(func() error {
			log.Info().Str("addr", cfg.MetricsAddr).Msg("serving metrics")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		group.Go(func() error {
			<-ctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), metricsShutdownTimeout)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
	}

	group.Go(func() error {
		defer cancel()
		return fn(ctx, backend)
	})
	return sysError(group.Wait())
}
