package daemon

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"time"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/daqd/pkg/types"
)

// Client connects to a single producer and keeps reconnecting.
type Client struct {
	Addr       string
	Sink       types.Sink
	Backoff    types.BackoffConfig
	BufferSize int
	Logger     zerolog.Logger

	// Dial defaults to a net.Dialer with a 5s timeout.
	Dial func(ctx context.Context, network, addr string) (net.Conn, error)
}

// Run dials Addr and runs one session per connection until ctx is done or
// Backoff.MaxAttempts consecutive attempts fail. A session that decoded at
// least one frame resets the attempt count. Every connection starts with
// empty string and descriptor tables. Returns nil on cancellation.
func (c *Client) Run(ctx context.Context) error {
	dial := c.Dial
	if dial == nil {
		d := &net.Dialer{Timeout: 5 * time.Second}
		dial = d.DialContext
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	log := c.Logger.With().Str("addr", c.Addr).Logger()

	failures := 0
	for {
		conn, err := dial(ctx, "tcp", c.Addr)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			failures++
			if c.Backoff.MaxAttempts > 0 && failures >= c.Backoff.MaxAttempts {
				return fmt.Errorf("dial %s: %d attempts: %w", c.Addr, failures, err)
			}
			delay := NextBackoffDelay(c.Backoff, failures, rng)
			log.Warn().Err(err).Int("attempt", failures).Dur("retry_in", delay).Msg("dial failed")
			if sleep(ctx, delay) != nil {
				return nil
			}
			continue
		}

		stats, err := serveConn(ctx, conn, c.Sink, c.BufferSize, log)
		if ctx.Err() != nil {
			return nil
		}
		if stats.Strings+stats.Descriptors+stats.Entries > 0 {
			failures = 0
		}
		failures++
		delay := NextBackoffDelay(c.Backoff, failures, rng)
		if !errors.Is(err, types.ErrTransportClosed) {
			log.Warn().Int("attempt", failures).Dur("retry_in", delay).Msg("reconnecting after session failure")
		}
		if sleep(ctx, delay) != nil {
			return nil
		}
	}
}
