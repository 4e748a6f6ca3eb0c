package daemon

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/mesh-intelligence/daqd/pkg/types"
)

// NextBackoffDelay returns the retry delay for attempt N (1-based).
// A non-nil rng applies jitter in [0.5, 1.5).
func NextBackoffDelay(cfg types.BackoffConfig, attempt int, rng *rand.Rand) time.Duration {
	if attempt <= 1 || cfg.InitialDelay <= 0 {
		return jitter(cfg.InitialDelay, rng)
	}
	if cfg.Multiplier < 1.0 {
		cfg.Multiplier = 1.0
	}
	delay := float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt-1))
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	return jitter(time.Duration(delay), rng)
}

func jitter(d time.Duration, rng *rand.Rand) time.Duration {
	if rng == nil || d <= 0 {
		return d
	}
	return time.Duration(float64(d) * (0.5 + rng.Float64()))
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
