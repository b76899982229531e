package session

import (
	"math"
	"math/rand/v2"
	"time"
)

// NextBackoffDelay returns the delay before reconnect attempt N. Attempt 0 is
// the retry after a session that had reached Connected and uses the initial
// delay; failed attempts count from 1 and grow by Multiplier up to MaxDelay.
// Jitter scales the delay into [0.5, 1.5) using rng, or by 1.0 when rng is nil.
func NextBackoffDelay(cfg BackoffConfig, attempt int, rng *rand.Rand) time.Duration {
	if cfg.InitialDelay <= 0 {
		return 0
	}
	if cfg.Multiplier < 1.0 {
		cfg.Multiplier = 1.0
	}
	growth := max(attempt-1, 0)
	delay := float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(growth))
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	if cfg.Jitter {
		f := 1.0
		if rng != nil {
			f = 0.5 + rng.Float64()
		}
		delay = delay * f
	}
	return time.Duration(delay)
}
