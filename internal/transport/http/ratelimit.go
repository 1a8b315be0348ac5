package http

import (
	"golang.org/x/time/rate"

	"github.com/vovakirdan/nachochat/internal/config"
)

// rateLimiter throttles inbound frames on a single connection.
// A nil limiter allows everything.
type rateLimiter struct {
	limiter *rate.Limiter
}

func newRateLimiter(cfg config.RateLimitConfig) *rateLimiter {
	if cfg.PerSecond <= 0 {
		return nil
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &rateLimiter{limiter: rate.NewLimiter(rate.Limit(cfg.PerSecond), burst)}
}

func (r *rateLimiter) allow() bool {
	if r == nil {
		return true
	}
	return r.limiter.Allow()
}
