// Package infra provides shared infrastructure components used across
// the application: logging, caching, rate limiting, retry policy and HTTP
// utilities.
package infra

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// --- Rate limiter ---

// RateLimiter spaces out calls to an upstream API by a fixed courtesy delay.
// A nil *RateLimiter or a zero delay never blocks.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter allowing one call per interval.
func NewRateLimiter(interval time.Duration) *RateLimiter {
	if interval <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the next call is allowed or ctx is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl == nil || rl.limiter == nil {
		return ctx.Err()
	}
	return rl.limiter.Wait(ctx)
}
