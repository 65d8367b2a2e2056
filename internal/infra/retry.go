package infra

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"time"
)

// RetryPolicy bounds how often and how slowly a call is retried.
type RetryPolicy struct {
	MaxRetries int           // retries after the first attempt
	BaseDelay  time.Duration // delay before the first retry
	MaxDelay   time.Duration // cap on any single delay
}

// DefaultRetryPolicy waits roughly 1s then 2s, plus jitter.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries: 2,
	BaseDelay:  time.Second,
	MaxDelay:   8 * time.Second,
}

// Backoff returns the delay before retry number attempt (0-based):
// base * 2^attempt plus jitter * base, capped at max.
// jitter is expected in [0, 1). The result depends only on its arguments.
func Backoff(attempt int, base, max time.Duration, jitter float64) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if jitter < 0 {
		jitter = 0
	}
	if jitter >= 1 {
		jitter = 0.999
	}
	d := base
	for i := 0; i < attempt; i++ {
		if max > 0 && d >= max {
			break
		}
		d *= 2
	}
	d += time.Duration(jitter * float64(base))
	if max > 0 && d > max {
		d = max
	}
	return d
}

// Delay returns the policy's delay for a given attempt and jitter.
func (p RetryPolicy) Delay(attempt int, jitter float64) time.Duration {
	return Backoff(attempt, p.BaseDelay, p.MaxDelay, jitter)
}

// Do calls fn until it succeeds, returns a non-retryable error, or the
// retry budget is spent. The last error is returned.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt >= p.MaxRetries || !Retryable(err) || ctx.Err() != nil {
			return err
		}
		timer := time.NewTimer(p.Delay(attempt, rand.Float64()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
}

// Retryable reports whether err is worth retrying: transport failures,
// timeouts, 429 and 5xx responses.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode == http.StatusTooManyRequests || he.StatusCode >= 500
	}
	var pe *PermanentError
	return !errors.As(err, &pe)
}

// PermanentError marks an error that must not be retried, such as a
// malformed response body.
type PermanentError struct{ Err error }

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so Retryable reports false.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}
