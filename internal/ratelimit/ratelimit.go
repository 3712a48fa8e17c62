// Package ratelimit provides a token bucket limiter for outbound API
// calls. It supports both non-blocking (Allow) and blocking (Wait)
// operations.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter caps the rate of requests to a single upstream. Discogs
// allows one request per second for token-authenticated clients, so
// a burst below one is rounded up.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a limiter allowing rps requests per second with the
// given burst.
func New(rps float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Allow reports whether a request may proceed right now.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// Wait blocks until a request is allowed or the context is canceled.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
