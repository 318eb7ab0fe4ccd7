// Package ratelimit implements per-client sliding-window rate limiting for
// the promo form. The window is recomputed on every check relative to "now";
// there is no token replenishment and no fixed reset boundary.
package ratelimit

import (
	"context"
	"time"
)

// Decision reports the outcome of one rate-limit check.
type Decision struct {
	Allowed      bool
	RequestCount int64
	Limit        int64
	WindowStart  time.Time
	RetryAfter   time.Duration // zero when allowed
}

// Store decides whether a request from the given client may proceed.
// Implementations must make the per-key read-modify-write atomic; requests
// for the same client can race under real parallelism.
type Store interface {
	Allow(ctx context.Context, clientID string) (*Decision, error)
}
