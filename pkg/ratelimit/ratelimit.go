// Package ratelimit limits how often a key (usually a client IP) may act.
package ratelimit

import "context"

// Limiter reports whether one more event for key is allowed right now.
// An error means the decision could not be made.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
