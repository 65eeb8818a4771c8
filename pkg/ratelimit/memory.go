package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter keeps one token bucket per key in process memory. Buckets
// idle for longer than the window are dropped.
type MemoryLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	idle      time.Duration
	lastPrune time.Time
	clients   map[string]*client
	now       func() time.Time
}

// NewMemoryLimiter allows requests events per window with the given burst.
// A non-positive burst falls back to requests.
func NewMemoryLimiter(requests int, window time.Duration, burst int) *MemoryLimiter {
	if burst <= 0 {
		burst = requests
	}

	return &MemoryLimiter{
		limit:   rate.Limit(float64(requests) / window.Seconds()),
		burst:   burst,
		idle:    window,
		clients: make(map[string]*client),
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	c, ok := l.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now

	return c.limiter.AllowN(now, 1), nil
}

func (l *MemoryLimiter) prune(now time.Time) {
	if now.Sub(l.lastPrune) < l.idle {
		return
	}
	l.lastPrune = now

	for key, c := range l.clients {
		if now.Sub(c.lastSeen) >= l.idle {
			delete(l.clients, key)
		}
	}
}
