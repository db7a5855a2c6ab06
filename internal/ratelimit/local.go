package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type localEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Local keeps one token bucket per key in process memory. A key may spend
// limit attempts at once and regains them evenly over window.
type Local struct {
	mu        sync.Mutex
	entries   map[string]*localEntry
	limit     int
	window    time.Duration
	lastSweep time.Time
	now       func() time.Time
}

var _ Limiter = (*Local)(nil)

// NewLocal creates an in-process limiter
func NewLocal(limit int, window time.Duration) *Local {
	return &Local{
		entries: make(map[string]*localEntry),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// Allow consumes one attempt for key
func (l *Local) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	e, ok := l.entries[key]
	if !ok {
		every := rate.Every(l.window / time.Duration(l.limit))
		e = &localEntry{limiter: rate.NewLimiter(every, l.limit)}
		l.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1), nil
}

// sweep drops buckets idle for longer than a window; they are full again anyway.
func (l *Local) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	l.lastSweep = now
	for key, e := range l.entries {
		if now.Sub(e.lastSeen) > l.window {
			delete(l.entries, key)
		}
	}
}
