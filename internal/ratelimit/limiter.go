// Package ratelimit implements a fixed-window request limiter keyed by
// client identifier.
//
// Simple in-memory implementation, not shared between instances or
// distributed. Check-and-increment is atomic per identifier within a window,
// and the result carries everything a caller needs to build rate-limit
// response headers: remaining quota, window reset time, and a retry-after
// duration when denied.
package ratelimit

import (
	"sync"
	"time"
)

// window tracks one identifier's counter within the current fixed window.
type window struct {
	count    int
	resetAt  time.Time
	lastSeen time.Time
}

// Result is the outcome of one Check call.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
	// RetryAfter is how long the caller should wait before retrying. Zero
	// when the request was allowed.
	RetryAfter time.Duration
}

// Limiter grants up to Max requests per identifier per fixed window.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*window

	max    int
	period time.Duration

	// now is injectable for tests.
	now func() time.Time
}

// NewLimiter builds a limiter allowing max requests per period per
// identifier.
func NewLimiter(max int, period time.Duration) *Limiter {
	l := &Limiter{
		entries: make(map[string]*window),
		max:     max,
		period:  period,
		now:     time.Now,
	}
	go l.evictLoop()
	return l
}

// Check atomically counts one request attempt for id against the current
// window and reports whether it is allowed.
func (l *Limiter) Check(id string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.entries[id]
	if !ok || !now.Before(w.resetAt) {
		// New identifier, or the previous window has elapsed.
		w = &window{resetAt: now.Add(l.period)}
		l.entries[id] = w
	}
	w.lastSeen = now

	if w.count >= l.max {
		return Result{
			Allowed:    false,
			Remaining:  0,
			ResetAt:    w.resetAt,
			RetryAfter: w.resetAt.Sub(now),
		}
	}
	w.count++
	return Result{
		Allowed:   true,
		Remaining: l.max - w.count,
		ResetAt:   w.resetAt,
	}
}

// evictLoop drops identifiers that have been idle for several windows, so
// the map does not grow without bound.
func (l *Limiter) evictLoop() {
	ticker := time.NewTicker(l.period)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := l.now().Add(-3 * l.period)
		l.mu.Lock()
		for id, w := range l.entries {
			if w.lastSeen.Before(cutoff) {
				delete(l.entries, id)
			}
		}
		l.mu.Unlock()
	}
}
