// Package ratelimit bounds how many quote submissions a single client address
// may make inside a trailing window.
package ratelimit

import (
	"context"
	"time"

	"quote-api/internal/common/logger"
)

// Limiter implements a sliding-window log over a Store. The read-then-write
// is not atomic: concurrent bursts from one client can slightly exceed the
// quota, which is an accepted approximation for a contact form.
type Limiter struct {
	store  Store
	window time.Duration
	limit  int
	logger logger.Logger

	// now is swappable for tests.
	now func() time.Time
}

func NewLimiter(store Store, window time.Duration, limit int, log logger.Logger) *Limiter {
	return &Limiter{
		store:  store,
		window: window,
		limit:  limit,
		logger: log,
		now:    time.Now,
	}
}

// Window returns the configured window duration.
func (l *Limiter) Window() time.Duration {
	return l.window
}

// Allow reports whether a request from key may proceed. A denied attempt is
// not recorded. Store errors are absorbed by the fallback composition, so the
// caller has a single boolean branch.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	nowMs := l.now().UnixMilli()
	cutoff := nowMs - l.window.Milliseconds()

	timestamps, err := l.store.Get(ctx, key)
	if err != nil {
		// Only reachable when a bare store is injected without fallback.
		// Fail open: a lost rate check must not take the form down.
		l.logger.Error("rate limit store unavailable, allowing request", map[string]interface{}{
			"error": err.Error(),
		})
		return true
	}

	// Fresh slice: the store may hand out a list other goroutines also hold.
	recent := make([]int64, 0, len(timestamps)+1)
	for _, ts := range timestamps {
		if ts > cutoff {
			recent = append(recent, ts)
		}
	}

	if len(recent) >= l.limit {
		return false
	}

	recent = append(recent, nowMs)
	if err := l.store.Set(ctx, key, recent, l.window); err != nil {
		l.logger.Error("rate limit store write failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return true
}
