package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Decision is the outcome of one admission check. Count already includes the
// current request.
type Decision struct {
	Allowed    bool
	Count      int
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter admits or denies a request for a key against a fixed window. The
// window starts with the first attempt and is not extended by later attempts
// within it. Counting is best-effort under concurrency.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int) (Decision, error)
}

// InMemoryLimiter is a process-local Limiter. Used as the Redis fallback and
// as the test substitute.
type InMemoryLimiter struct {
	mu     sync.Mutex
	window time.Duration
	items  map[string]entry
}

type entry struct {
	count   int
	resetAt time.Time
}

// NewInMemory creates an in-memory fixed-window limiter
func NewInMemory(window time.Duration) *InMemoryLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &InMemoryLimiter{
		window: window,
		items:  make(map[string]entry),
	}
}

// Allow counts one attempt for key and reports whether it is admitted
func (l *InMemoryLimiter) Allow(_ context.Context, key string, limit int) (Decision, error) {
	if limit <= 0 {
		limit = 1
	}
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.cleanup(now)

	curr, ok := l.items[key]
	if !ok || now.After(curr.resetAt) {
		curr = entry{resetAt: now.Add(l.window)}
	}
	curr.count++
	l.items[key] = curr

	return decision(curr.count, limit, curr.resetAt.Sub(now)), nil
}

func (l *InMemoryLimiter) cleanup(now time.Time) {
	for k, v := range l.items {
		if now.After(v.resetAt) {
			delete(l.items, k)
		}
	}
}

func decision(count, limit int, retryAfter time.Duration) Decision {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	if retryAfter < 0 {
		retryAfter = 0
	}
	return Decision{
		Allowed:    count <= limit,
		Count:      count,
		Limit:      limit,
		Remaining:  remaining,
		RetryAfter: retryAfter,
	}
}
