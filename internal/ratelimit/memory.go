package ratelimit

import (
	"context"
	"sync"
	"time"
)

// window tracks attempts for one key inside a fixed window.
type window struct {
	attempts int
	start    time.Time
}

// MemoryLimiter is a process-local Limiter backed by a mutex-guarded map.
// It serves as the fallback when Redis is unavailable and as the injectable
// fake in tests. State is lost on restart, which only shortens lockouts.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]window

	maxAttempts int
	windowLen   time.Duration
	now         func() time.Time
}

// NewMemoryLimiter builds a MemoryLimiter with the given limits. The clock
// defaults to time.Now and can be overridden with SetClock in tests.
func NewMemoryLimiter(maxAttempts int, windowLen time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		windows:     make(map[string]window),
		maxAttempts: maxAttempts,
		windowLen:   windowLen,
		now:         time.Now,
	}
}

// SetClock replaces the limiter's time source.
func (l *MemoryLimiter) SetClock(now func() time.Time) { l.now = now }

// Check implements Limiter.
func (l *MemoryLimiter) Check(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) > l.windowLen {
		// First attempt for this key, or the previous window elapsed.
		l.windows[key] = window{attempts: 1, start: now}
		return true, nil
	}
	if w.attempts >= l.maxAttempts {
		return false, nil
	}
	w.attempts++
	l.windows[key] = w
	return true, nil
}

// Remaining implements Limiter.
func (l *MemoryLimiter) Remaining(_ context.Context, key string) (time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok {
		return 0, nil
	}
	rem := l.windowLen - l.now().Sub(w.start)
	if rem < 0 {
		rem = 0
	}
	return rem, nil
}
