// Package ratelimit implements the login attempt limiter. The window is
// fixed-origin, anchored at the first attempt for a key: at most MaxAttempts
// attempts count inside Window, denials do not increment the counter, and
// the counter resets only when the window elapses naturally. This is not a
// decaying sliding window; switching to one would change the observable
// lockout duration.
package ratelimit

import (
	"context"
	"time"
)

// Limiter gates login attempts per identifier. The identifier is a
// username+client-address composite built by the caller.
type Limiter interface {
	// Check records an attempt for key and reports whether it is allowed.
	// Allowed attempts increment the window counter; denied attempts do not.
	Check(ctx context.Context, key string) (bool, error)
	// Remaining reports how long until the key's window expires, or zero
	// when no window exists.
	Remaining(ctx context.Context, key string) (time.Duration, error)
}

// Disabled is the Limiter used when rate limiting is switched off. Every
// attempt is allowed.
type Disabled struct{}

func (Disabled) Check(context.Context, string) (bool, error) { return true, nil }

func (Disabled) Remaining(context.Context, string) (time.Duration, error) { return 0, nil }
