// Package session implements server-side cookie sessions. Clients hold only
// an opaque UUID; the associated state lives in a Store (Redis when
// available, in-process otherwise). The manager enforces the idle timeout,
// refreshes activity on every passing check and regenerates identifiers on
// login so a pre-login session id can never become an authenticated one.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// State is the per-session payload kept in the store. JSON tags are used by
// the Redis backend which persists sessions as JSON blobs.
type State struct {
	UserID       uint64    `json:"user_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	LoggedIn     bool      `json:"logged_in"`
	LastActivity time.Time `json:"last_activity"`
}

// Identity is the resolved authenticated user threaded through request
// handling once a session check passes. It is passed by value; handlers
// never reach back into ambient session state.
type Identity struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Store abstracts session state persistence so tests can inject an
// in-memory fake. A missing id is reported via the found flag, not an error.
type Store interface {
	Get(ctx context.Context, id string) (State, bool, error)
	Put(ctx context.Context, id string, s State) error
	Delete(ctx context.Context, id string) error
}

// ErrUnauthenticated is returned by Check when no valid logged-in session
// exists for the presented identifier.
var ErrUnauthenticated = errors.New("not authenticated")

// ErrExpired is returned by Check when the session exceeded the idle
// timeout. The session is destroyed as a side effect of the check.
var ErrExpired = errors.New("session expired")

// NewID mints an opaque session identifier.
func NewID() string { return uuid.NewString() }
