package session

import (
	"context"
	"time"
)

// Manager drives the session lifecycle on top of a Store. It owns the idle
// timeout policy; stores only persist.
type Manager struct {
	store       Store
	idleTimeout time.Duration
	now         func() time.Time
}

// NewManager builds a Manager. The clock defaults to time.Now and can be
// overridden with SetClock in tests.
func NewManager(store Store, idleTimeout time.Duration) *Manager {
	return &Manager{store: store, idleTimeout: idleTimeout, now: time.Now}
}

// SetClock replaces the manager's time source.
func (m *Manager) SetClock(now func() time.Time) { m.now = now }

// Issue creates a fresh logged-in session for the given identity and
// returns its new identifier. Any previous identifier is destroyed first:
// regeneration on login prevents session fixation.
func (m *Manager) Issue(ctx context.Context, oldID string, ident Identity) (string, error) {
	if oldID != "" {
		if err := m.store.Delete(ctx, oldID); err != nil {
			return "", err
		}
	}
	id := NewID()
	err := m.store.Put(ctx, id, State{
		UserID:       ident.ID,
		Username:     ident.Username,
		Email:        ident.Email,
		LoggedIn:     true,
		LastActivity: m.now(),
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Check validates the session behind id. Missing or not-logged-in sessions
// yield ErrUnauthenticated. Sessions idle longer than the timeout are
// destroyed and yield ErrExpired. A passing check refreshes last activity,
// so the timeout slides with use.
func (m *Manager) Check(ctx context.Context, id string) (Identity, error) {
	var ident Identity
	if id == "" {
		return ident, ErrUnauthenticated
	}
	s, ok, err := m.store.Get(ctx, id)
	if err != nil {
		return ident, err
	}
	if !ok || !s.LoggedIn {
		return ident, ErrUnauthenticated
	}
	if m.now().Sub(s.LastActivity) > m.idleTimeout {
		if err := m.store.Delete(ctx, id); err != nil {
			return ident, err
		}
		return ident, ErrExpired
	}
	s.LastActivity = m.now()
	if err := m.store.Put(ctx, id, s); err != nil {
		return ident, err
	}
	return Identity{ID: s.UserID, Username: s.Username, Email: s.Email}, nil
}

// Destroy removes the session behind id. Destroying an unknown or already
// destroyed session is not an error, which keeps logout idempotent.
func (m *Manager) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return m.store.Delete(ctx, id)
}
