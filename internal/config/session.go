package config

import "time"

// SessionConfig controls server-side session state.  Sessions are opaque
// identifiers carried in an HTTP-only cookie; the state itself lives in the
// session store.  IdleTimeout is the maximum allowed gap between
// authenticated requests before a session is considered expired.
type SessionConfig struct {
	CookieName  string
	IdleTimeout time.Duration
	Prefix      string
}

func LoadSessionConfig() SessionConfig {
	return SessionConfig{
		CookieName:  envStr("SESSION_COOKIE_NAME", "dct_session"),
		IdleTimeout: envDur("SESSION_IDLE_TIMEOUT", 30*time.Minute),
		Prefix:      envStr("SESSION_PREFIX", "sess"),
	}
}
