// Package logging configures the application logger and provides audit
// helpers for authentication and case-report events. Audit entries carry a
// stable event field so the log pipeline can filter them without parsing
// message text.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the root logger. Development mode gets a human-readable console
// writer; anything else emits JSON lines suitable for shipping.
func New(env string) zerolog.Logger {
	if env == "dev" {
		out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		return zerolog.New(out).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// Auth records an authentication event (register, login, logout) and its
// outcome. Failed logins are logged without distinguishing cause so the log
// itself does not leak which factor failed.
func Auth(log zerolog.Logger, action, username string, success bool) {
	log.Info().
		Str("event", "auth").
		Str("action", action).
		Str("username", username).
		Bool("success", success).
		Send()
}

// Case records a case-report mutation and its outcome. The address is
// deliberately not logged.
func Case(log zerolog.Logger, action string, caseID, userID uint64, success bool) {
	log.Info().
		Str("event", "case").
		Str("action", action).
		Uint64("case_id", caseID).
		Uint64("user_id", userID).
		Bool("success", success).
		Send()
}
