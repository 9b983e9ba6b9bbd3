// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// inspecting driver-specific errors. ErrNotOwner deliberately covers both
// "row missing" and "row owned by someone else" so handlers cannot leak
// whether a given case id exists to a non-owner.
package repository

import "errors"

// ErrNotOwner is returned when a mutation targets a case report that either
// does not exist or belongs to a different user. Handlers translate this
// into a single generic ownership failure; the two causes are intentionally
// indistinguishable from the outside.
var ErrNotOwner = errors.New("case report not found or not owned by user")

// ErrUsernameExists is returned when registration collides with an existing
// username. Handlers map this to HTTP 409 tagged on the username field.
var ErrUsernameExists = errors.New("username already exists")

// ErrEmailExists is returned when registration collides with an existing
// email address. Handlers map this to HTTP 409 tagged on the email field.
var ErrEmailExists = errors.New("email already exists")

// ErrUnknownDisease is returned when a submitted disease type does not
// resolve to a row in the disease_types reference table.
var ErrUnknownDisease = errors.New("unknown disease type")
