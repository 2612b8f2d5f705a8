// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"fmt"
	"time"

	"github.com/bktutor/bktutor/tutorapi"
)

// State is the authentication state of a Manager.
type State int

const (
	// Anonymous holds no token and no user.
	Anonymous State = iota
	// Authenticating is a login or stored-session verification in
	// flight. No token is exposed to requests yet.
	Authenticating
	// Authenticated holds a token and the user it was verified against.
	Authenticated
	// Expired is published when the server rejects the current token.
	// It is always immediately followed by Anonymous; State never
	// reports it.
	Expired
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Expired:
		return "expired"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Reason says what caused a Change.
type Reason string

const (
	ReasonRestore     Reason = "restore"
	ReasonLogin       Reason = "login"
	ReasonLoginFailed Reason = "login_failed"
	ReasonLogout      Reason = "logout"
	ReasonExpired     Reason = "expired"
	ReasonRefresh     Reason = "refresh"
)

// Change is one state transition as delivered to subscribers. For a
// refresh, Previous and State are both Authenticated and User carries
// the replacement record.
type Change struct {
	Previous State
	State    State
	Reason   Reason
	// User is the session's user after the change; zero unless State
	// is Authenticated.
	User tutorapi.User
}

// Snapshot is a consistent read of the whole session.
type Snapshot struct {
	State State
	User  tutorapi.User
	// VerifiedAt is when the server last confirmed the user record.
	VerifiedAt time.Time
	// ExpiresAt is the token's exp claim, zero when the token is not a
	// JWT or carries no expiry.
	ExpiresAt time.Time
}
