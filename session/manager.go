// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bktutor/bktutor/lib/clock"
	"github.com/bktutor/bktutor/tutorapi"
)

var (
	// ErrInvalidCredentials is returned by Login when the server
	// rejects the username/password pair. The server's *tutorapi.APIError
	// is also in the chain.
	ErrInvalidCredentials = errors.New("session: invalid username or password")

	// ErrLoginInProgress is returned by Login while another login or a
	// stored-session verification is running.
	ErrLoginInProgress = errors.New("session: login already in progress")

	// ErrLoginAborted is returned by Login when Logout was called while
	// the login was in flight. The login's result has been discarded.
	ErrLoginAborted = errors.New("session: login aborted by logout")

	// ErrAlreadyAuthenticated is returned by Login when a session is
	// already established. Log out first.
	ErrAlreadyAuthenticated = errors.New("session: already logged in")

	// ErrNotAuthenticated is returned by operations that need a session.
	ErrNotAuthenticated = errors.New("session: not logged in")
)

// Gateway is the part of the course server client the Manager needs.
// *tutorapi.Client implements it.
type Gateway interface {
	Login(ctx context.Context, username, password string) (*tutorapi.TokenResponse, error)
	CurrentUser(ctx context.Context, accessToken string) (*tutorapi.User, error)
	OnUnauthorized(hook func(tutorapi.UnauthorizedEvent)) (remove func())
}

// Config holds the dependencies of a Manager.
type Config struct {
	// Gateway performs login and identity fetches and publishes
	// unauthorized events. Required.
	Gateway Gateway
	// Store persists the session. If nil, a MemoryStore is used.
	Store Store
	// Clock stamps verification times and checks token expiry. If nil,
	// clock.Real() is used.
	Clock clock.Clock
	// Logger is used for structured logging. If nil, a no-op logger is
	// used.
	Logger *slog.Logger
}

// Manager owns the authentication session. It is the single writer of
// the persisted token/user pair and the TokenSource for authorized
// requests.
//
// All methods are safe for concurrent use. The internal lock is held
// across in-memory transitions and local store writes, never across a
// network call.
type Manager struct {
	gateway Gateway
	store   Store
	clock   clock.Clock
	logger  *slog.Logger

	unsubscribe func()

	mu         sync.Mutex
	state      State
	token      string
	user       tutorapi.User
	verifiedAt time.Time
	expiresAt  time.Time
	// generation increments whenever a session ends or an attempt to
	// start one begins. A network result is applied only if the
	// generation it was started under is still current.
	generation uint64
	// settled is closed when the state leaves Authenticating. Nil
	// outside an attempt.
	settled chan struct{}

	subscribers    map[uint64]func(Change)
	nextSubscriber uint64
	pending        []Change
	delivering     bool
}

// NewManager creates a Manager in the Anonymous state and subscribes it
// to the gateway's unauthorized events. Call Init to restore a stored
// session and Close to unsubscribe.
func NewManager(config Config) (*Manager, error) {
	if config.Gateway == nil {
		return nil, fmt.Errorf("session: Gateway is required")
	}
	manager := &Manager{
		gateway:     config.Gateway,
		store:       config.Store,
		clock:       config.Clock,
		logger:      config.Logger,
		state:       Anonymous,
		subscribers: make(map[uint64]func(Change)),
	}
	if manager.store == nil {
		manager.store = NewMemoryStore()
	}
	if manager.clock == nil {
		manager.clock = clock.Real()
	}
	if manager.logger == nil {
		manager.logger = slog.New(slog.DiscardHandler)
	}
	manager.unsubscribe = config.Gateway.OnUnauthorized(manager.handleUnauthorized)
	return manager, nil
}

// Close detaches the Manager from the gateway. The session itself and
// the store are left as they are.
func (m *Manager) Close() {
	m.unsubscribe()
}

// Init restores a stored session. A stored token is verified with the
// server before it is exposed; on success the freshly returned user
// replaces the stored one. Any failure (missing, corrupt, expired, or
// rejected session, or an unreachable server) clears the store and
// settles in Anonymous. Init always returns the settled state: when a
// Login or another Init is already running, Init waits for it and then
// proceeds from its outcome. Only a cancelled ctx cuts the wait short,
// in which case the current state is returned as is.
func (m *Manager) Init(ctx context.Context) State {
	m.mu.Lock()
	for m.state == Authenticating {
		settled := m.settled
		m.mu.Unlock()
		select {
		case <-settled:
		case <-ctx.Done():
			return m.State()
		}
		m.mu.Lock()
	}
	if m.state != Anonymous {
		state := m.state
		m.mu.Unlock()
		return state
	}

	stored, ok, err := m.store.Load()
	if err != nil {
		m.logger.Warn("discarding unreadable stored session", "error", err)
		m.clearStoreLocked()
		m.mu.Unlock()
		return Anonymous
	}
	if !ok {
		m.mu.Unlock()
		return Anonymous
	}

	if expiresAt := tokenExpiry(stored.AccessToken); !expiresAt.IsZero() && !m.clock.Now().Before(expiresAt) {
		m.logger.Info("stored session token has expired",
			"username", stored.User.Username,
			"expired_at", expiresAt,
		)
		m.clearStoreLocked()
		m.mu.Unlock()
		return Anonymous
	}

	generation := m.beginAttemptLocked(ReasonRestore)
	m.mu.Unlock()
	m.flush()

	user, err := m.gateway.CurrentUser(ctx, stored.AccessToken)

	m.mu.Lock()
	defer m.flush()
	defer m.mu.Unlock()

	if generation != m.generation {
		return m.state
	}
	if err != nil {
		m.logger.Info("stored session rejected",
			"username", stored.User.Username,
			"error", err,
		)
		m.clearStoreLocked()
		m.transitionLocked(Anonymous, ReasonRestore)
		return Anonymous
	}
	if err := m.establishLocked(stored.AccessToken, *user, ReasonRestore); err != nil {
		m.logger.Warn("could not persist restored session", "error", err)
		return Anonymous
	}
	return Authenticated
}

// Login exchanges credentials for a token, fetches the identity behind
// it, and only then persists both and enters Authenticated. If either
// step fails the token is discarded and the Manager returns to
// Anonymous.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	m.mu.Lock()
	switch m.state {
	case Authenticating:
		m.mu.Unlock()
		return ErrLoginInProgress
	case Authenticated:
		m.mu.Unlock()
		return ErrAlreadyAuthenticated
	}
	generation := m.beginAttemptLocked(ReasonLogin)
	m.mu.Unlock()
	m.flush()

	m.logger.Info("logging in", "username", username)

	token, err := m.gateway.Login(ctx, username, password)
	if err != nil {
		if tutorapi.IsStatus(err, http.StatusBadRequest) ||
			tutorapi.IsStatus(err, http.StatusUnauthorized) ||
			tutorapi.IsStatus(err, http.StatusForbidden) {
			err = fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
		}
		return m.failAttempt(generation, err)
	}

	user, err := m.gateway.CurrentUser(ctx, token.AccessToken)
	if err != nil {
		return m.failAttempt(generation, fmt.Errorf("session: verifying new token: %w", err))
	}

	m.mu.Lock()
	defer m.flush()
	defer m.mu.Unlock()

	if generation != m.generation {
		return ErrLoginAborted
	}
	if err := m.establishLocked(token.AccessToken, *user, ReasonLogin); err != nil {
		return err
	}
	m.logger.Info("logged in",
		"username", user.Username,
		"role", user.Role.String(),
	)
	return nil
}

// Logout ends the session immediately without contacting the server:
// the store is cleared and the Manager enters Anonymous. A login in
// flight is abandoned. Logging out while Anonymous only clears the
// store.
func (m *Manager) Logout() {
	m.mu.Lock()
	defer m.flush()
	defer m.mu.Unlock()
	m.endSessionLocked(ReasonLogout)
}

// RefreshUser re-fetches the current user from the server and replaces
// the held record. Any failure ends the session and is returned.
func (m *Manager) RefreshUser(ctx context.Context) error {
	m.mu.Lock()
	if m.state != Authenticated {
		m.mu.Unlock()
		return ErrNotAuthenticated
	}
	token := m.token
	generation := m.generation
	m.mu.Unlock()

	user, err := m.gateway.CurrentUser(ctx, token)

	m.mu.Lock()
	defer m.flush()
	defer m.mu.Unlock()

	if generation != m.generation {
		if err != nil {
			return fmt.Errorf("session: refreshing user: %w", err)
		}
		return ErrNotAuthenticated
	}
	if err != nil {
		m.logger.Info("user refresh failed; ending session", "error", err)
		m.endSessionLocked(ReasonLogout)
		return fmt.Errorf("session: refreshing user: %w", err)
	}

	m.user = *user
	m.verifiedAt = m.clock.Now()
	if err := m.store.Save(Stored{AccessToken: token, User: *user}); err != nil {
		m.logger.Warn("could not persist refreshed user", "error", err)
	}
	m.pending = append(m.pending, Change{
		Previous: Authenticated,
		State:    Authenticated,
		Reason:   ReasonRefresh,
		User:     *user,
	})
	return nil
}

// State returns the current state. Expired is never returned; it is
// only observed through Subscribe.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// CurrentUser returns the verified user. ok is false unless the
// Manager is Authenticated.
func (m *Manager) CurrentUser() (user tutorapi.User, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Authenticated {
		return tutorapi.User{}, false
	}
	return m.user, true
}

// AccessToken returns the token to attach to authorized requests, or
// "" when the Manager is not Authenticated. It implements
// tutorapi.TokenSource.
func (m *Manager) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// Snapshot returns the whole session as one consistent read.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := Snapshot{State: m.state}
	if m.state == Authenticated {
		snapshot.User = m.user
		snapshot.VerifiedAt = m.verifiedAt
		snapshot.ExpiresAt = m.expiresAt
	}
	return snapshot
}

// Subscribe registers fn to receive every Change in order. Changes are
// delivered on the goroutine that caused them, after the Manager lock
// is released, so fn may call back into the Manager. The returned
// function removes the subscription.
func (m *Manager) Subscribe(fn func(Change)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextSubscriber
	m.nextSubscriber++
	m.subscribers[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subscribers, id)
		m.mu.Unlock()
	}
}

// handleUnauthorized ends the session when the server rejects the
// token it currently holds. Events carrying any other token (from a
// session that has already ended, or from a verification that never
// became a session) are ignored, so a burst of failures produces one
// transition.
func (m *Manager) handleUnauthorized(event tutorapi.UnauthorizedEvent) {
	m.mu.Lock()
	defer m.flush()
	defer m.mu.Unlock()

	if m.state != Authenticated || event.Token != m.token {
		m.logger.Debug("ignoring unauthorized event for inactive token",
			"request_id", event.RequestID,
			"path", event.Path,
		)
		return
	}
	m.logger.Warn("session expired",
		"username", m.user.Username,
		"request_id", event.RequestID,
		"path", event.Path,
	)
	m.endSessionLocked(ReasonExpired)
}

// beginAttemptLocked moves Anonymous to Authenticating and returns the
// new generation.
func (m *Manager) beginAttemptLocked(reason Reason) uint64 {
	m.generation++
	m.settled = make(chan struct{})
	m.transitionLocked(Authenticating, reason)
	return m.generation
}

// failAttempt returns to Anonymous after a failed login step, unless
// the attempt has already been superseded.
func (m *Manager) failAttempt(generation uint64, err error) error {
	m.mu.Lock()
	defer m.flush()
	defer m.mu.Unlock()
	if generation == m.generation {
		m.transitionLocked(Anonymous, ReasonLoginFailed)
	}
	return err
}

// establishLocked persists the pair and enters Authenticated. If the
// store refuses the write the Manager returns to Anonymous instead, so
// memory and disk never disagree about whether a session exists.
func (m *Manager) establishLocked(token string, user tutorapi.User, reason Reason) error {
	if err := m.store.Save(Stored{AccessToken: token, User: user}); err != nil {
		m.clearStoreLocked()
		m.transitionLocked(Anonymous, ReasonLoginFailed)
		return err
	}
	m.token = token
	m.user = user
	m.verifiedAt = m.clock.Now()
	m.expiresAt = tokenExpiry(token)
	m.transitionLocked(Authenticated, reason)
	return nil
}

// endSessionLocked clears everything and enters Anonymous. For
// ReasonExpired the transient Expired state is published first; both
// transitions happen under one hold of the lock, so State never
// reports Expired.
func (m *Manager) endSessionLocked(reason Reason) {
	m.generation++
	m.clearStoreLocked()
	m.token = ""
	m.user = tutorapi.User{}
	m.verifiedAt = time.Time{}
	m.expiresAt = time.Time{}

	if m.state == Anonymous {
		return
	}
	if reason == ReasonExpired {
		m.transitionLocked(Expired, reason)
	}
	m.transitionLocked(Anonymous, reason)
}

func (m *Manager) clearStoreLocked() {
	if err := m.store.Clear(); err != nil {
		m.logger.Error("clearing stored session failed", "error", err)
	}
}

// transitionLocked records a state change for delivery.
func (m *Manager) transitionLocked(next State, reason Reason) {
	if m.state == Authenticating && next != Authenticating && m.settled != nil {
		close(m.settled)
		m.settled = nil
	}
	change := Change{Previous: m.state, State: next, Reason: reason}
	if next == Authenticated {
		change.User = m.user
	}
	m.state = next
	m.pending = append(m.pending, change)
}

// flush delivers pending changes in order. Only one goroutine delivers
// at a time; a flush that finds delivery already running leaves its
// changes to that goroutine.
func (m *Manager) flush() {
	m.mu.Lock()
	if m.delivering {
		m.mu.Unlock()
		return
	}
	m.delivering = true
	for len(m.pending) > 0 {
		batch := m.pending
		m.pending = nil
		subscribers := make([]func(Change), 0, len(m.subscribers))
		for _, fn := range m.subscribers {
			subscribers = append(subscribers, fn)
		}
		m.mu.Unlock()

		for _, change := range batch {
			for _, fn := range subscribers {
				fn(change)
			}
		}

		m.mu.Lock()
	}
	m.delivering = false
	m.mu.Unlock()
}

// tokenExpiry reads the exp claim of a JWT without verifying its
// signature; the server remains the authority on validity. Opaque
// tokens yield the zero time.
func tokenExpiry(token string) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
