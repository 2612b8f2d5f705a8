// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package enrollment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/bktutor/bktutor/lib/clock"
	"github.com/bktutor/bktutor/tutorapi"
)

var (
	// ErrNotPermitted is returned by CreateCourse when the current
	// user's role may not create courses. No request is sent.
	ErrNotPermitted = errors.New("enrollment: role may not create courses")

	// ErrNotAuthenticated is returned by CreateCourse when there is no
	// current user.
	ErrNotAuthenticated = errors.New("enrollment: not logged in")

	// ErrEmptyCode is returned for a mutation without a course code.
	ErrEmptyCode = errors.New("enrollment: course code is required")

	// ErrClosed is returned by MyCourses after Close, and by a fetch
	// that was in flight when Close was called.
	ErrClosed = errors.New("enrollment: coordinator closed")
)

// API is the part of the course server client the Coordinator needs.
// *tutorapi.Session implements it.
type API interface {
	MyCourses(ctx context.Context) ([]tutorapi.Course, error)
	Register(ctx context.Context, code string) (*tutorapi.RegistrationResponse, error)
	Unregister(ctx context.Context, code string) (*tutorapi.RegistrationResponse, error)
	CreateCourse(ctx context.Context, draft tutorapi.CourseDraft) (*tutorapi.Course, error)
}

// Identity supplies the current user for permission checks.
// *session.Manager implements it.
type Identity interface {
	CurrentUser() (tutorapi.User, bool)
}

// Result is the outcome of a mutation that reached a decision.
type Result struct {
	// Suppressed is set when a mutation for the same course was
	// already in flight. Nothing was sent; the other fields are zero.
	Suppressed bool

	// Success is the server's verdict. When false, Message carries the
	// server's reason (schedule conflict, course full, ...) verbatim.
	Success bool
	Message string

	// Course is the created course, set by CreateCourse on success.
	Course *tutorapi.Course

	// ReconcileErr is set when the mutation succeeded but the follow-up
	// /my-courses fetch failed. The held Set is then stale until the
	// next successful MyCourses.
	ReconcileErr error
}

// Config holds the dependencies of a Coordinator.
type Config struct {
	// API issues enrollment requests. Required.
	API API
	// Identity gates CreateCourse. Required.
	Identity Identity
	// Clock stamps fetched sets. If nil, clock.Real() is used.
	Clock clock.Clock
	// Logger is used for structured logging. If nil, a no-op logger is
	// used.
	Logger *slog.Logger
}

// Coordinator serializes mutations per course and keeps the user's
// enrollment Set in step with the server. Mutations for different
// courses run in parallel; a second mutation for a course that is
// already in flight is suppressed without a request.
//
// All methods are safe for concurrent use.
type Coordinator struct {
	api      API
	identity Identity
	clock    clock.Clock
	logger   *slog.Logger
	locks    LockSet

	lifetime context.Context
	shutdown context.CancelFunc

	mu  sync.Mutex
	set Set
	// started counts MyCourses calls; applied is the highest call
	// number whose response has been installed.
	started uint64
	applied uint64
}

// NewCoordinator creates a Coordinator with an empty Set.
func NewCoordinator(config Config) (*Coordinator, error) {
	if config.API == nil {
		return nil, fmt.Errorf("enrollment: API is required")
	}
	if config.Identity == nil {
		return nil, fmt.Errorf("enrollment: Identity is required")
	}
	lifetime, cancel := context.WithCancel(context.Background())
	coordinator := &Coordinator{
		api:      config.API,
		identity: config.Identity,
		clock:    config.Clock,
		logger:   config.Logger,
		lifetime: lifetime,
		shutdown: cancel,
	}
	if coordinator.clock == nil {
		coordinator.clock = clock.Real()
	}
	if coordinator.logger == nil {
		coordinator.logger = slog.New(slog.DiscardHandler)
	}
	return coordinator, nil
}

// Close cancels every request in flight. Later calls fail with
// ErrClosed or a context error.
func (c *Coordinator) Close() {
	c.shutdown()
}

// MyCourses fetches the authoritative enrollment set and installs it,
// unless a MyCourses call started later has already installed its own.
// It returns the Set held after the call.
func (c *Coordinator) MyCourses(ctx context.Context) (Set, error) {
	if c.lifetime.Err() != nil {
		return Set{}, ErrClosed
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.lifetime, cancel)
	defer stop()

	c.mu.Lock()
	c.started++
	call := c.started
	c.mu.Unlock()

	courses, err := c.api.MyCourses(ctx)
	if c.lifetime.Err() != nil {
		return Set{}, ErrClosed
	}
	if err != nil {
		return Set{}, fmt.Errorf("enrollment: fetching my courses: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if call > c.applied {
		c.applied = call
		c.set = NewSet(courses, c.clock.Now())
		c.logger.Debug("enrollment set replaced", "courses", c.set.Len())
	} else {
		c.logger.Debug("discarding stale enrollment response", "call", call, "applied", c.applied)
	}
	return c.set, nil
}

// Register asks the server to register the user for code, then
// refetches the enrollment set. A refusal is a Result with Success
// false; transport failures, 401, and 5xx responses are errors.
func (c *Coordinator) Register(ctx context.Context, code string) (Result, error) {
	return c.mutate(ctx, "register", code, func(ctx context.Context) (Result, error) {
		response, err := c.api.Register(ctx, code)
		if err != nil {
			return Result{}, err
		}
		return Result{Success: response.Success, Message: response.Message}, nil
	})
}

// Unregister asks the server to drop the user from code, then refetches
// the enrollment set. Same contract as Register; asking the user to
// confirm is the caller's job.
func (c *Coordinator) Unregister(ctx context.Context, code string) (Result, error) {
	return c.mutate(ctx, "unregister", code, func(ctx context.Context) (Result, error) {
		response, err := c.api.Unregister(ctx, code)
		if err != nil {
			return Result{}, err
		}
		return Result{Success: response.Success, Message: response.Message}, nil
	})
}

// CreateCourse creates a course. Only users whose role can create
// courses get as far as a request; everyone else gets ErrNotPermitted.
// The lock is keyed on draft.Code.
func (c *Coordinator) CreateCourse(ctx context.Context, draft tutorapi.CourseDraft) (Result, error) {
	user, ok := c.identity.CurrentUser()
	if !ok {
		return Result{}, ErrNotAuthenticated
	}
	if !user.Role.CanCreateCourse() {
		return Result{}, fmt.Errorf("%w (role %s)", ErrNotPermitted, user.Role)
	}
	return c.mutate(ctx, "create", draft.Code, func(ctx context.Context) (Result, error) {
		course, err := c.api.CreateCourse(ctx, draft)
		if err != nil {
			return Result{}, err
		}
		return Result{Success: true, Course: course}, nil
	})
}

// mutate runs call under the lock for code and reconciles on success.
func (c *Coordinator) mutate(ctx context.Context, action, code string, call func(context.Context) (Result, error)) (Result, error) {
	if code == "" {
		return Result{}, ErrEmptyCode
	}
	release, ok := c.locks.TryAcquire(code)
	if !ok {
		c.logger.Debug("suppressing duplicate mutation", "action", action, "course_code", code)
		return Result{Suppressed: true}, nil
	}
	defer release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.lifetime, cancel)
	defer stop()

	result, err := call(ctx)
	if err != nil {
		if message, refused := refusal(err); refused {
			c.logger.Info("server refused mutation",
				"action", action,
				"course_code", code,
				"message", message,
			)
			return Result{Success: false, Message: message}, nil
		}
		return Result{}, fmt.Errorf("enrollment: %s %s: %w", action, code, err)
	}
	if !result.Success {
		c.logger.Info("server refused mutation",
			"action", action,
			"course_code", code,
			"message", result.Message,
		)
		return result, nil
	}

	c.logger.Info("mutation accepted", "action", action, "course_code", code)
	if _, err := c.MyCourses(ctx); err != nil {
		c.logger.Warn("reconciliation after mutation failed",
			"action", action,
			"course_code", code,
			"error", err,
		)
		result.ReconcileErr = err
	}
	return result, nil
}

// refusal reports whether err is a server decision against the request
// (any 4xx other than 401) and returns the server's message.
func refusal(err error) (string, bool) {
	var apiErr *tutorapi.APIError
	if !errors.As(err, &apiErr) {
		return "", false
	}
	if apiErr.StatusCode < 400 || apiErr.StatusCode >= 500 || apiErr.StatusCode == http.StatusUnauthorized {
		return "", false
	}
	message := apiErr.Message
	if message == "" {
		message = http.StatusText(apiErr.StatusCode)
	}
	return message, true
}

// Reset discards the held Set. Called when the session ends, so a later
// user never sees an earlier user's registrations. Fetches in flight
// when Reset is called are not applied.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set = Set{}
	c.applied = c.started
}

// InFlight reports whether a mutation for code is running.
func (c *Coordinator) InFlight(code string) bool {
	return c.locks.Held(code)
}

// InFlightCodes returns the codes with a mutation running.
func (c *Coordinator) InFlightCodes() []string {
	return c.locks.Keys()
}

// IsRegistered reports whether code is in the held Set. It implements
// catalog.Registry.
func (c *Coordinator) IsRegistered(code string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.set.Contains(code)
}

// Snapshot returns the held Set.
func (c *Coordinator) Snapshot() Set {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.set
}
