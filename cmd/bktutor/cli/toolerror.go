// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bktutor/bktutor/session"
	"github.com/bktutor/bktutor/tutorapi"
)

// ErrorCategory classifies command failures so scripts can decide what
// to do (retry, fix input, log in) without parsing message text. The
// category also selects the process exit code.
type ErrorCategory string

const (
	// CategoryValidation: bad arguments or flags.
	CategoryValidation ErrorCategory = "validation"

	// CategoryNotFound: the course does not exist.
	CategoryNotFound ErrorCategory = "not_found"

	// CategoryForbidden: not logged in, or the role may not do this.
	CategoryForbidden ErrorCategory = "forbidden"

	// CategoryConflict: the server refused the change (schedule
	// conflict, course full, duplicate code).
	CategoryConflict ErrorCategory = "conflict"

	// CategoryTransient: the server could not be reached or failed
	// with 5xx. Retrying may help.
	CategoryTransient ErrorCategory = "transient"

	// CategoryInternal: anything else.
	CategoryInternal ErrorCategory = "internal"
)

// ToolError is a categorized command error.
type ToolError struct {
	Category ErrorCategory
	Err      error

	// Hint is an optional next step appended to the message.
	Hint string
}

func (e *ToolError) Error() string {
	if e.Hint == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + "\n\n" + e.Hint
}

func (e *ToolError) Unwrap() error { return e.Err }

// WithHint sets Hint and returns the receiver.
func (e *ToolError) WithHint(hint string) *ToolError {
	e.Hint = hint
	return e
}

// ExitCode maps the category to a process exit status.
func (e *ToolError) ExitCode() int {
	switch e.Category {
	case CategoryValidation:
		return 2
	case CategoryNotFound:
		return 3
	case CategoryForbidden:
		return 4
	case CategoryConflict:
		return 5
	case CategoryTransient:
		return 6
	default:
		return 1
	}
}

func Validation(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryValidation, Err: fmt.Errorf(format, args...)}
}

func NotFound(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryNotFound, Err: fmt.Errorf(format, args...)}
}

func Forbidden(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryForbidden, Err: fmt.Errorf(format, args...)}
}

func Conflict(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryConflict, Err: fmt.Errorf(format, args...)}
}

func Transient(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryTransient, Err: fmt.Errorf(format, args...)}
}

func Internal(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryInternal, Err: fmt.Errorf(format, args...)}
}

// Classify wraps err in a ToolError whose category follows from the
// errors in its chain. An err that already carries a ToolError is
// returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return err
	}

	var apiErr *tutorapi.APIError
	switch {
	case errors.Is(err, session.ErrInvalidCredentials):
		return &ToolError{Category: CategoryForbidden, Err: err}
	case errors.Is(err, session.ErrNotAuthenticated), tutorapi.IsUnauthorized(err):
		return (&ToolError{Category: CategoryForbidden, Err: err}).
			WithHint("Run 'bktutor login <username>' to start a session.")
	case tutorapi.IsTransport(err), errors.Is(err, context.DeadlineExceeded):
		return &ToolError{Category: CategoryTransient, Err: err}
	case errors.As(err, &apiErr):
		switch {
		case apiErr.StatusCode == http.StatusNotFound:
			return &ToolError{Category: CategoryNotFound, Err: err}
		case apiErr.StatusCode == http.StatusForbidden:
			return &ToolError{Category: CategoryForbidden, Err: err}
		case apiErr.StatusCode >= 500:
			return &ToolError{Category: CategoryTransient, Err: err}
		case apiErr.StatusCode >= 400:
			return &ToolError{Category: CategoryConflict, Err: err}
		}
	}
	return &ToolError{Category: CategoryInternal, Err: err}
}
