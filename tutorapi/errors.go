// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package tutorapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// APIError is a failure reported by the server: a response arrived, but
// with a non-2xx status. Callers can use errors.As to extract it:
//
//	var apiErr *APIError
//	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict { ... }
type APIError struct {
	// StatusCode is the HTTP status code of the response.
	StatusCode int
	// Message is the human-readable reason from the response body, or
	// the raw body when it was not a recognised error document.
	Message string
	// Method and Path identify the failing request.
	Method string
	Path   string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("tutorapi: %s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("tutorapi: %s %s: %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// TransportError is a failure where no server response was obtained:
// connection refused, DNS failure, timeout, or a body that could not be
// read. It never implies anything about the session.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("tutorapi: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsStatus reports whether err carries an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == status
	}
	return false
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	return IsStatus(err, http.StatusUnauthorized)
}

// IsTransport reports whether err is a transport-level failure.
func IsTransport(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}

// errorDocument covers the error shapes the course server emits:
// {"detail": "..."} from the framework, {"message": "..."} from
// handlers, and {"error": "..."} from proxies in front of it.
type errorDocument struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

// errorMessage extracts a readable message from an error response body.
func errorMessage(body []byte) string {
	var document errorDocument
	if err := json.Unmarshal(body, &document); err != nil {
		return string(body)
	}
	if len(document.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(document.Detail, &detail); err == nil {
			return detail
		}
		// Validation failures carry a structured detail list.
		return string(document.Detail)
	}
	if document.Message != "" {
		return document.Message
	}
	if document.Error != "" {
		return document.Error
	}
	return string(body)
}
