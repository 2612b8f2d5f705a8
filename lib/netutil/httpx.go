// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides bounded HTTP body I/O for the course server
// client and its test server.
//
// Every JSON body read goes through a size limit so that a misbehaving
// peer cannot make the client (or the fake server) allocate without
// bound. Catalog responses are the largest documents in the protocol and
// stay well below MaxResponseSize.
package netutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// MaxResponseSize bounds JSON response body reads: 8 MB.
const MaxResponseSize int64 = 8 << 20

// MaxRequestSize bounds JSON request body reads on the server side: 1 MB.
const MaxRequestSize int64 = 1 << 20

// ErrBodyTooLarge is returned by DecodeRequest when the body exceeds
// MaxRequestSize.
var ErrBodyTooLarge = errors.New("netutil: body exceeds size limit")

// ReadResponse reads a JSON API response body up to MaxResponseSize bytes.
// Use instead of io.ReadAll when reading HTTP response bodies.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// DecodeRequest reads a JSON request body (up to MaxRequestSize bytes)
// and decodes it into v. Unlike ReadResponse, an oversized body is an
// error rather than a silent truncation.
func DecodeRequest(body io.Reader, v any) error {
	data, err := io.ReadAll(io.LimitReader(body, MaxRequestSize+1))
	if err != nil {
		return fmt.Errorf("reading request body: %w", err)
	}
	if int64(len(data)) > MaxRequestSize {
		return ErrBodyTooLarge
	}
	return json.Unmarshal(data, v)
}
