// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

// Package fakeserver is an in-memory course server implementing the
// HTTP contract the client speaks: login, identity, catalog, course
// detail and statistics, enrollment, and course creation.
//
// Passwords are stored as bcrypt hashes and access tokens are HS256
// JWTs carrying exp and a token ID. [Server.RevokeTokens] kills a
// user's live tokens so tests can drive the expired-session path. The
// server refuses registrations the way the real one does: already
// registered, course full, and same-slot schedule conflicts come back
// as success false with a message.
//
// Tests mount a Server on httptest.NewServer; cmd/bktutor-mock serves
// it on a real port seeded with [Server.Seed].
package fakeserver
