// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive], [RequireNoReceive], and [RequireClosed] wrap the
// select-with-timeout pattern so individual tests do not carry direct
// time.After calls. They are the only place in the test suite where
// real wall-clock timeouts are used.
//
// [StatePath] gives session store tests a fresh location under
// t.TempDir. [UniqueCode] produces non-colliding course codes.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
