// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

// Package enrollment coordinates course registration mutations and the
// user's enrollment set.
//
// The server is the only authority on enrollment. The [Coordinator]
// never edits its [Set] locally: after every accepted register,
// unregister, or create it refetches /my-courses and replaces the Set
// wholesale. When fetches overlap, the one started last wins.
//
// Each mutation holds a per-course lock from a [LockSet] for its whole
// duration, including the refetch. A second mutation for the same
// course while the first is running returns a suppressed [Result]
// without touching the network. Locks are released on every exit path.
//
// Server refusals (success false, or a 4xx other than 401) come back as
// a Result carrying the server's message. Transport failures, 5xx
// responses, and 401s are errors; a 401 also ends the session through
// the gateway's unauthorized event.
package enrollment
