// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

// Package tutorapi is the HTTP gateway to the tutoring course server.
//
// [Client] is unauthenticated: it holds the base URL, the HTTP transport,
// and the list of unauthorized-event hooks. It performs the credential
// exchange ([Client.Login]) and token verification ([Client.CurrentUser])
// that happen before a session exists.
//
// [Session] wraps a Client with a [TokenSource] and issues the authorized
// catalog and enrollment calls. The token is read from the source when
// each request starts, so one Session follows logins and logouts without
// being rebuilt.
//
// Every request carries an X-Request-ID. Failures come in two shapes:
// [*APIError] when the server answered with a non-2xx status, and
// [*TransportError] when no answer was obtained. A 401 on a request that
// carried a bearer token additionally publishes an [UnauthorizedEvent] to
// the hooks registered with [Client.OnUnauthorized]. The gateway does not
// act on the event itself; session invalidation belongs to the subscriber.
//
// Course codes are path-escaped when building URLs.
package tutorapi
