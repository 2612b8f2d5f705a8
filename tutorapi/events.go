// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package tutorapi

// UnauthorizedEvent describes one response that rejected a bearer token
// with 401. Exactly one event is published per such response.
type UnauthorizedEvent struct {
	Method    string
	Path      string
	RequestID string

	// Token is the bearer token the failing request carried. Subscribers
	// compare it with their current token to discard events from
	// requests issued under an earlier session.
	Token string
}

// OnUnauthorized registers hook to be called for every UnauthorizedEvent.
// Hooks run synchronously on the goroutine that issued the failing
// request, after the response is fully read, with no client lock held.
// The returned function removes the hook.
func (c *Client) OnUnauthorized(hook func(UnauthorizedEvent)) (remove func()) {
	c.hooksMu.Lock()
	id := c.nextHook
	c.nextHook++
	c.hooks[id] = hook
	c.hooksMu.Unlock()

	return func() {
		c.hooksMu.Lock()
		delete(c.hooks, id)
		c.hooksMu.Unlock()
	}
}

func (c *Client) publishUnauthorized(event UnauthorizedEvent) {
	c.hooksMu.Lock()
	hooks := make([]func(UnauthorizedEvent), 0, len(c.hooks))
	for _, hook := range c.hooks {
		hooks = append(hooks, hook)
	}
	c.hooksMu.Unlock()

	c.logger.Info("course server rejected session token",
		"method", event.Method,
		"path", event.Path,
		"request_id", event.RequestID,
		"subscribers", len(hooks),
	)

	for _, hook := range hooks {
		hook(event)
	}
}
