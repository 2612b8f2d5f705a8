// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

// DefaultPageIncrement is how many courses each window step reveals.
const DefaultPageIncrement = 6

// Window is a growing visible slice over an already-fetched list. It
// never causes a fetch. The zero value is not usable; call NewWindow.
//
// Window is not safe for concurrent use; Store guards its own.
type Window struct {
	increment int
	limit     int
}

// NewWindow returns a window showing increment items. A non-positive
// increment uses DefaultPageIncrement.
func NewWindow(increment int) Window {
	if increment <= 0 {
		increment = DefaultPageIncrement
	}
	return Window{increment: increment, limit: increment}
}

// Limit returns the current visible count before capping.
func (w *Window) Limit() int { return w.limit }

// Increment returns the step size.
func (w *Window) Increment() int { return w.increment }

// Visible returns how many of total items are shown.
func (w *Window) Visible(total int) int {
	return min(w.limit, total)
}

// LoadMore grows the window by one increment, capped at total. It
// reports whether anything new became visible.
func (w *Window) LoadMore(total int) bool {
	if w.limit >= total {
		return false
	}
	w.limit = min(w.limit+w.increment, total)
	return true
}

// SentinelVisible is LoadMore triggered by the end-of-list marker
// scrolling into view. It does nothing while a fetch is in flight.
func (w *Window) SentinelVisible(total int, fetching bool) bool {
	if fetching {
		return false
	}
	return w.LoadMore(total)
}

// Reset shrinks the window back to one increment.
func (w *Window) Reset() {
	w.limit = w.increment
}
