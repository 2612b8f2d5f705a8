// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

// Package catalogui is the interactive terminal browser for the course
// catalog, built on bubbletea.
//
// The browser renders a [Catalog] (normally *catalog.Store) through its
// window: the list shows the filtered courses up to the window limit,
// "m" reveals the next increment, and moving the cursor to the end of
// the list acts as a scroll sentinel that reveals more on its own
// unless a fetch is in flight. Typing in the search box re-filters on
// every keystroke, ignoring case and diacritics.
//
// When an [Enrollment] is supplied, rows carry a ✓ for registered
// courses and an ellipsis while a request for the course is running;
// "r" registers and "u" unregisters after a y/n confirmation. Server
// refusals appear verbatim on the status line.
package catalogui
