// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

// Package catalog holds the course catalog as fetched from the server
// and presents it through a search filter and a growing window.
//
// A [Store] keeps the last successfully fetched list in server order.
// Each [Store.Fetch] replaces it wholesale; a newer fetch cancels an
// older one, and [Store.Close] makes every in-flight result inert.
//
// Search is diacritic- and case-insensitive: [Normalize] folds both the
// query and each course's name and tutor before a substring match.
//
// The [Window] starts at one increment (six by default) and grows by
// one increment on an explicit load-more or when the end-of-list
// sentinel becomes visible while no fetch is running. It is a slice
// over data already held; it never triggers a request.
package catalog
