// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source for testability.
//
// Components that stamp or compare times take a Clock field instead of
// calling time.Now directly:
//
//	manager := session.NewManager(session.Config{Clock: clock.Real(), ...})
//
// In tests:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	manager := session.NewManager(session.Config{Clock: c, ...})
//	c.Advance(2 * time.Hour) // token is now past its exp claim
package clock
