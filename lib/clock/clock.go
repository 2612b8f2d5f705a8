// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock reads the current time. Session verification stamps, catalog
// fetch stamps and token expiry checks all go through one, so expiry
// can be tested without sleeping.
type Clock interface {
	Now() time.Time
}

// Real returns the wall clock.
func Real() Clock { return wallClock{} }

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// Since returns how long ago t was according to c.
func Since(c Clock, t time.Time) time.Duration {
	return c.Now().Sub(t)
}
