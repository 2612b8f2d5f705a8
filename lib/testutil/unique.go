// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"sync/atomic"
)

var uniqueCounter atomic.Uint64

// UniqueCode returns a course-code-shaped string "PREFIXNNNN" that no
// other call in this process returns. Tests that create courses on a
// shared fake server use it to avoid colliding codes.
//
//	code := testutil.UniqueCode("TT") // "TT0001", "TT0002", ...
func UniqueCode(prefix string) string {
	return fmt.Sprintf("%s%04d", prefix, uniqueCounter.Add(1))
}
