// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ExitError asks main to exit with Code without printing anything more.
// Commands return it after writing their own output, for outcomes such
// as a refused registration where a non-zero status is the answer
// rather than a failure.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code.
func (e *ExitError) ExitCode() int {
	return e.Code
}

// Silent reports that the command has already written its outcome.
func (e *ExitError) Silent() bool {
	return true
}
