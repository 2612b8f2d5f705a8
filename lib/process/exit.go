// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
)

type exitCoder interface {
	ExitCode() int
}

type silencer interface {
	Silent() bool
}

// Status returns the exit status for err and whether err still needs to
// be printed. A nil error is status 0.
func Status(err error) (code int, report bool) {
	if err == nil {
		return 0, false
	}
	code = 1
	var coder exitCoder
	if errors.As(err, &coder) {
		code = coder.ExitCode()
	}
	var quiet silencer
	report = !errors.As(err, &quiet) || !quiet.Silent()
	return code, report
}

// Report writes err to w as "error: ..." when Status says it should be
// printed, and returns the exit status.
func Report(w io.Writer, err error) int {
	code, report := Status(err)
	if report {
		fmt.Fprintf(w, "error: %v\n", err)
	}
	return code
}

// Exit reports err on stderr and exits. It returns normally when err is
// nil.
func Exit(err error) {
	if err == nil {
		return
	}
	os.Exit(Report(os.Stderr, err))
}
