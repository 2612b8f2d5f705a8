// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds the exit path shared by the bktutor binaries.
//
// Both main functions reduce to "run, then [Exit] with whatever run
// returned". Exit is the one place that turns an error into a process
// status: errors carrying an ExitCode method choose their own status,
// and errors marked Silent have already reported themselves to the
// user, so only the status is set.
package process
