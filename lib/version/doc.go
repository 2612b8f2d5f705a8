// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for the bktutor
// binaries.
//
// Four package-level variables are injected at build time via
// -ldflags -X:
//
//	go build -ldflags "-X github.com/bktutor/bktutor/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// They default to "unknown" / "0.1.0-dev" in development builds and
// test runs. [Info] and [Print] format them for --version output, and
// [UserAgent] labels outgoing course server requests.
package version
