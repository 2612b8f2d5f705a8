// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"io"
	"runtime"
)

// These variables are set via -ldflags at build time.
var (
	// GitCommit is the short git SHA of the build.
	GitCommit = "unknown"
	// GitDirty indicates whether there were uncommitted changes.
	GitDirty = "false"
	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"
	// Version is the semantic version, set by hand for releases.
	Version = "0.1.0-dev"
)

// Info returns "VERSION (COMMIT[-dirty], BUILDTIME)".
func Info() string {
	dirty := ""
	if GitDirty == "true" {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", Version, GitCommit, dirty, BuildTime)
}

// UserAgent is the User-Agent header value for requests made by the
// named binary, e.g. "bktutor/0.1.0-dev (linux/amd64)".
func UserAgent(binary string) string {
	return fmt.Sprintf("%s/%s (%s/%s)", binary, Version, runtime.GOOS, runtime.GOARCH)
}

// Print writes the --version output for binary to w.
func Print(w io.Writer, binary string) {
	fmt.Fprintf(w, "%s %s\n  Go: %s\n  Platform: %s/%s\n",
		binary, Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
