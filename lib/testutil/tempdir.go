// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// StatePath returns a path named name inside a fresh 0700 directory
// that is removed when the test completes. The file itself does not
// exist yet, matching the first-run state of a session store.
func StatePath(t *testing.T, name string) string {
	t.Helper()
	directory := filepath.Join(t.TempDir(), "bktutor")
	if err := os.MkdirAll(directory, 0o700); err != nil {
		t.Fatalf("creating state directory: %v", err)
	}
	return filepath.Join(directory, name)
}
