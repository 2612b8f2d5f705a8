// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

// NewCommandLogger creates the logger handed to every component. On a
// terminal it writes slog text; piped or redirected it writes JSON
// lines. level is a config log level name; unknown names mean warn.
func NewCommandLogger(w io.Writer, level string) *slog.Logger {
	options := &slog.HandlerOptions{Level: ParseLevel(level)}
	if file, ok := w.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		return slog.New(slog.NewTextHandler(w, options))
	}
	return slog.New(slog.NewJSONHandler(w, options))
}

// ParseLevel converts "debug", "info", "warn" or "error" to a level.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
