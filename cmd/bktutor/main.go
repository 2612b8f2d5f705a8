// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

// bktutor is the command-line client for the tutoring course server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/bktutor/bktutor/cmd/bktutor/commands"
	"github.com/bktutor/bktutor/lib/process"
)

func main() {
	process.Exit(run())
}

func run() error {
	// A .env in the working directory may set BKTUTOR_CONFIG or
	// BKTUTOR_SERVER for this checkout. Variables already set win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return commands.Execute(ctx, os.Args[1:], commands.Options{})
}
