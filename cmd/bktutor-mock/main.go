// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

// bktutor-mock serves the course server HTTP contract from memory so
// the bktutor client can be run and demonstrated without the real
// backend. It is the same server the client's tests run against.
//
// On start it installs the sample catalog and accounts (see
// fakeserver.SampleUsers); every sample account shares the password
// printed in the startup log. State is lost on exit.
//
// Flags:
//
//	--listen      address to serve on (default ":8000")
//	--token-ttl   lifetime of issued access tokens (default 1h)
//	--empty       start with no courses or accounts
//	--log-level   debug, info, warn or error (default info)
//
// BKTUTOR_MOCK_SIGNING_KEY, read from the environment or a .env file,
// replaces the built-in token signing key.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/bktutor/bktutor/cmd/bktutor/cli"
	"github.com/bktutor/bktutor/internal/fakeserver"
	"github.com/bktutor/bktutor/lib/process"
	"github.com/bktutor/bktutor/lib/version"
)

func main() {
	process.Exit(run())
}

func run() error {
	var (
		listen      string
		tokenTTL    time.Duration
		empty       bool
		logLevel    string
		showVersion bool
	)
	flags := pflag.NewFlagSet("bktutor-mock", pflag.ContinueOnError)
	flags.StringVar(&listen, "listen", ":8000", "address to serve on")
	flags.DurationVar(&tokenTTL, "token-ttl", time.Hour, "lifetime of issued access tokens")
	flags.BoolVar(&empty, "empty", false, "start with no courses or accounts")
	flags.StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	flags.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if showVersion {
		version.Print(os.Stdout, "bktutor-mock")
		return nil
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	logger := cli.NewCommandLogger(os.Stderr, logLevel)

	server := fakeserver.New(fakeserver.Config{
		SigningKey: []byte(os.Getenv("BKTUTOR_MOCK_SIGNING_KEY")),
		TokenTTL:   tokenTTL,
		Logger:     logger,
	})
	if !empty {
		if err := server.Seed(); err != nil {
			return fmt.Errorf("seeding sample data: %w", err)
		}
		for _, user := range fakeserver.SampleUsers() {
			logger.Info("sample account",
				"username", user.Username,
				"role", user.Role,
				"active", user.IsActive,
			)
		}
		logger.Info("sample accounts share one password", "password", fakeserver.SamplePassword)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listener, err := net.Listen("tcp", listen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", listen, err)
	}

	httpServer := &http.Server{
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.Serve(listener)
	}()

	logger.Info("mock course server listening", "address", listener.Addr().String())

	select {
	case err := <-serveErr:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
