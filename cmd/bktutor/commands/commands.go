// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the bktutor command tree on top of the cli
// framework. Every command resolves its configuration the same way
// (--config, then BKTUTOR_CONFIG, then built-in defaults), opens the
// wired [cli.App], and reports failures as categorized tool errors.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/pflag"

	"github.com/bktutor/bktutor/cmd/bktutor/cli"
	"github.com/bktutor/bktutor/lib/clock"
	"github.com/bktutor/bktutor/lib/config"
)

// Options are the process-level dependencies of the command tree.
// Zero fields fall back to the real process environment.
type Options struct {
	Stdout   io.Writer
	Stderr   io.Writer
	Prompter cli.Prompter

	// HTTPClient and Clock are handed to the App.
	HTTPClient *http.Client
	Clock      clock.Clock

	// Browse runs the interactive catalog browser. Nil uses the
	// bubbletea program; tests substitute a stub.
	Browse func(ctx context.Context, app *cli.App) error
}

// globalParams are the flags accepted before the command name.
type globalParams struct {
	Config   string `flag:"config,c" desc:"path to bktutor.yaml (default: $BKTUTOR_CONFIG, then built-in defaults)"`
	Server   string `flag:"server" desc:"course server URL (overrides config and $BKTUTOR_SERVER)"`
	LogLevel string `flag:"log-level" desc:"debug, info, warn or error (overrides config)"`
}

// env carries what every command needs: output streams, the prompter,
// and the global flags.
type env struct {
	options Options
	global  globalParams
	stdout  io.Writer
	stderr  io.Writer
}

// Execute parses the global flags in args and runs the command they
// precede.
func Execute(ctx context.Context, args []string, options Options) error {
	e := &env{options: options, stdout: options.Stdout, stderr: options.Stderr}
	if e.stdout == nil {
		e.stdout = os.Stdout
	}
	if e.stderr == nil {
		e.stderr = os.Stderr
	}
	if e.options.Prompter == nil {
		e.options.Prompter = &cli.TerminalPrompter{In: os.Stdin, Out: e.stderr}
	}

	flagSet := cli.FlagsFromParams("bktutor", &e.global)
	flagSet.SetInterspersed(false)
	flagSet.SetOutput(io.Discard)
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			root(e).PrintHelp(e.stderr)
			return nil
		}
		return cli.Validation("%v", err).WithHint("Run 'bktutor --help' for usage.")
	}
	return root(e).Execute(ctx, flagSet.Args())
}

// root builds the command tree.
func root(e *env) *cli.Command {
	return &cli.Command{
		Name: "bktutor",
		Help: e.stderr,
		Description: `bktutor: browse and register for tutoring courses.

Global flags (before the command):
  -c, --config string      path to bktutor.yaml
      --server string      course server URL
      --log-level string   debug, info, warn or error`,
		Subcommands: []*cli.Command{
			loginCommand(e),
			logoutCommand(e),
			whoamiCommand(e),
			coursesCommand(e),
			courseCommand(e),
			myCoursesCommand(e),
			registerCommand(e),
			unregisterCommand(e),
			browseCommand(e),
			versionCommand(e),
		},
	}
}

// loadConfig resolves, finalizes and validates the configuration.
func (e *env) loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case e.global.Config != "":
		cfg, err = config.LoadFile(e.global.Config)
	case os.Getenv("BKTUTOR_CONFIG") != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, cli.Validation("%v", err)
	}
	cfg.Finalize(e.global.Server)
	if e.global.LogLevel != "" {
		cfg.Log.Level = e.global.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, cli.Validation("invalid configuration: %v", err)
	}
	return cfg, nil
}

// open builds the App without touching the network.
func (e *env) open(command string) (*cli.App, *slog.Logger, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := cli.NewCommandLogger(e.stderr, cfg.Log.Level).With("command", command)
	app, err := cli.OpenApp(cli.AppOptions{
		Config:     cfg,
		HTTPClient: e.options.HTTPClient,
		Clock:      e.options.Clock,
		Logger:     logger,
	})
	if err != nil {
		return nil, nil, cli.Internal("%v", err)
	}
	return app, logger, nil
}

// start opens the App and runs its startup fetches. On error the App
// is already closed.
func (e *env) start(ctx context.Context, command string, load cli.Load) (*cli.App, error) {
	app, _, err := e.open(command)
	if err != nil {
		return nil, err
	}
	if _, err := app.Start(ctx, load); err != nil {
		app.Close()
		return nil, cli.Classify(err)
	}
	return app, nil
}

func (e *env) printf(format string, args ...any) {
	fmt.Fprintf(e.stdout, format, args...)
}

// noArgs rejects positional arguments for commands that take none.
func noArgs(args []string) error {
	if len(args) > 0 {
		return cli.Validation("unexpected argument: %s", args[0])
	}
	return nil
}
