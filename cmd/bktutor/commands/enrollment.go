// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/bktutor/bktutor/cmd/bktutor/cli"
	"github.com/bktutor/bktutor/enrollment"
	"github.com/bktutor/bktutor/session"
)

type myCoursesParams struct {
	cli.JSONOutput
}

func myCoursesCommand(e *env) *cli.Command {
	var params myCoursesParams
	return &cli.Command{
		Name:    "my-courses",
		Summary: "List the courses you are registered for",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("my-courses", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			if err := noArgs(args); err != nil {
				return err
			}
			app, err := e.start(ctx, "my-courses", cli.Load{Enrollment: true})
			if err != nil {
				return err
			}
			defer app.Close()
			if app.Session.State() != session.Authenticated {
				return cli.Classify(session.ErrNotAuthenticated)
			}

			set := app.Enrollment.Snapshot()
			entries := make([]courseEntry, 0, set.Len())
			for _, course := range set.Courses() {
				entries = append(entries, courseEntry{Course: course, Registered: true})
			}
			if done, err := params.EmitJSON(e.stdout, entries); done {
				return err
			}
			if len(entries) == 0 {
				e.printf("You are not registered for any course.\n")
				return nil
			}
			writeCourseTable(e.stdout, entries)
			return nil
		},
	}
}

// mutationOutcome is one line of register/unregister output.
type mutationOutcome struct {
	Code    string `json:"code"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	// Stale is set when the change went through but the enrollment set
	// could not be refreshed afterwards.
	Stale bool `json:"stale,omitempty"`
	// Error is set when the request itself failed (network, 5xx). The
	// server never gave a verdict for this course.
	Error string `json:"error,omitempty"`
}

type registerParams struct {
	cli.JSONOutput
}

type unregisterParams struct {
	cli.JSONOutput
	Yes bool `flag:"yes,y" desc:"do not ask for confirmation"`
}

func registerCommand(e *env) *cli.Command {
	var params registerParams
	return &cli.Command{
		Name:    "register",
		Summary: "Register for one or more courses",
		Description: `Register for the given courses. Requests for different courses run
in parallel and do not affect each other. The server may refuse a
registration (schedule conflict, course full); refusals are reported
per course and make the command exit with status 5. A course whose
request failed outright is reported as failed, and the exit status
follows the first such failure in argument order.`,
		Usage: "bktutor register <code>... [flags]",
		Examples: []cli.Example{
			{Command: "bktutor register CO3001 LA3025"},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("register", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			return e.mutate(ctx, "register", args, &params.JSONOutput, (*enrollment.Coordinator).Register)
		},
	}
}

func unregisterCommand(e *env) *cli.Command {
	var params unregisterParams
	return &cli.Command{
		Name:    "unregister",
		Summary: "Drop one or more courses",
		Description: `Drop the given courses. Asks for confirmation unless --yes is given
or --json is set.`,
		Usage: "bktutor unregister <code>... [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("unregister", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 && !params.Yes && !params.OutputJSON {
				confirmed, err := e.options.Prompter.Confirm("Unregister from " + joinCodes(args) + "?")
				if err != nil {
					return cli.Internal("%v", err)
				}
				if !confirmed {
					e.printf("Nothing changed.\n")
					return nil
				}
			}
			return e.mutate(ctx, "unregister", args, &params.JSONOutput, (*enrollment.Coordinator).Unregister)
		},
	}
}

type mutation func(*enrollment.Coordinator, context.Context, string) (enrollment.Result, error)

// mutate runs one mutation per distinct code concurrently and reports
// each outcome in argument order.
func (e *env) mutate(ctx context.Context, action string, codes []string, output *cli.JSONOutput, call mutation) error {
	if len(codes) == 0 {
		return cli.Validation("%s needs at least one course code", action)
	}
	codes = distinct(codes)

	app, err := e.start(ctx, action, cli.Load{Enrollment: true})
	if err != nil {
		return err
	}
	defer app.Close()
	if app.Session.State() != session.Authenticated {
		return cli.Classify(session.ErrNotAuthenticated)
	}

	outcomes := make([]mutationOutcome, len(codes))
	failures := make([]error, len(codes))
	var group errgroup.Group
	for i, code := range codes {
		group.Go(func() error {
			outcomes[i].Code = code
			result, err := call(app.Enrollment, ctx, code)
			if err != nil {
				failures[i] = err
				outcomes[i].Error = err.Error()
				return nil
			}
			outcomes[i].Success = result.Success
			outcomes[i].Message = result.Message
			outcomes[i].Stale = result.ReconcileErr != nil
			if result.Suppressed {
				outcomes[i].Message = "another request for this course is running"
			}
			return nil
		})
	}
	group.Wait()

	refused := 0
	for i, outcome := range outcomes {
		if failures[i] == nil && !outcome.Success {
			refused++
		}
	}

	if done, err := output.EmitJSON(e.stdout, outcomes); done {
		if err != nil {
			return err
		}
	} else {
		for _, outcome := range outcomes {
			switch {
			case outcome.Error != "":
				e.printf("%s: failed: %s\n", outcome.Code, outcome.Error)
			case outcome.Success && outcome.Stale:
				e.printf("%s: ok (course list could not be refreshed)\n", outcome.Code)
			case outcome.Success:
				e.printf("%s: ok\n", outcome.Code)
			default:
				e.printf("%s: refused: %s\n", outcome.Code, outcome.Message)
			}
		}
	}

	for _, failure := range failures {
		if failure == nil {
			continue
		}
		var toolErr *cli.ToolError
		if errors.As(cli.Classify(failure), &toolErr) {
			if toolErr.Hint != "" {
				fmt.Fprintln(e.stderr, toolErr.Hint)
			}
			return &cli.ExitError{Code: toolErr.ExitCode()}
		}
	}
	if refused > 0 {
		return &cli.ExitError{Code: cli.Conflict("refused").ExitCode()}
	}
	return nil
}

// distinct returns codes without repeats, keeping first occurrences.
func distinct(codes []string) []string {
	var unique []string
	for _, code := range codes {
		if !slices.Contains(unique, code) {
			unique = append(unique, code)
		}
	}
	return unique
}

func joinCodes(codes []string) string {
	switch len(codes) {
	case 1:
		return codes[0]
	case 2:
		return codes[0] + " and " + codes[1]
	default:
		return codes[0] + ", " + joinCodes(codes[1:])
	}
}
