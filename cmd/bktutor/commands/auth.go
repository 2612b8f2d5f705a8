// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/pflag"

	"github.com/bktutor/bktutor/cmd/bktutor/cli"
	"github.com/bktutor/bktutor/lib/clock"
	"github.com/bktutor/bktutor/session"
	"github.com/bktutor/bktutor/tutorapi"
)

func loginCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:    "login",
		Summary: "Log in to the course server",
		Description: `Log in with a username and password.

The password is read from the terminal without echo, or as one line
from stdin when stdin is not a terminal. The access token and the
verified user are stored together; an existing session is ended first.`,
		Usage: "bktutor login <username>",
		Examples: []cli.Example{
			{Description: "Log in as a student", Command: "bktutor login sv.an"},
			{Description: "Log in from a script", Command: "echo \"$PASSWORD\" | bktutor login sv.an"},
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return cli.Validation("login takes exactly one username")
			}
			username := args[0]

			app, logger, err := e.open("login")
			if err != nil {
				return err
			}
			defer app.Close()

			// A stored session is replaced, not reused: the user asked
			// to log in, possibly as someone else.
			app.Session.Logout()

			password, err := e.options.Prompter.Password("Password for " + username + ": ")
			if err != nil {
				return cli.Internal("%v", err)
			}

			if err := app.Session.Login(ctx, username, password); err != nil {
				logger.Info("login failed", "username", username, "error", err)
				if errors.Is(err, session.ErrInvalidCredentials) {
					return cli.Forbidden("login failed: %v", serverMessage(err))
				}
				return cli.Classify(err)
			}

			user, _ := app.Session.CurrentUser()
			e.printf("Logged in as %s (%s, %s)\n", user.DisplayName(), user.Username, user.Role)
			return nil
		},
	}
}

func logoutCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:    "logout",
		Summary: "End the session and forget the stored token",
		Description: `End the session. The stored token and user are deleted locally;
the server is not contacted.`,
		Run: func(_ context.Context, args []string) error {
			if err := noArgs(args); err != nil {
				return err
			}
			app, _, err := e.open("logout")
			if err != nil {
				return err
			}
			defer app.Close()

			app.Session.Logout()
			e.printf("Logged out\n")
			return nil
		},
	}
}

type whoamiParams struct {
	cli.JSONOutput
	Refresh bool `flag:"refresh" desc:"re-fetch the user record from the server"`
}

type whoamiOutput struct {
	Username   string    `json:"username"`
	FullName   string    `json:"full_name,omitempty"`
	Email      string    `json:"email,omitempty"`
	Role       string    `json:"role"`
	Server     string    `json:"server"`
	VerifiedAt time.Time `json:"verified_at"`
	ExpiresAt  time.Time `json:"expires_at,omitzero"`
}

func whoamiCommand(e *env) *cli.Command {
	var params whoamiParams
	return &cli.Command{
		Name:    "whoami",
		Summary: "Show the logged-in user",
		Description: `Show the logged-in user. The stored token is always verified with
the server first; --refresh fetches the user record a second time,
which picks up role changes made since.`,
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("whoami", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			if err := noArgs(args); err != nil {
				return err
			}
			app, err := e.start(ctx, "whoami", cli.Load{})
			if err != nil {
				return err
			}
			defer app.Close()

			if app.Session.State() != session.Authenticated {
				return cli.Classify(session.ErrNotAuthenticated)
			}
			if params.Refresh {
				if err := app.Session.RefreshUser(ctx); err != nil {
					return cli.Classify(err)
				}
			}

			snapshot := app.Session.Snapshot()
			output := whoamiOutput{
				Username:   snapshot.User.Username,
				FullName:   snapshot.User.FullName,
				Email:      snapshot.User.Email,
				Role:       snapshot.User.Role.String(),
				Server:     app.Client.BaseURL(),
				VerifiedAt: snapshot.VerifiedAt,
				ExpiresAt:  snapshot.ExpiresAt,
			}
			if done, err := params.EmitJSON(e.stdout, output); done {
				return err
			}

			e.printf("%s (%s)\n", snapshot.User.DisplayName(), snapshot.User.Username)
			e.printf("  role:     %s\n", output.Role)
			if output.Email != "" {
				e.printf("  email:    %s\n", output.Email)
			}
			e.printf("  server:   %s\n", output.Server)
			e.printf("  verified: %s ago\n", clock.Since(app.Clock, output.VerifiedAt).Round(time.Second))
			if !output.ExpiresAt.IsZero() {
				e.printf("  expires:  %s\n", output.ExpiresAt.Local().Format(time.DateTime))
			}
			return nil
		},
	}
}

// serverMessage returns the server's own wording from an APIError in
// err's chain, falling back to err itself.
func serverMessage(err error) string {
	var apiErr *tutorapi.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
