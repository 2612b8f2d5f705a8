// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bktutor/bktutor/catalog"
	"github.com/bktutor/bktutor/cmd/bktutor/cli"
	"github.com/bktutor/bktutor/lib/catalogui"
	"github.com/bktutor/bktutor/session"
)

func browseCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:    "browse",
		Summary: "Browse and register interactively",
		Description: `Open the interactive catalog browser.

Type / to search, m to load more, r to register for the selected
course and u to drop it. Registration keys need a session; without one
the browser is read-only.`,
		Run: func(ctx context.Context, args []string) error {
			if err := noArgs(args); err != nil {
				return err
			}
			app, _, err := e.open("browse")
			if err != nil {
				return err
			}
			defer app.Close()

			// A failed catalog fetch is shown inside the browser, where
			// it can be retried.
			if _, err := app.Start(ctx, cli.Load{Catalog: true, Enrollment: true}); err != nil &&
				app.Catalog.Status() != catalog.Failed {
				return cli.Classify(err)
			}

			browse := e.options.Browse
			if browse == nil {
				browse = runBrowser
			}
			return browse(ctx, app)
		},
	}
}

func runBrowser(ctx context.Context, app *cli.App) error {
	config := catalogui.Config{Context: ctx, Catalog: app.Catalog}
	if app.Session.State() == session.Authenticated {
		config.Enrollment = app.Enrollment
	}
	program := tea.NewProgram(catalogui.NewModel(config), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return cli.Internal("browser: %v", err)
	}
	return nil
}
