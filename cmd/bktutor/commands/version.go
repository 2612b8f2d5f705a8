// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"

	"github.com/bktutor/bktutor/cmd/bktutor/cli"
	"github.com/bktutor/bktutor/lib/version"
)

func versionCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:    "version",
		Summary: "Print build version information",
		Usage:   "bktutor version",
		Run: func(_ context.Context, args []string) error {
			if err := noArgs(args); err != nil {
				return err
			}
			version.Print(e.stdout, "bktutor")
			return nil
		},
	}
}
