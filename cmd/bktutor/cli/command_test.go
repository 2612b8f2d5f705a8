// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestCommand_DispatchesNestedSubcommand(t *testing.T) {
	var called string
	var received []string

	root := &Command{
		Name: "bktutor",
		Subcommands: []*Command{
			{Name: "courses", Run: func(context.Context, []string) error { called = "courses"; return nil }},
			{
				Name: "course",
				Subcommands: []*Command{
					{
						Name: "show",
						Run: func(_ context.Context, args []string) error {
							called = "course show"
							received = args
							return nil
						},
					},
				},
			},
		},
	}

	if err := root.Execute(context.Background(), []string{"course", "show", "CO3001"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if called != "course show" {
		t.Errorf("dispatched to %q", called)
	}
	if len(received) != 1 || received[0] != "CO3001" {
		t.Errorf("args = %v", received)
	}
}

func TestCommand_ParsesFlags(t *testing.T) {
	var search string
	var positional []string
	command := &Command{
		Name: "courses",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("courses", pflag.ContinueOnError)
			flagSet.StringVarP(&search, "search", "s", "", "filter")
			return flagSet
		},
		Run: func(_ context.Context, args []string) error {
			positional = args
			return nil
		},
	}

	if err := command.Execute(context.Background(), []string{"-s", "nhật", "extra"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if search != "nhật" {
		t.Errorf("search = %q", search)
	}
	if len(positional) != 1 || positional[0] != "extra" {
		t.Errorf("args = %v", positional)
	}
}

func TestCommand_UnknownNamesSuggest(t *testing.T) {
	root := &Command{
		Name: "bktutor",
		Subcommands: []*Command{
			{Name: "register", Run: func(context.Context, []string) error { return nil }},
			{
				Name: "courses",
				Flags: func() *pflag.FlagSet {
					flagSet := pflag.NewFlagSet("courses", pflag.ContinueOnError)
					flagSet.Int("limit", 0, "")
					return flagSet
				},
				Run: func(context.Context, []string) error { return nil },
			},
		},
	}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"command", []string{"regster"}, `did you mean "register"`},
		{"flag", []string{"courses", "--limt", "3"}, "did you mean --limit"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := root.Execute(context.Background(), test.args)
			if err == nil || !strings.Contains(err.Error(), test.want) {
				t.Fatalf("error = %v, want it to contain %q", err, test.want)
			}
			var toolErr *ToolError
			if !errors.As(err, &toolErr) || toolErr.Category != CategoryValidation {
				t.Errorf("expected a validation ToolError, got %#v", err)
			}
		})
	}
}

func TestCommand_HelpAndMissingSubcommand(t *testing.T) {
	var help bytes.Buffer
	root := &Command{
		Name: "bktutor",
		Help: &help,
		Subcommands: []*Command{
			{Name: "login", Summary: "Log in to the course server"},
		},
	}

	if err := root.Execute(context.Background(), []string{"--help"}); err != nil {
		t.Fatalf("--help: %v", err)
	}
	if !strings.Contains(help.String(), "Log in to the course server") {
		t.Errorf("help does not list subcommands:\n%s", help.String())
	}

	if err := root.Execute(context.Background(), nil); err == nil {
		t.Error("expected error when no subcommand is given")
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "abc", 3},
		{"courses", "courses", 0},
		{"course", "courses", 1},
		{"logni", "login", 2},
		{"tiếng", "tieng", 1},
	}
	for _, test := range tests {
		if got := levenshtein(test.a, test.b); got != test.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
		}
	}
}
