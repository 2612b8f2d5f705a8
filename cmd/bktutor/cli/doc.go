// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command framework and application wiring for the
// bktutor command.
//
// [Command] is a node of the command tree with a pflag FlagSet factory
// and a Run function; [Command.Execute] parses flags, dispatches
// subcommands, and suggests the nearest name for a typo. Params structs
// with flag tags are bound by [FlagsFromParams], and embedding
// [JSONOutput] adds --json.
//
// Failures are [*ToolError] values whose category picks the exit code.
// [Classify] maps gateway, session, and enrollment errors onto
// categories so every command reports them the same way.
//
// [OpenApp] builds the client stack from a config: session store,
// gateway, session manager, catalog store and enrollment coordinator.
// The coordinator's set is dropped whenever the session ends.
// [App.Start] restores the stored session and runs the initial catalog
// and enrollment fetches concurrently.
package cli
