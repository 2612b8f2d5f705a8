// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for bktutor.
//
// Configuration is loaded from a single file named by either the
// BKTUTOR_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). When neither is given the CLI runs on [Default].
// There is no automatic file search.
//
// The file may contain environment-specific sections (development,
// staging, production) that override base values when
// [Config].Environment matches.
//
// [Config.Finalize] applies the server override (--server, then
// BKTUTOR_SERVER) and expands ${HOME} and ${VAR:-default} patterns in
// the server URL and storage path.
//
// This package depends on no other bktutor packages.
package config
