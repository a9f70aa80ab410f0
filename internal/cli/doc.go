// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the syna-omnibox command tree.
//
// # Commands
//
//   - (no command): full-screen composer and palette on a terminal, the
//     line REPL otherwise
//   - repl: line-based omnibox with history and tab completion
//   - route <input>: route one line and print the result
//   - commands [query]: list catalog commands
//   - complete <partial>: show suggestions for a partial line
//   - telemetry: summarize persisted command telemetry
//   - state: show, set or reset the persisted UI state
//
// Every command accepts --format json for machine-readable output.
//
// # Wiring
//
// NewApp builds one instance of each component from the configuration:
// the backend client (unless offline), the command registry and its
// manifest source, the telemetry recorder and its sinks, the router and
// the SQLite store.
package cli
