// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend is the HTTP client for the Syna API.
//
// One Client covers every endpoint the front-end layer needs: the command
// manifest, search, generic command execution, workspaces, documents,
// thread branching, mention search, backlinks and command telemetry.
// Non-2xx responses are returned as *StatusError.
package backend
