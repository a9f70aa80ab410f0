// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the command catalog behind the omnibox.
//
// The catalog is a versioned Manifest fetched from a ManifestSource and
// cached in memory for a short freshness window. When the source is
// unavailable the Registry serves the built-in catalog instead.
//
// # Key Types
//
//   - Command: One catalog entry, bound to a single trigger prefix
//   - Manifest: Versioned, immutable snapshot of the catalog
//   - Registry: Cached manifest access, search and execution checks
//   - ManifestSource: Where manifests come from (HTTP, file, static)
//   - Completer: Line-editor completions for the REPL
//
// # Usage
//
//	reg := commands.NewRegistry(client, commands.WithCacheTTL(5*time.Minute))
//	for _, cmd := range reg.SearchCommands(ctx, "branch", "/") {
//	    fmt.Println(cmd.ID)
//	}
package commands
