// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists omnibox state in a local SQLite database.
//
// # Key Types
//
//   - Store: the database handle
//   - UIState: preferences and last-active panel, workspace and document,
//     kept as one JSON value under the fixed key "syna.ui.state"
//
// Store also implements telemetry.Sink, so command telemetry can be kept
// locally alongside the in-memory ring.
//
// # Usage
//
//	store, err := storage.Open(path)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	state, err := store.LoadState(ctx)
//	state, err = store.SetPreference(ctx, "theme", "light")
//
// # Storage Location
//
// The database defaults to ~/.syna/omnibox.db.
package storage
