// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry records one Entry per routed command.
//
// Entries are kept in a bounded in-memory Ring (oldest evicted first) and
// mirrored to any number of Sinks. Sink delivery is detached: Record never
// waits for it and sink failures are logged, never returned.
//
// # Key Types
//
//   - Entry: One routed command with outcome and duration
//   - Ring: Fixed-capacity FIFO buffer of recent entries
//   - Recorder: Ring plus detached sink delivery
//   - Sink: Destination for entries (backend, SQLite, functions)
//   - Summary: Aggregated counts for display
//
// # Usage
//
//	rec := telemetry.NewRecorder(telemetry.DefaultCapacity, telemetry.WithSinks(client, store))
//	rec.Record(telemetry.Entry{CommandID: "command:branch", Prefix: "/", Success: true})
//	defer rec.Flush()
package telemetry
