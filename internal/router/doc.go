// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package router turns parsed prefixes into executed intents.
//
// Routes by prefix mode:
// / command -> // search -> > power -> ? help -> ! quick -> # workspace -> ^ document
//
// Route never fails: every outcome, including backend errors and panics in a
// handler, comes back as a Result. One telemetry entry is recorded per call.
//
// # Key Types
//
//   - Router: Mode dispatch with injected services, clock and telemetry
//   - Services: Backend collaborators (search, commands, workspaces, documents, threads)
//   - ExecutionContext: Caller-owned per-invocation input
//   - Result: Success payload with an Action, or a failure with a Code
//
// # Usage
//
//	r := router.New(registry, router.ServicesFrom(client), router.WithRecorder(rec))
//	res := r.Execute(ctx, "/switch design", router.ExecutionContext{UserID: "u1"})
//	if !res.Success {
//	    fmt.Println(res.Error)
//	}
package router
