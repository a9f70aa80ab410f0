// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and saves syna-omnibox configuration.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (SYNA_*)
//   - ~/.syna/config.toml
//   - ~/.syna/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Printf("CONFIG | error=%v (using defaults)", err)
//	}
//	client := backend.New(cfg.API.BaseURL, backend.WithToken(cfg.API.Token))
package config
