// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// StaticSource always returns the same manifest. Used offline and in tests.
type StaticSource struct {
	Manifest *Manifest
}

// FetchManifest implements ManifestSource.
func (s StaticSource) FetchManifest(ctx context.Context) (*Manifest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Manifest == nil {
		return nil, fmt.Errorf("static source: %w: nil manifest", ErrInvalidManifest)
	}
	return s.Manifest, nil
}

// FileSource loads a manifest from a local JSON or YAML file. The format
// is chosen by extension (.yaml/.yml for YAML, anything else is JSON).
type FileSource struct {
	Path string
}

// FetchManifest implements ManifestSource.
func (s FileSource) FetchManifest(ctx context.Context) (*Manifest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read manifest file: %w", err)
	}

	var m Manifest
	switch strings.ToLower(filepath.Ext(s.Path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parse manifest yaml %s: %w", s.Path, err)
		}
	default:
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parse manifest json %s: %w", s.Path, err)
		}
	}
	return &m, nil
}
