// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/jeranaias/syna-omnibox/internal/prefix"
)

// =============================================================================
// COMMAND TYPES
// =============================================================================

// ParamType is the primitive type of a command parameter.
type ParamType string

const (
	ParamString  ParamType = "string"
	ParamNumber  ParamType = "number"
	ParamBoolean ParamType = "boolean"
)

// Parameter describes one typed command argument.
type Parameter struct {
	Name        string    `json:"name" yaml:"name"`
	Type        ParamType `json:"type" yaml:"type"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool      `json:"required,omitempty" yaml:"required,omitempty"`
	Default     any       `json:"default,omitempty" yaml:"default,omitempty"`
	Enum        []string  `json:"enum,omitempty" yaml:"enum,omitempty"`
}

// Command is a single catalog entry. Entries are never mutated once loaded;
// a refresh replaces the whole Manifest.
type Command struct {
	// ID is unique and stable across manifest versions
	ID string `json:"id" yaml:"id"`

	// Name is what the user types after the prefix (e.g., "branch")
	Name string `json:"name" yaml:"name"`

	Description string `json:"description" yaml:"description"`
	Category    string `json:"category" yaml:"category"`

	// Prefix is the trigger the command lives under ("/", ">", "!", ...)
	Prefix string `json:"prefix" yaml:"prefix"`

	Aliases    []string    `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Parameters []Parameter `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Shortcut   string      `json:"shortcut,omitempty" yaml:"shortcut,omitempty"`
	Enabled    bool        `json:"enabled" yaml:"enabled"`

	RequiresAuth       bool   `json:"requiresAuth,omitempty" yaml:"requiresAuth,omitempty"`
	RequiresPermission string `json:"requiresPermission,omitempty" yaml:"requiresPermission,omitempty"`
}

// Invocation returns the text a user types to run the command.
func (c Command) Invocation() string {
	return c.Prefix + c.Name
}

// Usage returns a one-line usage string, e.g. "/switch <workspace>".
func (c Command) Usage() string {
	usage := c.Invocation()
	for _, p := range c.Parameters {
		if p.Required {
			usage += " <" + p.Name + ">"
		} else {
			usage += " [" + p.Name + "]"
		}
	}
	return usage
}

// Manifest is a versioned snapshot of the command catalog.
type Manifest struct {
	Version     string    `json:"version" yaml:"version"`
	Commands    []Command `json:"commands" yaml:"commands"`
	LastUpdated time.Time `json:"lastUpdated" yaml:"lastUpdated"`
}

// ErrInvalidManifest is returned when a manifest fails validation.
var ErrInvalidManifest = errors.New("invalid command manifest")

// Validate checks that every command has a unique id and a command prefix.
func (m *Manifest) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil manifest", ErrInvalidManifest)
	}
	if m.Version == "" {
		return fmt.Errorf("%w: missing version", ErrInvalidManifest)
	}

	seen := make(map[string]bool, len(m.Commands))
	for i, cmd := range m.Commands {
		if cmd.ID == "" {
			return fmt.Errorf("%w: command %d has no id", ErrInvalidManifest, i)
		}
		if seen[cmd.ID] {
			return fmt.Errorf("%w: duplicate command id %q", ErrInvalidManifest, cmd.ID)
		}
		seen[cmd.ID] = true

		mode, ok := prefix.ModeForTrigger(cmd.Prefix)
		if !ok || !prefix.ShouldOpenOmnibox(mode) {
			return fmt.Errorf("%w: command %q has invalid prefix %q", ErrInvalidManifest, cmd.ID, cmd.Prefix)
		}
		for _, p := range cmd.Parameters {
			switch p.Type {
			case ParamString, ParamNumber, ParamBoolean:
			default:
				return fmt.Errorf("%w: command %q parameter %q has type %q", ErrInvalidManifest, cmd.ID, p.Name, p.Type)
			}
		}
	}
	return nil
}

// Find returns the command with the given id.
func (m *Manifest) Find(id string) (Command, bool) {
	if m == nil {
		return Command{}, false
	}
	for _, cmd := range m.Commands {
		if cmd.ID == id {
			return cmd, true
		}
	}
	return Command{}, false
}
