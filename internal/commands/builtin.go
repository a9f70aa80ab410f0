// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import "time"

// BuiltinVersion is the version reported by the built-in catalog.
const BuiltinVersion = "1.0.0"

// Categories used by the built-in catalog.
const (
	CategoryWorkspace = "workspace"
	CategoryThread    = "thread"
	CategorySearch    = "search"
	CategoryPower     = "power"
	CategoryHelp      = "help"
	CategoryQuick     = "quick"
	CategoryDocument  = "document"
)

// Command ids the router dispatches to dedicated handlers.
const (
	IDWorkspaceCreate = "workspace"
	IDWorkspaceSwitch = "switch"
	IDBranch          = "branch"
	IDSQL             = "sql"
	IDScript          = "script"
)

var builtinUpdated = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// DefaultManifest returns the built-in catalog. Each call returns a fresh
// copy, so callers may hold on to it without sharing state.
func DefaultManifest() *Manifest {
	return &Manifest{
		Version:     BuiltinVersion,
		LastUpdated: builtinUpdated,
		Commands: []Command{
			// Slash commands
			{
				ID:          IDWorkspaceCreate,
				Name:        "workspace",
				Description: "Create a new workspace",
				Category:    CategoryWorkspace,
				Prefix:      "/",
				Aliases:     []string{"ws", "new-workspace"},
				Parameters: []Parameter{
					{Name: "name", Type: ParamString, Required: true, Description: "Workspace name"},
				},
				Shortcut: "ctrl+shift+n",
				Enabled:  true,
			},
			{
				ID:          IDWorkspaceSwitch,
				Name:        "switch",
				Description: "Switch to another workspace",
				Category:    CategoryWorkspace,
				Prefix:      "/",
				Aliases:     []string{"sw"},
				Parameters: []Parameter{
					{Name: "workspace", Type: ParamString, Required: true, Description: "Workspace name or id"},
				},
				Enabled: true,
			},
			{
				ID:          IDBranch,
				Name:        "branch",
				Description: "Branch the current thread into a new conversation",
				Category:    CategoryThread,
				Prefix:      "/",
				Aliases:     []string{"fork"},
				Parameters: []Parameter{
					{Name: "title", Type: ParamString, Description: "Title for the new conversation"},
				},
				Shortcut: "ctrl+b",
				Enabled:  true,
			},
			{
				ID:          "summarize",
				Name:        "summarize",
				Description: "Summarize the current thread",
				Category:    CategoryThread,
				Prefix:      "/",
				Parameters: []Parameter{
					{Name: "length", Type: ParamString, Default: "short", Enum: []string{"short", "detailed"}},
				},
				Enabled: true,
			},
			{
				ID:           "invite",
				Name:         "invite",
				Description:  "Invite a teammate to this workspace",
				Category:     CategoryWorkspace,
				Prefix:       "/",
				Parameters:   []Parameter{{Name: "email", Type: ParamString, Required: true}},
				Enabled:      true,
				RequiresAuth: true,
			},
			{
				ID:          "agents",
				Name:        "agents",
				Description: "List the agents available in this workspace",
				Category:    CategoryWorkspace,
				Prefix:      "/",
				Enabled:     true,
			},

			// Search
			{
				ID:          "search",
				Name:        "search",
				Description: "Search messages and documents",
				Category:    CategorySearch,
				Prefix:      "//",
				Parameters:  []Parameter{{Name: "query", Type: ParamString, Required: true}},
				Shortcut:    "ctrl+k",
				Enabled:     true,
			},

			// Power commands
			{
				ID:                 IDSQL,
				Name:               "sql",
				Description:        "Run a read-only SQL query",
				Category:           CategoryPower,
				Prefix:             ">",
				Parameters:         []Parameter{{Name: "query", Type: ParamString, Required: true}},
				Enabled:            true,
				RequiresAuth:       true,
				RequiresPermission: "sql:execute",
			},
			{
				ID:           IDScript,
				Name:         "script",
				Description:  "Run a saved script",
				Category:     CategoryPower,
				Prefix:       ">",
				Parameters:   []Parameter{{Name: "name", Type: ParamString, Required: true}},
				Enabled:      true,
				RequiresAuth: true,
			},

			// Help
			{
				ID:          "help",
				Name:        "help",
				Description: "Show prefixes and what they do",
				Category:    CategoryHelp,
				Prefix:      "?",
				Parameters:  []Parameter{{Name: "topic", Type: ParamString}},
				Shortcut:    "ctrl+/",
				Enabled:     true,
			},

			// Quick actions
			{
				ID:          "note",
				Name:        "note",
				Description: "Capture a quick note",
				Category:    CategoryQuick,
				Prefix:      "!",
				Parameters:  []Parameter{{Name: "content", Type: ParamString, Required: true}},
				Enabled:     true,
			},
			{
				ID:          "task",
				Name:        "task",
				Description: "Create a task",
				Category:    CategoryQuick,
				Prefix:      "!",
				Parameters: []Parameter{
					{Name: "title", Type: ParamString, Required: true},
					{Name: "priority", Type: ParamNumber, Default: 2},
				},
				Enabled: true,
			},

			// Workspace navigation
			{
				ID:          "home",
				Name:        "home",
				Description: "Go to the workspace home",
				Category:    CategoryWorkspace,
				Prefix:      "#",
				Enabled:     true,
			},
			{
				ID:          "settings",
				Name:        "settings",
				Description: "Open workspace settings",
				Category:    CategoryWorkspace,
				Prefix:      "#",
				Enabled:     true,
			},

			// Documents
			{
				ID:          "open",
				Name:        "open",
				Description: "Open a document by id",
				Category:    CategoryDocument,
				Prefix:      "^",
				Parameters:  []Parameter{{Name: "id", Type: ParamString, Required: true}},
				Enabled:     true,
			},
			{
				ID:          "recent",
				Name:        "recent",
				Description: "Show recently opened documents",
				Category:    CategoryDocument,
				Prefix:      "^",
				Enabled:     true,
			},
		},
	}
}
