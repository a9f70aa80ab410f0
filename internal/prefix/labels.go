// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package prefix

var labels = map[Mode]string{
	ModeNatural:   "Ask anything",
	ModeCommand:   "Commands",
	ModeSearch:    "Search",
	ModePower:     "Power commands",
	ModeHelp:      "Help",
	ModeQuick:     "Quick actions",
	ModeWorkspace: "Workspaces",
	ModeDocument:  "Documents",
	ModeMention:   "Mentions",
}

var icons = map[Mode]string{
	ModeNatural:   "✦",
	ModeCommand:   "⌘",
	ModeSearch:    "⌕",
	ModePower:     "⚡",
	ModeHelp:      "?",
	ModeQuick:     "✚",
	ModeWorkspace: "#",
	ModeDocument:  "▤",
	ModeMention:   "@",
}

var placeholders = map[Mode]string{
	ModeNatural:   "Type a message, or / for commands",
	ModeCommand:   "Run a command...",
	ModeSearch:    "Search everything...",
	ModePower:     "Power command (sql, script)...",
	ModeHelp:      "Help topic...",
	ModeQuick:     "note <text> or task <title>",
	ModeWorkspace: "Workspace name, home or settings",
	ModeDocument:  "open <id> or recent",
	ModeMention:   "Mention a person, agent or document",
}

// Label returns the display label for the mode.
func Label(m Mode) string { return labels[m] }

// Icon returns the glyph shown next to the mode.
func Icon(m Mode) string { return icons[m] }

// Placeholder returns the input hint shown while the mode is active.
func Placeholder(m Mode) string { return placeholders[m] }
