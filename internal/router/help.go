// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeranaias/syna-omnibox/internal/commands"
	"github.com/jeranaias/syna-omnibox/internal/prefix"
)

var triggerHelp = map[prefix.Mode]string{
	prefix.ModeCommand:   "Run a command (/branch, /switch design)",
	prefix.ModeSearch:    "Search messages and documents",
	prefix.ModePower:     "Power commands for signed-in users (>sql, >script)",
	prefix.ModeHelp:      "Help on a prefix or command (?switch)",
	prefix.ModeQuick:     "Quick actions (!note text, !task title)",
	prefix.ModeWorkspace: "Jump to a workspace, #home or #settings",
	prefix.ModeDocument:  "Open a document (^open id, ^recent)",
	prefix.ModeMention:   "Mention a person, agent, workspace or document",
}

// HelpText returns the summary of every trigger, longest trigger first.
func HelpText() string {
	var b strings.Builder
	b.WriteString("# Prefixes\n\n")
	for _, trigger := range prefix.Triggers() {
		mode, _ := prefix.ModeForTrigger(trigger)
		fmt.Fprintf(&b, "- `%s` %s\n", trigger, triggerHelp[mode])
	}
	b.WriteString("\nType ?<command> for details on one command.\n")
	return b.String()
}

// topicHelp renders help for a command name, a trigger or a mode name.
// Unknown topics get placeholder text.
func (r *Router) topicHelp(ctx context.Context, topic string) string {
	if mode, ok := prefix.ModeForTrigger(topic); ok && mode != prefix.ModeNatural {
		return modeHelp(mode)
	}
	if mode, ok := prefix.ParseMode(topic); ok && mode != prefix.ModeNatural {
		return modeHelp(mode)
	}

	for _, cmd := range r.registry.SearchCommands(ctx, topic, "") {
		if strings.EqualFold(cmd.Name, topic) || containsFold(cmd.Aliases, topic) {
			return CommandHelp(cmd)
		}
	}

	return fmt.Sprintf("# %s\n\nHelp for \"%s\" is not written yet. Type ? for an overview.\n", topic, topic)
}

func modeHelp(mode prefix.Mode) string {
	return fmt.Sprintf("# %s %s\n\n`%s` %s\n", prefix.Icon(mode), prefix.Label(mode), mode.Trigger(), triggerHelp[mode])
}

// CommandHelp renders usage, description, parameters, aliases and shortcut.
func CommandHelp(cmd commands.Command) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n%s\n\nUsage: `%s`\n", cmd.Invocation(), cmd.Description, cmd.Usage())

	if len(cmd.Parameters) > 0 {
		b.WriteString("\nParameters:\n\n")
		for _, p := range cmd.Parameters {
			line := fmt.Sprintf("- `%s` (%s", p.Name, p.Type)
			if p.Required {
				line += ", required"
			}
			line += ")"
			if p.Description != "" {
				line += " " + p.Description
			}
			if len(p.Enum) > 0 {
				line += " one of " + strings.Join(p.Enum, ", ")
			}
			b.WriteString(line + "\n")
		}
	}
	if len(cmd.Aliases) > 0 {
		fmt.Fprintf(&b, "\nAliases: %s\n", cmd.Prefix+strings.Join(cmd.Aliases, ", "+cmd.Prefix))
	}
	if cmd.Shortcut != "" {
		fmt.Fprintf(&b, "\nShortcut: %s\n", cmd.Shortcut)
	}
	return b.String()
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
