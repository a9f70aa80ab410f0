// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package composer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/syna-omnibox/internal/mention"
	"github.com/jeranaias/syna-omnibox/internal/ui/omnibox"
	"github.com/jeranaias/syna-omnibox/internal/ui/styles"
	"github.com/jeranaias/syna-omnibox/internal/util"
)

// View renders the composer. A global palette replaces the whole view; an
// inline palette is drawn above the input.
func (m *Model) View() string {
	if m.palette != nil && m.palette.IsOpen() && m.palette.DisplayMode() == omnibox.Global {
		return m.palette.View()
	}

	var parts []string
	if m.palette != nil && m.palette.IsOpen() {
		parts = append(parts, m.palette.View())
	}

	snap := m.composer.Snapshot()
	if snap.Open {
		parts = append(parts, m.renderSuggestions(snap))
	}

	parts = append(parts, m.input.View())
	if preview := m.renderPills(snap); preview != "" {
		parts = append(parts, preview)
	}
	if m.status != "" {
		parts = append(parts, styles.RenderStatus(m.statusOK, m.status))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderPills shows the text with pills styled by entity type. Nothing is
// shown while the text has no pills.
func (m *Model) renderPills(snap mention.Snapshot) string {
	if len(snap.Pills) == 0 {
		return ""
	}

	var b strings.Builder
	for _, seg := range mention.Segments(snap.Text, snap.Pills) {
		if seg.IsPill() {
			b.WriteString(m.theme.Pill(seg.Pill.Type).Render(seg.Pill.Label()))
			continue
		}
		b.WriteString(seg.Text)
	}
	return m.theme.Muted.Render("  ") + b.String()
}

func (m *Model) renderSuggestions(snap mention.Snapshot) string {
	width := m.width
	if width <= 0 {
		width = 80
	}
	inner := width - 4

	if len(snap.Suggestions) == 0 {
		hint := "Searching..."
		if snap.Context.Type != "" {
			hint = fmt.Sprintf("Searching %ss...", snap.Context.Type)
		}
		return m.theme.PaletteInline.Width(width).Render(m.theme.Empty.Render(hint))
	}

	// Keep the selection visible
	start := 0
	if snap.Selected >= m.maxSuggestions {
		start = snap.Selected - m.maxSuggestions + 1
	}
	end := min(start+m.maxSuggestions, len(snap.Suggestions))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, m.renderCandidate(snap.Suggestions[i], i == snap.Selected, inner))
	}
	return m.theme.PaletteInline.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m *Model) renderCandidate(c mention.Candidate, selected bool, width int) string {
	badge := lipgloss.NewStyle().Foreground(styles.EntityColor(c.Type)).Render(string(c.Type))
	name := util.TruncateWidth("@"+c.Label(), width/2)

	line := name
	if c.Description != "" {
		rest := width - lipgloss.Width(name) - lipgloss.Width(string(c.Type)) - 4
		if rest > 3 {
			line += "  " + m.theme.Description.Render(util.TruncateWidth(c.Description, rest))
		}
	}

	if selected {
		return m.theme.ItemSelected.Render("> "+line) + " " + badge
	}
	return m.theme.Item.Render("  "+line) + " " + badge
}
