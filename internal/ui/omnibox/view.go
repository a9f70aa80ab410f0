// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package omnibox

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/syna-omnibox/internal/commands"
	"github.com/jeranaias/syna-omnibox/internal/prefix"
	"github.com/jeranaias/syna-omnibox/internal/ui/styles"
	"github.com/jeranaias/syna-omnibox/internal/util"
)

// View renders the palette, or nothing when closed.
func (m *Model) View() string {
	if !m.open {
		return ""
	}
	if m.display == Inline {
		return m.viewInline()
	}
	return m.viewGlobal()
}

func (m *Model) viewGlobal() string {
	boxWidth := m.boxWidth()
	mode := m.Mode()

	header := m.theme.PaletteHeader.
		Foreground(styles.ModeColor(mode)).
		Render(prefix.Icon(mode) + " " + prefix.Label(mode))
	separator := m.theme.Separator.Render(strings.Repeat("-", boxWidth-4))

	m.input.Width = boxWidth - 6

	parts := []string{header, separator, m.input.View(), separator, m.renderList(boxWidth - 6)}
	if m.errMsg != "" {
		parts = append(parts, m.theme.Error.Render(util.TruncateWidth(m.errMsg, boxWidth-6)))
	}
	if m.preview != "" {
		parts = append(parts, separator, m.preview)
	}
	parts = append(parts, m.theme.Hint.Render(m.hint()))

	box := m.theme.PaletteBox.Width(boxWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, parts...),
	)

	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(
			m.width, m.height,
			lipgloss.Center, lipgloss.Center,
			box,
			lipgloss.WithWhitespaceChars(" "),
		)
	}
	return box
}

func (m *Model) viewInline() string {
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.input.Width = width - 4

	parts := []string{m.input.View(), m.renderList(width - 4)}
	if m.errMsg != "" {
		parts = append(parts, m.theme.Error.Render(util.TruncateWidth(m.errMsg, width-4)))
	}
	return m.theme.PaletteInline.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, parts...),
	)
}

func (m *Model) renderList(width int) string {
	if len(m.items) == 0 {
		return m.theme.Empty.Render(m.emptyText())
	}

	var lines []string
	for i, item := range m.items {
		if i >= m.maxItems {
			lines = append(lines, m.theme.Empty.Render(fmt.Sprintf("  ... %d more", len(m.items)-m.maxItems)))
			break
		}
		lines = append(lines, m.renderItem(item, i == m.selected, width))
	}
	return strings.Join(lines, "\n")
}

// renderItem renders a single suggestion.
func (m *Model) renderItem(item commands.Completion, selected bool, width int) string {
	indicator := "  "
	if selected {
		indicator = "> "
	}

	name := m.theme.Item.Render(item.Display)
	used := lipgloss.Width(indicator) + lipgloss.Width(name) + 2
	descWidth := width - used
	if descWidth < 10 {
		descWidth = 10
	}
	desc := m.theme.Description.Render(util.TruncateWidth(item.Description, descWidth))

	line := indicator + name + "  " + desc
	if selected {
		return m.theme.ItemSelected.Width(width).Render(line)
	}
	return line
}

func (m *Model) emptyText() string {
	if m.executing {
		return "Running..."
	}
	switch m.Mode() {
	case prefix.ModeSearch:
		return "Press Enter to search"
	case prefix.ModeNatural:
		return "Type a prefix: / // > ? ! # ^"
	default:
		if strings.Contains(m.input.Value(), " ") {
			return "Press Enter to run"
		}
		return "No matching commands"
	}
}

func (m *Model) hint() string {
	return "Up/Down navigate | Tab complete | Enter run | Esc close"
}

func (m *Model) boxWidth() int {
	boxWidth := 64
	if m.width > 0 && m.width < boxWidth+10 {
		boxWidth = m.width - 10
	}
	if boxWidth < 40 {
		boxWidth = 40
	}
	return boxWidth
}
