// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/syna-omnibox/internal/mention"
)

// Theme holds the styles shared by the omnibox and the composer.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// PALETTE STYLES
	// ==========================================================================

	PaletteBox    lipgloss.Style
	PaletteInline lipgloss.Style
	PaletteHeader lipgloss.Style
	Separator     lipgloss.Style
	Item          lipgloss.Style
	ItemSelected  lipgloss.Style
	Description   lipgloss.Style
	Hint          lipgloss.Style
	Empty         lipgloss.Style

	// ==========================================================================
	// INPUT STYLES
	// ==========================================================================

	InputPrompt      lipgloss.Style
	InputText        lipgloss.Style
	InputPlaceholder lipgloss.Style

	// ==========================================================================
	// FEEDBACK STYLES
	// ==========================================================================

	Error   lipgloss.Style
	Success lipgloss.Style
	Muted   lipgloss.Style
}

// NewTheme detects the terminal and builds the styles. name is "dark",
// "light" or "auto"; "auto" asks the terminal for its background.
func NewTheme(name string) *Theme {
	profile := termenv.ColorProfile()

	var isDark bool
	switch strings.ToLower(name) {
	case "light":
		isDark = false
	case "dark":
		isDark = true
	default:
		isDark = termenv.HasDarkBackground()
	}
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		IsDark:       isDark,
		HasTrueColor: profile == termenv.TrueColor,
		ColorProfile: profile,
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.PaletteBox = lipgloss.NewStyle().
		Background(Surface).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(1, 2)

	t.PaletteInline = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.PaletteHeader = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true).
		Padding(0, 1)

	t.Separator = lipgloss.NewStyle().Foreground(Overlay)

	t.Item = lipgloss.NewStyle().Foreground(Cyan).Bold(true)

	t.ItemSelected = lipgloss.NewStyle().
		Background(Purple).
		Foreground(TextInverse).
		Padding(0, 1)

	t.Description = lipgloss.NewStyle().Foreground(TextMuted)
	t.Hint = lipgloss.NewStyle().Foreground(TextMuted).Padding(1, 0, 0, 0)
	t.Empty = lipgloss.NewStyle().Foreground(TextMuted).Italic(true)

	t.InputPrompt = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
	t.InputText = lipgloss.NewStyle().Foreground(TextPrimary)
	t.InputPlaceholder = lipgloss.NewStyle().Foreground(TextMuted).Italic(true)

	t.Error = lipgloss.NewStyle().Foreground(Rose).Bold(true)
	t.Success = lipgloss.NewStyle().Foreground(Emerald)
	t.Muted = lipgloss.NewStyle().Foreground(TextMuted)
}

// Pill returns the style for a mention pill of type et.
func (t *Theme) Pill(et mention.EntityType) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(EntityColor(et)).
		Bold(true).
		Padding(0, 1)
}

// GlamourStyle returns the glamour standard style matching the theme.
func (t *Theme) GlamourStyle() string {
	if t.IsDark {
		return "dark"
	}
	return "light"
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)
