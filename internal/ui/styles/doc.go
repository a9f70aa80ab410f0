// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the colors and lipgloss styles of the omnibox UI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection. Each prefix mode has an accent (ModeColor) and each mention type
a pill color (EntityColor).

# Theme

NewTheme detects the terminal color profile through termenv and builds the
palette, input and feedback styles:

	theme := styles.NewTheme(cfg.UI.Theme)
	box := theme.PaletteBox.Render(content)
*/
package styles
