// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/syna-omnibox/internal/mention"
	"github.com/jeranaias/syna-omnibox/internal/prefix"
)

// =============================================================================
// PRIMARY ACCENT COLORS
// =============================================================================

// Purple - Primary accent, palette border, selections
var Purple = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

// Cyan - Commands and triggers
var Cyan = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}

// Emerald - Success states, workspace navigation
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// Rose - Errors, power commands
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// Amber - Warnings, quick actions
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// Sky - Search and documents
var Sky = lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#60A5FA"}

// =============================================================================
// SURFACE & TEXT COLORS
// =============================================================================

var Surface = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}
var SurfaceDim = lipgloss.AdaptiveColor{Light: "#F5F5F5", Dark: "#181825"}
var Overlay = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#313244"}

var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}
var TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A6ADC8"}
var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}
var TextInverse = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}

// =============================================================================
// MODE & ENTITY COLORS
// =============================================================================

// ModeColor returns the accent for a prefix mode.
func ModeColor(m prefix.Mode) lipgloss.AdaptiveColor {
	switch m {
	case prefix.ModeCommand:
		return Cyan
	case prefix.ModeSearch, prefix.ModeDocument:
		return Sky
	case prefix.ModePower:
		return Rose
	case prefix.ModeHelp:
		return Purple
	case prefix.ModeQuick:
		return Amber
	case prefix.ModeWorkspace:
		return Emerald
	default:
		return TextSecondary
	}
}

// EntityColor returns the pill color for a mention type.
func EntityColor(t mention.EntityType) lipgloss.AdaptiveColor {
	switch t {
	case mention.TypeUser:
		return Cyan
	case mention.TypeAgent:
		return Purple
	case mention.TypeWorkspace:
		return Emerald
	case mention.TypeDocument:
		return Sky
	default:
		return TextSecondary
	}
}

// =============================================================================
// STATUS RENDERING
// =============================================================================

// StatusIndicators are ASCII cues shown next to colored status text.
var StatusIndicators = struct {
	Success string
	Error   string
	Info    string
}{
	Success: "[OK]",
	Error:   "[X]",
	Info:    "[i]",
}

// RenderSuccess renders a success line.
func RenderSuccess(message string) string {
	return lipgloss.NewStyle().Foreground(Emerald).Bold(true).
		Render(StatusIndicators.Success + " " + message)
}

// RenderError renders an error line.
func RenderError(message string) string {
	return lipgloss.NewStyle().Foreground(Rose).Bold(true).
		Render(StatusIndicators.Error + " " + message)
}

// RenderInfo renders an informational line.
func RenderInfo(message string) string {
	return lipgloss.NewStyle().Foreground(Sky).
		Render(StatusIndicators.Info + " " + message)
}

// RenderStatus picks RenderSuccess or RenderError.
func RenderStatus(success bool, message string) string {
	if success {
		return RenderSuccess(message)
	}
	return RenderError(message)
}
