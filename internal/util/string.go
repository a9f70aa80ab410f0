// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// RuneOffsetToByte converts a rune position (as reported by bubbles text
// inputs) into a byte offset into s. Positions are clamped to [0, len(s)].
func RuneOffsetToByte(s string, runePos int) int {
	if runePos <= 0 {
		return 0
	}
	n := 0
	for i := range s {
		if n == runePos {
			return i
		}
		n++
	}
	return len(s)
}

// ByteOffsetToRune converts a byte offset into s to a rune position.
// Offsets inside a multi-byte rune count that rune as already passed.
func ByteOffsetToRune(s string, byteOff int) int {
	if byteOff <= 0 {
		return 0
	}
	if byteOff >= len(s) {
		return utf8.RuneCountInString(s)
	}
	return utf8.RuneCountInString(s[:byteOff])
}

// TruncateWidth truncates s to at most maxWidth display columns, accounting
// for double-width characters. An ellipsis is appended when truncated.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// PadWidth right-pads s with spaces to exactly width display columns,
// truncating first if it is too wide.
func PadWidth(s string, width int) string {
	s = TruncateWidth(s, width)
	return runewidth.FillRight(s, width)
}

// TruncateRunes truncates a string to a maximum number of runes.
// If the string is truncated, "..." is appended.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}
