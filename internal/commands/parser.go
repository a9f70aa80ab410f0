// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"strings"
	"unicode"
)

// =============================================================================
// ARGUMENT PARSING
// =============================================================================

// SplitArgs splits a command line into tokens, respecting quotes.
// Supports both single and double quotes for arguments with spaces.
func SplitArgs(input string) []string {
	var tokens []string
	var current strings.Builder
	var inSingleQuote, inDoubleQuote, quoted bool

	flush := func() {
		if current.Len() > 0 || quoted {
			tokens = append(tokens, current.String())
			current.Reset()
		}
		quoted = false
	}

	runes := []rune(input)
	for i := 0; i < len(runes); i++ {
		char := runes[i]

		switch {
		case char == '\'' && !inDoubleQuote:
			inSingleQuote = !inSingleQuote
			quoted = true

		case char == '"' && !inSingleQuote:
			inDoubleQuote = !inDoubleQuote
			quoted = true

		case char == '\\' && i+1 < len(runes) && (inDoubleQuote || inSingleQuote):
			// Escape sequence inside quotes
			next := runes[i+1]
			if next == '"' || next == '\'' || next == '\\' {
				current.WriteRune(next)
				i++
			} else {
				current.WriteRune(char)
			}

		case unicode.IsSpace(char) && !inSingleQuote && !inDoubleQuote:
			flush()

		default:
			current.WriteRune(char)
		}
	}

	flush()
	return tokens
}

// SplitFirst splits a query into its first word and the trimmed remainder.
// "switch design team" -> ("switch", "design team")
func SplitFirst(query string) (string, string) {
	query = strings.TrimSpace(query)
	idx := strings.IndexFunc(query, unicode.IsSpace)
	if idx == -1 {
		return query, ""
	}
	return query[:idx], strings.TrimSpace(query[idx:])
}
