// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"unicode"
)

// =============================================================================
// FUZZY MATCHING
// =============================================================================

// fuzzyMatch reports whether every rune of partial appears in name in order.
// Both arguments must already be normalized. The score rewards runs of
// consecutive runes and matches at the start of a word, so "swch" ranks
// /switch above longer names that merely contain the same letters.
func fuzzyMatch(partial, name string) (score int, matched bool) {
	if partial == "" {
		return 0, true
	}

	want := []rune(partial)
	have := []rune(name)
	if len(want) > len(have) {
		return 0, false
	}

	pos := 0
	last := -1
	for i := 0; i < len(have) && pos < len(want); i++ {
		if have[i] != want[pos] {
			continue
		}
		s := 1
		if last == i-1 {
			s += 5
		}
		if i == 0 {
			s += 10
		} else if isWordStart(have, i) {
			s += 7
		}
		score += s
		last = i
		pos++
	}

	if pos != len(want) {
		return 0, false
	}
	// Shorter names are better matches
	return score - len(have)/4, true
}

func isWordStart(runes []rune, i int) bool {
	prev := runes[i-1]
	return prev == '-' || prev == '_' || prev == '.' || unicode.IsSpace(prev)
}
