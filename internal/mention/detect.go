// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mention

import (
	"strings"

	"github.com/jeranaias/syna-omnibox/internal/prefix"
)

// Context is the @-span under the cursor.
type Context struct {
	// Start and End bound the whole mention word, "@" included
	Start int
	End   int

	// Query is the text between "@" (or the type filter) and the cursor
	Query string

	// Type is set by "@type:query"; empty means any type
	Type EntityType
}

// Detect reports the mention under or immediately before cursor (a byte
// offset). When the cursor sits inside the word, End extends to the end of
// the word so a selection replaces all of it.
func Detect(text string, cursor int) (Context, bool) {
	p, ok := prefix.Parse(text, cursor)
	if !ok || p.Mode != prefix.ModeMention {
		return Context{}, false
	}

	end := p.End
	if i := strings.IndexByte(text[end:], ' '); i >= 0 {
		end += i
	} else {
		end = len(text)
	}

	mc := Context{Start: p.Start, End: end, Query: p.Query}
	if name, rest, found := strings.Cut(p.Query, ":"); found {
		if t, ok := ParseEntityType(name); ok {
			mc.Type = t
			mc.Query = rest
		}
	}
	return mc, true
}
