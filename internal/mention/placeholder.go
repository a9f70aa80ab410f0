// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mention

import (
	"errors"
	"regexp"
	"strings"
)

// placeholderPattern matches "[[id]]" tokens.
var placeholderPattern = regexp.MustCompile(`\[\[([^\[\]]+)\]\]`)

// ErrInvalidID is returned for entity ids that cannot round-trip through a
// placeholder token.
var ErrInvalidID = errors.New("mention id is empty or contains brackets")

// ValidID reports whether id forms a placeholder that placeholderPattern
// reads back as the same id.
func ValidID(id string) bool {
	return id != "" && !strings.ContainsAny(id, "[]")
}

// Placeholder returns the text token for a pill id.
func Placeholder(id string) string {
	return "[[" + id + "]]"
}

// PlaceholderIDs returns the ids of every placeholder in text, in order.
func PlaceholderIDs(text string) []string {
	var ids []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		ids = append(ids, m[1])
	}
	return ids
}

// Segment is a run of plain text or a single pill.
type Segment struct {
	Text string
	Pill *Pill
}

// IsPill reports whether the segment renders as a pill.
func (s Segment) IsPill() bool {
	return s.Pill != nil
}

// Segments splits text at placeholder tokens. Tokens whose id has a pill
// become pill segments; unknown ids stay literal text. Adjacent text runs
// are merged.
func Segments(text string, pills []Pill) []Segment {
	byID := make(map[string]*Pill, len(pills))
	for i := range pills {
		p := pills[i]
		byID[p.ID] = &p
	}

	var segs []Segment
	var buf strings.Builder
	flush := func() {
		if buf.Len() > 0 {
			segs = append(segs, Segment{Text: buf.String()})
			buf.Reset()
		}
	}

	last := 0
	for _, m := range placeholderPattern.FindAllStringSubmatchIndex(text, -1) {
		buf.WriteString(text[last:m[0]])
		token := text[m[0]:m[1]]
		if pill, ok := byID[text[m[2]:m[3]]]; ok {
			flush()
			segs = append(segs, Segment{Text: token, Pill: pill})
		} else {
			buf.WriteString(token)
		}
		last = m[1]
	}
	buf.WriteString(text[last:])
	flush()
	return segs
}

// Render replaces known placeholders with the pill labels.
func Render(text string, pills []Pill) string {
	var b strings.Builder
	for _, seg := range Segments(text, pills) {
		if seg.IsPill() {
			b.WriteString(seg.Pill.Label())
		} else {
			b.WriteString(seg.Text)
		}
	}
	return b.String()
}
