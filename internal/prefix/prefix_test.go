// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package prefix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// PARSE TESTS
// =============================================================================

func TestParse_Triggers(t *testing.T) {
	tests := []struct {
		text    string
		mode    Mode
		trigger string
		query   string
	}{
		{"/branch", ModeCommand, "/", "branch"},
		{"//abc", ModeSearch, "//", "abc"},
		{">sql", ModePower, ">", "sql"},
		{"?", ModeHelp, "?", ""},
		{"!note", ModeQuick, "!", "note"},
		{"#home", ModeWorkspace, "#", "home"},
		{"^recent", ModeDocument, "^", "recent"},
		{"@ali", ModeMention, "@", "ali"},
	}

	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			p, ok := Parse(tc.text, len(tc.text))
			require.True(t, ok)
			assert.Equal(t, tc.mode, p.Mode)
			assert.Equal(t, tc.trigger, p.Trigger)
			assert.Equal(t, tc.query, p.Query)
			assert.Equal(t, 0, p.Start)
			assert.Equal(t, len(tc.text), p.End)
		})
	}
}

func TestParse_DoubleSlashIsNeverCommand(t *testing.T) {
	p, ok := Parse("//abc", 5)
	require.True(t, ok)
	assert.Equal(t, ModeSearch, p.Mode)
	assert.Equal(t, "//", p.Trigger)
	assert.Equal(t, "abc", p.Query)
	assert.NotEqual(t, ModeCommand, p.Mode)
}

func TestParse_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		cursor int
	}{
		{"empty text", "", 0},
		{"negative cursor", "/help", -1},
		{"mid word", "hello/world", 11},
		{"natural language", "hello world", 11},
		{"trailing space", "/help ", 6},
		{"cursor at start", "/help", 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := Parse(tc.text, tc.cursor)
			assert.False(t, ok)
		})
	}
}

func TestParse_TokenAfterSpace(t *testing.T) {
	text := "please /switch design"
	p, ok := Parse(text, len("please /switch"))
	require.True(t, ok)
	assert.Equal(t, ModeCommand, p.Mode)
	assert.Equal(t, "switch", p.Query)
	assert.Equal(t, 7, p.Start)
	assert.Equal(t, 14, p.End)
	assert.Equal(t, "/switch", text[p.Start:p.End])

	// Cursor after the argument: the argument is the current word
	_, ok = Parse(text, len(text))
	assert.False(t, ok)
}

func TestParse_CursorClamped(t *testing.T) {
	p, ok := Parse("@bo", 99)
	require.True(t, ok)
	assert.Equal(t, 3, p.End)
	assert.Equal(t, "bo", p.Query)
}

func TestParse_QueryStopsAtCursor(t *testing.T) {
	p, ok := Parse("/workspace", 3)
	require.True(t, ok)
	assert.Equal(t, "wo", p.Query)
}

func TestParse_DeterministicAndTotal(t *testing.T) {
	inputs := []string{"", " ", "/", "//", "///", "a /b", "@", "日本 @名", "x\x00/y", "!!", "#  #"}
	for _, text := range inputs {
		for cursor := -2; cursor <= len(text)+2; cursor++ {
			p1, ok1 := Parse(text, cursor)
			p2, ok2 := Parse(text, cursor)
			assert.Equal(t, ok1, ok2, "text=%q cursor=%d", text, cursor)
			assert.Equal(t, p1, p2, "text=%q cursor=%d", text, cursor)
			if ok1 {
				assert.LessOrEqual(t, p1.Start, p1.End)
				assert.LessOrEqual(t, p1.End, len(text))
				assert.Equal(t, p1.Trigger+p1.Query, text[p1.Start:p1.End])
			}
		}
	}
}

// =============================================================================
// REPLACE TESTS
// =============================================================================

func TestReplacePrefixWith(t *testing.T) {
	text := "go to /swi now"
	p, ok := Parse(text, len("go to /swi"))
	require.True(t, ok)

	got := ReplacePrefixWith(text, p, "[switched]")
	assert.Equal(t, "go to [switched] now", got)
}

func TestReplacePrefixWith_ConsumesPrefix(t *testing.T) {
	for _, text := range []string{"/branch", "//query", "hi @ali", ">sql", "?help"} {
		p, ok := Parse(text, len(text))
		require.True(t, ok, text)

		replacement := "done "
		out := ReplacePrefixWith(text, p, replacement)
		again, ok := Parse(out, p.Start+len(replacement))
		if ok {
			assert.NotEqual(t, p, again, "prefix reproduced for %q", text)
		}
	}
}

func TestReplacePrefixWith_ClampsSpan(t *testing.T) {
	got := ReplacePrefixWith("abc", Parsed{Start: -4, End: 10}, "x")
	assert.Equal(t, "x", got)
}

// =============================================================================
// MODE TESTS
// =============================================================================

func TestShouldOpenOmnibox(t *testing.T) {
	open := map[Mode]bool{
		ModeCommand: true, ModeSearch: true, ModePower: true, ModeHelp: true,
		ModeQuick: true, ModeWorkspace: true, ModeDocument: true,
	}
	for _, m := range Modes() {
		assert.Equal(t, open[m], ShouldOpenOmnibox(m), m.String())
	}
}

func TestModeTriggersRoundTrip(t *testing.T) {
	for _, m := range Modes() {
		if m == ModeNatural {
			assert.Equal(t, "", m.Trigger())
			continue
		}
		got, ok := ModeForTrigger(m.Trigger())
		require.True(t, ok)
		assert.Equal(t, m, got)

		byName, ok := ParseMode(m.String())
		require.True(t, ok)
		assert.Equal(t, m, byName)

		assert.NotEmpty(t, Label(m))
		assert.NotEmpty(t, Icon(m))
		assert.NotEmpty(t, Placeholder(m))
	}

	assert.Equal(t, "//", Triggers()[0], "longest trigger must be checked first")
	assert.Equal(t, "unknown", Mode(42).String())
}
