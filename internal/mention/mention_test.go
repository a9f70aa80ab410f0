// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mention

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// DETECTION TESTS
// =============================================================================

func TestDetect(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		cursor int
		want   Context
		ok     bool
	}{
		{"bare at", "@", 1, Context{Start: 0, End: 1}, true},
		{"after text", "hi @ali", 7, Context{Start: 3, End: 7, Query: "ali"}, true},
		{"mid word extends", "hi @alice there", 5, Context{Start: 3, End: 9, Query: "a"}, true},
		{"type filter", "@user:bob", 9, Context{Start: 0, End: 9, Query: "bob", Type: TypeUser}, true},
		{"type filter case", "@Agent:", 7, Context{Start: 0, End: 7, Type: TypeAgent}, true},
		{"unknown filter stays query", "@team:x", 7, Context{Start: 0, End: 7, Query: "team:x"}, true},
		{"email is not a mention", "mail a@b.io", 11, Context{}, false},
		{"command is not a mention", "/help", 5, Context{}, false},
		{"after space", "@ali ", 5, Context{}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Detect(tc.text, tc.cursor)
			require.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseEntityType(t *testing.T) {
	for _, et := range EntityTypes() {
		got, ok := ParseEntityType(string(et))
		require.True(t, ok)
		assert.Equal(t, et, got)
	}
	_, ok := ParseEntityType("channel")
	assert.False(t, ok)
}

// =============================================================================
// PLACEHOLDER TESTS
// =============================================================================

func TestPlaceholderIDs(t *testing.T) {
	ids := PlaceholderIDs("[[a]] and [[b-2]] then [[a]] but not [x] or [[]]")
	assert.Equal(t, []string{"a", "b-2", "a"}, ids)
	assert.Empty(t, PlaceholderIDs("plain text"))
}

func TestSegments_UnknownIDsStayText(t *testing.T) {
	pills := []Pill{{ID: "u1", Type: TypeUser, Name: "alice", DisplayName: "Alice"}}

	segs := Segments("see [[u1]] and [[zz]]", pills)
	require.Len(t, segs, 3)

	assert.Equal(t, "see ", segs[0].Text)
	assert.False(t, segs[0].IsPill())

	require.True(t, segs[1].IsPill())
	assert.Equal(t, "u1", segs[1].Pill.ID)
	assert.Equal(t, "[[u1]]", segs[1].Text)

	assert.Equal(t, " and [[zz]]", segs[2].Text)
	assert.False(t, segs[2].IsPill())
}

func TestSegments_Empty(t *testing.T) {
	assert.Empty(t, Segments("", nil))
}

func TestRender(t *testing.T) {
	pills := []Pill{
		{ID: "u1", Name: "alice", DisplayName: "Alice"},
		{ID: "d9", Name: "roadmap"},
	}
	got := Render("[[u1]] wrote [[d9]] for [[nobody]]", pills)
	assert.Equal(t, "@Alice wrote @roadmap for [[nobody]]", got)
}

func TestNewPill(t *testing.T) {
	meta := map[string]any{"avatar": "a.png"}
	c := Candidate{ID: "u1", Type: TypeUser, Name: "alice", Metadata: meta}

	p := NewPill(c)
	assert.Equal(t, "u1", p.ID)
	assert.Equal(t, "alice", p.DisplayName, "display name falls back to name")
	assert.Equal(t, "[[u1]]", p.Placeholder())
	assert.Equal(t, "@alice", p.Label())

	meta["avatar"] = "changed.png"
	assert.Equal(t, "a.png", p.Metadata["avatar"])
}
