// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mention

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testLogger(buf *lockedBuffer) *log.Logger {
	return log.New(buf, "", 0)
}

var (
	alice = Candidate{ID: "u1", Type: TypeUser, Name: "alice", DisplayName: "Alice"}
	bot   = Candidate{ID: "a7", Type: TypeAgent, Name: "helper"}
	docs  = Candidate{ID: "d3", Type: TypeDocument, Name: "roadmap"}
)

// openWith puts the composer into an open state with suggestions.
func openWith(t *testing.T, c *Composer, text string, cands ...Candidate) {
	t.Helper()
	_, ok := c.SetText(text, len(text))
	require.True(t, ok)
	require.True(t, c.SetSuggestions(c.Generation(), cands))
}

// =============================================================================
// PILL PROTOCOL TESTS
// =============================================================================

func TestSelectMention_InsertsOnePlaceholder(t *testing.T) {
	c := NewComposer()
	_, ok := c.SetText("hi @al", 6)
	require.True(t, ok)

	pill, err := c.SelectMention(alice)
	require.NoError(t, err)

	snap := c.Snapshot()
	assert.Equal(t, "hi [[u1]] ", snap.Text)
	assert.Equal(t, len("hi [[u1]] "), snap.Cursor)
	assert.Equal(t, 1, strings.Count(snap.Text, "[[u1]]"))
	require.Len(t, snap.Pills, 1)
	assert.Equal(t, pill, snap.Pills[0])
	assert.Equal(t, "Alice", pill.DisplayName)
	assert.False(t, snap.Open)
}

func TestSelectMention_ReplacesWholeWord(t *testing.T) {
	c := NewComposer()
	_, ok := c.SetText("ask @alxyz now", 7)
	require.True(t, ok)

	c.SelectMention(alice)
	assert.Equal(t, "ask [[u1]]  now", c.Text())
}

func TestSelectMention_WithoutContextInsertsAtCursor(t *testing.T) {
	c := NewComposer()
	_, ok := c.SetText("hello world", 5)
	require.False(t, ok)

	c.SelectMention(bot)
	assert.Equal(t, "hello[[a7]]  world", c.Text())
	assert.Len(t, c.Pills(), 1)
}

func TestRemovePill_LeavesNoReference(t *testing.T) {
	c := NewComposer()
	c.SetText("hi @al", 6)
	c.SelectMention(alice)

	require.True(t, c.RemovePill("u1"))

	snap := c.Snapshot()
	assert.NotContains(t, snap.Text, "[[u1]]")
	assert.Empty(t, snap.Pills)
	assert.Equal(t, "hi  ", snap.Text)
	assert.Equal(t, 4, snap.Cursor)

	assert.False(t, c.RemovePill("u1"))
}

func TestRemovePill_DuplicateMentions(t *testing.T) {
	c := NewComposer()
	c.SetText("@a", 2)
	c.SelectMention(alice)
	text := c.Text() + "and @a"
	c.SetText(text, len(text))
	c.SelectMention(alice)

	require.Len(t, c.Pills(), 2)
	require.True(t, c.RemovePill("u1"))

	assert.Len(t, c.Pills(), 1)
	assert.Equal(t, 1, strings.Count(c.Text(), "[[u1]]"))
}

func TestSetText_PrunesOrphanPills(t *testing.T) {
	c := NewComposer()
	c.SetText("@al", 3)
	c.SelectMention(alice)
	text := c.Text() + "@he"
	c.SetText(text, len(text))
	c.SelectMention(bot)
	require.Len(t, c.Pills(), 2)

	// User deleted the first placeholder by hand
	edited := strings.Replace(c.Text(), "[[u1]]", "", 1)
	c.SetText(edited, len(edited))

	pills := c.Pills()
	require.Len(t, pills, 1)
	assert.Equal(t, "a7", pills[0].ID)

	segs := c.Segments()
	var pillSegs int
	for _, s := range segs {
		if s.IsPill() {
			pillSegs++
		}
	}
	assert.Equal(t, 1, pillSegs)
}

func TestSelectMention_CallbackAndBacklink(t *testing.T) {
	var got []Pill
	var linked atomic.Int32
	var linkedUser atomic.Value

	c := NewComposer(
		WithOnSelect(func(p Pill) { got = append(got, p) }),
		WithBacklinks(BacklinkerFunc(func(ctx context.Context, userID string, p Pill) error {
			linked.Add(1)
			linkedUser.Store(userID)
			return nil
		}), "user-1"),
	)
	c.SetText("@do", 3)
	c.SelectMention(docs)
	c.Wait()

	require.Len(t, got, 1)
	assert.Equal(t, "d3", got[0].ID)
	assert.Equal(t, int32(1), linked.Load())
	assert.Equal(t, "user-1", linkedUser.Load())
}

func TestSelectMention_BacklinkFailureOnlyLogged(t *testing.T) {
	var buf lockedBuffer
	c := NewComposer(
		WithLogger(testLogger(&buf)),
		WithBacklinks(BacklinkerFunc(func(ctx context.Context, userID string, p Pill) error {
			return errors.New("backend down")
		}), "user-1"),
	)
	c.SetText("@al", 3)
	c.SelectMention(alice)
	c.Wait()

	assert.Contains(t, buf.String(), "BACKLINK_FAILED")
	assert.Contains(t, buf.String(), "backend down")
	assert.Equal(t, "[[u1]] ", c.Text())
	assert.Len(t, c.Pills(), 1)
}

func TestSelectMention_BacklinkPanicRecovered(t *testing.T) {
	var buf lockedBuffer
	c := NewComposer(
		WithLogger(testLogger(&buf)),
		WithBacklinks(BacklinkerFunc(func(ctx context.Context, userID string, p Pill) error {
			panic("boom")
		}), ""),
	)
	c.SetText("@al", 3)
	c.SelectMention(alice)
	c.Wait()

	assert.Contains(t, buf.String(), "BACKLINK_PANIC")
}

// =============================================================================
// SURFACE TESTS
// =============================================================================

func TestNavigation_Wraps(t *testing.T) {
	c := NewComposer()
	openWith(t, c, "@a", alice, bot, docs)

	c.MoveUp()
	sel, ok := c.Selected()
	require.True(t, ok)
	assert.Equal(t, "d3", sel.ID)

	c.MoveDown()
	sel, _ = c.Selected()
	assert.Equal(t, "u1", sel.ID)

	c.MoveDown()
	pill, ok := c.Commit()
	require.True(t, ok)
	assert.Equal(t, "a7", pill.ID)
	assert.Equal(t, "[[a7]] ", c.Text())
}

func TestNavigation_EmptyListIsNoop(t *testing.T) {
	c := NewComposer()
	c.SetText("@zz", 3)

	c.MoveDown()
	c.MoveUp()
	_, ok := c.Commit()
	assert.False(t, ok)
	assert.Equal(t, "@zz", c.Text())
	assert.Empty(t, c.Pills())
	assert.True(t, c.IsOpen())
}

func TestDismiss_LeavesTextAndPills(t *testing.T) {
	c := NewComposer()
	c.SetText("@al", 3)
	c.SelectMention(alice)
	text := c.Text() + "@he"
	openWith(t, c, text, bot)
	gen := c.Generation()

	c.Dismiss()

	snap := c.Snapshot()
	assert.False(t, snap.Open)
	assert.Empty(t, snap.Suggestions)
	assert.Equal(t, text, snap.Text)
	assert.Len(t, snap.Pills, 1)
	assert.False(t, c.SetSuggestions(gen, []Candidate{bot}), "results after dismiss are dropped")
}

func TestSetSuggestions_StaleGenerationDropped(t *testing.T) {
	c := NewComposer()
	c.SetText("@a", 2)
	stale := c.Generation()
	c.SetText("@al", 3)

	assert.False(t, c.SetSuggestions(stale, []Candidate{alice}))
	assert.True(t, c.SetSuggestions(c.Generation(), []Candidate{alice}))
}

func TestSetText_ClosesWithoutMention(t *testing.T) {
	c := NewComposer()
	openWith(t, c, "@a", alice)

	_, ok := c.SetText("@a done", 7)
	assert.False(t, ok)
	assert.False(t, c.IsOpen())
	_, ok = c.Selected()
	assert.False(t, ok)
}

func TestReset(t *testing.T) {
	c := NewComposer()
	c.SetText("@al", 3)
	c.SelectMention(alice)
	c.Reset()

	snap := c.Snapshot()
	assert.Empty(t, snap.Text)
	assert.Empty(t, snap.Pills)
	assert.Zero(t, snap.Cursor)
}

// =============================================================================
// AUTOCOMPLETE TESTS
// =============================================================================

type recordingSearcher struct {
	mu      sync.Mutex
	queries []string
	filters []EntityType
	results []Candidate
	err     error
	block   chan struct{}
	started chan struct{}
}

func (s *recordingSearcher) SearchMentions(ctx context.Context, query string, filter EntityType) ([]Candidate, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.filters = append(s.filters, filter)
	s.mu.Unlock()

	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.block != nil {
		<-s.block
	}
	return s.results, s.err
}

func (s *recordingSearcher) calls() ([]string, []EntityType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...), append([]EntityType(nil), s.filters...)
}

func TestAutocomplete_DebouncesToLastQuery(t *testing.T) {
	s := &recordingSearcher{results: []Candidate{alice}}
	c := NewComposer()
	var applied atomic.Int32
	ac := NewAutocomplete(context.Background(), c, s, 20*time.Millisecond,
		WithOnResults(func([]Candidate) { applied.Add(1) }))
	defer ac.Close()

	ac.Update("@a", 2)
	ac.Update("@al", 3)
	ac.Update("@ali", 4)

	require.Eventually(t, func() bool { return applied.Load() == 1 }, time.Second, 5*time.Millisecond)

	queries, _ := s.calls()
	assert.Equal(t, []string{"ali"}, queries)
	sel, ok := c.Selected()
	require.True(t, ok)
	assert.Equal(t, "u1", sel.ID)
}

func TestAutocomplete_PassesTypeFilter(t *testing.T) {
	s := &recordingSearcher{}
	ac := NewAutocomplete(context.Background(), NewComposer(), s, 5*time.Millisecond)
	defer ac.Close()

	ac.Update("@agent:bo", 9)

	require.Eventually(t, func() bool {
		q, _ := s.calls()
		return len(q) == 1
	}, time.Second, 5*time.Millisecond)

	queries, filters := s.calls()
	assert.Equal(t, "bo", queries[0])
	assert.Equal(t, TypeAgent, filters[0])
}

func TestAutocomplete_LateResultsDiscarded(t *testing.T) {
	s := &recordingSearcher{
		results: []Candidate{alice},
		block:   make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	c := NewComposer()
	var applied atomic.Bool
	ac := NewAutocomplete(context.Background(), c, s, 5*time.Millisecond,
		WithOnResults(func([]Candidate) { applied.Store(true) }))
	defer ac.Close()

	ac.Update("@a", 2)
	<-s.started

	// Context changes while the search is in flight
	_, ok := ac.Update("@a b", 4)
	require.False(t, ok)
	close(s.block)

	assert.Never(t, applied.Load, 100*time.Millisecond, 10*time.Millisecond)
	assert.Empty(t, c.Snapshot().Suggestions)
}

func TestAutocomplete_NoMentionCancelsPending(t *testing.T) {
	s := &recordingSearcher{}
	ac := NewAutocomplete(context.Background(), NewComposer(), s, 20*time.Millisecond)
	defer ac.Close()

	ac.Update("@a", 2)
	ac.Update("plain", 5)

	time.Sleep(80 * time.Millisecond)
	q, _ := s.calls()
	assert.Empty(t, q)
}

func TestAutocomplete_CloseIgnoresResults(t *testing.T) {
	s := &recordingSearcher{results: []Candidate{alice}}
	c := NewComposer()
	ac := NewAutocomplete(context.Background(), c, s, 20*time.Millisecond)

	ac.Update("@a", 2)
	ac.Close()

	time.Sleep(80 * time.Millisecond)
	q, _ := s.calls()
	assert.Empty(t, q)
	assert.False(t, c.IsOpen())

	_, ok := ac.Update("@al", 3)
	assert.False(t, ok)
}

func TestAutocomplete_SearchErrorLogged(t *testing.T) {
	var buf lockedBuffer
	s := &recordingSearcher{err: errors.New("timeout")}
	ac := NewAutocomplete(context.Background(), NewComposer(), s, 5*time.Millisecond,
		WithSearchLogger(testLogger(&buf)))
	defer ac.Close()

	ac.Update("@x", 2)

	require.Eventually(t, func() bool {
		return strings.Contains(buf.String(), "MENTION_SEARCH_FAILED")
	}, time.Second, 5*time.Millisecond)
}

func TestSelectMention_RejectsBracketedID(t *testing.T) {
	c := NewComposer()
	_, ok := c.SetText("hi @te", 6)
	require.True(t, ok)

	_, err := c.SelectMention(Candidate{ID: "team]1", Type: TypeWorkspace, Name: "team"})
	require.ErrorIs(t, err, ErrInvalidID)

	snap := c.Snapshot()
	assert.Equal(t, "hi @te", snap.Text)
	assert.Empty(t, snap.Pills)
}

func TestSetSuggestions_SkipsBracketedIDs(t *testing.T) {
	var buf lockedBuffer
	c := NewComposer(WithLogger(testLogger(&buf)))
	bad := Candidate{ID: "team]1", Type: TypeWorkspace, Name: "team"}
	openWith(t, c, "hi @a", bad, alice)

	snap := c.Snapshot()
	require.Len(t, snap.Suggestions, 1)
	assert.Equal(t, "u1", snap.Suggestions[0].ID)
	assert.Contains(t, buf.String(), "MENTION_CANDIDATE_SKIPPED")

	pill, ok := c.Commit()
	require.True(t, ok)
	assert.Equal(t, "u1", pill.ID)

	// Every pill survives further typing
	text := c.Text() + "x"
	c.SetText(text, len(text))
	assert.Len(t, c.Pills(), 1)
	assert.Equal(t, []string{"u1"}, PlaceholderIDs(c.Text()))
}

func TestValidID(t *testing.T) {
	assert.True(t, ValidID("u1"))
	assert.False(t, ValidID(""))
	assert.False(t, ValidID("team]1"))
	assert.False(t, ValidID("[x"))
}
