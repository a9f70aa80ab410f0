// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package composer

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/syna-omnibox/internal/commands"
	"github.com/jeranaias/syna-omnibox/internal/mention"
	"github.com/jeranaias/syna-omnibox/internal/router"
	"github.com/jeranaias/syna-omnibox/internal/ui/omnibox"
	"github.com/jeranaias/syna-omnibox/internal/ui/styles"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var (
	alice = mention.Candidate{ID: "u1", Type: mention.TypeUser, Name: "alice", DisplayName: "Alice"}
	alex  = mention.Candidate{ID: "u2", Type: mention.TypeUser, Name: "alex", Description: "Design lead"}
)

type fakeSearcher struct {
	mu      sync.Mutex
	queries []string
	results []mention.Candidate
}

func (f *fakeSearcher) SearchMentions(ctx context.Context, query string, filter mention.EntityType) ([]mention.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	return f.results, nil
}

type fakeExecutor struct {
	result router.Result
}

func (f *fakeExecutor) Execute(ctx context.Context, raw string, ec router.ExecutionContext) router.Result {
	return f.result
}

func newTestModel(t *testing.T, opts ...Option) (*Model, *fakeSearcher) {
	t.Helper()
	searcher := &fakeSearcher{results: []mention.Candidate{alice, alex}}
	theme := styles.NewTheme("dark")
	palette := omnibox.New(&fakeExecutor{}, commands.NewCompleter(commands.NewRegistry(nil)),
		omnibox.WithTheme(theme), omnibox.WithDisplayMode(omnibox.Inline))

	opts = append([]Option{WithTheme(theme), WithDebounce(20 * time.Millisecond)}, opts...)
	m := New(mention.NewComposer(), searcher, palette, opts...)
	t.Cleanup(m.Close)
	return m, searcher
}

func typeText(m *Model, s string) {
	for _, r := range s {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func key(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

// waitForSuggestions blocks until the mention surface shows n results.
func waitForSuggestions(t *testing.T, m *Model, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		snap := m.Mentions().Snapshot()
		return snap.Open && len(snap.Suggestions) == n
	}, time.Second, 5*time.Millisecond)
}

// =============================================================================
// MENTION TESTS
// =============================================================================

func TestMention_AutocompleteShowsSuggestions(t *testing.T) {
	m, searcher := newTestModel(t)

	typeText(m, "hi @al")
	waitForSuggestions(t, m, 2)

	searcher.mu.Lock()
	last := searcher.queries[len(searcher.queries)-1]
	searcher.mu.Unlock()
	assert.Equal(t, "al", last)

	// The listener wakes the program after results land
	assert.Equal(t, resultsMsg{}, m.waitForResults()())

	view := m.View()
	assert.Contains(t, view, "@Alice")
	assert.Contains(t, view, "@alex")
}

func TestMention_EnterCommitsSelectedAsPill(t *testing.T) {
	m, _ := newTestModel(t)

	typeText(m, "hi @al")
	waitForSuggestions(t, m, 2)

	m.Update(key(tea.KeyDown))
	m.Update(key(tea.KeyEnter))

	assert.Equal(t, "hi [[u2]] ", m.Value())
	require.Len(t, m.Pills(), 1)
	assert.Equal(t, "u2", m.Pills()[0].ID)
	assert.False(t, m.Mentions().IsOpen())
	assert.Equal(t, len("hi [[u2]] "), m.input.Position())
}

func TestMention_NavigationWraps(t *testing.T) {
	m, _ := newTestModel(t)

	typeText(m, "@a")
	waitForSuggestions(t, m, 2)

	m.Update(key(tea.KeyUp))
	sel, ok := m.Mentions().Selected()
	require.True(t, ok)
	assert.Equal(t, "u2", sel.ID)

	m.Update(key(tea.KeyDown))
	sel, _ = m.Mentions().Selected()
	assert.Equal(t, "u1", sel.ID)
}

func TestMention_TabCommits(t *testing.T) {
	m, _ := newTestModel(t)

	typeText(m, "@a")
	waitForSuggestions(t, m, 2)
	m.Update(key(tea.KeyTab))

	assert.Equal(t, "[[u1]] ", m.Value())
}

func TestMention_EscDismissesAndKeepsText(t *testing.T) {
	m, _ := newTestModel(t)

	typeText(m, "hey @a")
	waitForSuggestions(t, m, 2)
	m.Update(key(tea.KeyEsc))

	assert.False(t, m.Mentions().IsOpen())
	assert.Equal(t, "hey @a", m.Value())
	assert.Empty(t, m.Pills())
}

func TestMention_BackspaceRemovesWholePill(t *testing.T) {
	m, _ := newTestModel(t)

	typeText(m, "@a")
	waitForSuggestions(t, m, 2)
	m.Update(key(tea.KeyEnter))
	require.Equal(t, "[[u1]] ", m.Value())

	m.Update(key(tea.KeyBackspace)) // the trailing space
	assert.Equal(t, "[[u1]]", m.Value())
	assert.Len(t, m.Pills(), 1)

	m.Update(key(tea.KeyBackspace))
	assert.Equal(t, "", m.Value())
	assert.Empty(t, m.Pills())
	assert.Equal(t, "", m.input.Value())
}

func TestView_RendersPillLabels(t *testing.T) {
	m, _ := newTestModel(t)

	typeText(m, "ping @a")
	waitForSuggestions(t, m, 2)
	m.Update(key(tea.KeyEnter))

	view := m.View()
	assert.Contains(t, view, "ping [[u1]]")
	assert.Contains(t, view, "@Alice")
}

// =============================================================================
// SUBMIT TESTS
// =============================================================================

func TestSubmit_SendsRenderedMessageAndClears(t *testing.T) {
	var got []Message
	m, _ := newTestModel(t, WithOnSubmit(func(msg Message) { got = append(got, msg) }))

	typeText(m, "hi @a")
	waitForSuggestions(t, m, 2)
	m.Update(key(tea.KeyEnter)) // commit
	typeText(m, "thanks")

	_, cmd := m.Update(key(tea.KeyEnter))
	require.NotNil(t, cmd)

	require.Len(t, got, 1)
	assert.Equal(t, "hi [[u1]] thanks", got[0].Text)
	assert.Equal(t, "hi @Alice thanks", got[0].Rendered)
	require.Len(t, got[0].Pills, 1)

	sent, ok := cmd().(SubmittedMsg)
	require.True(t, ok)
	assert.Equal(t, got[0].Text, sent.Message.Text)

	assert.Equal(t, "", m.Value())
	assert.Empty(t, m.Pills())
	assert.Equal(t, "", m.input.Value())
}

func TestSubmit_BlankIsNoop(t *testing.T) {
	var calls int
	m, _ := newTestModel(t, WithOnSubmit(func(Message) { calls++ }))

	typeText(m, "   ")
	_, cmd := m.Update(key(tea.KeyEnter))
	assert.Nil(t, cmd)
	assert.Zero(t, calls)
}

// =============================================================================
// PALETTE TESTS
// =============================================================================

func TestPalette_PrefixAtLineStartOpens(t *testing.T) {
	m, _ := newTestModel(t)

	typeText(m, "/")
	require.True(t, m.Palette().IsOpen())
	assert.Equal(t, "/", m.Palette().Value())
	assert.Equal(t, "", m.Value(), "trigger moves into the palette")

	// Keys now go to the palette
	typeText(m, "br")
	assert.Equal(t, "/br", m.Palette().Value())
	assert.Equal(t, "", m.input.Value())

	m.Update(key(tea.KeyEsc))
	assert.False(t, m.Palette().IsOpen())
	assert.True(t, m.input.Focused())
}

func TestPalette_EveryOmniboxTriggerOpens(t *testing.T) {
	for _, trigger := range []string{"/", ">", "?", "!", "#", "^"} {
		t.Run(trigger, func(t *testing.T) {
			m, _ := newTestModel(t)
			typeText(m, trigger)
			assert.True(t, m.Palette().IsOpen())
			assert.True(t, strings.HasPrefix(m.Palette().Value(), trigger))
		})
	}
}

func TestPalette_TriggerMidTextStaysText(t *testing.T) {
	m, _ := newTestModel(t)

	typeText(m, "see issue #12")
	assert.False(t, m.Palette().IsOpen())
	assert.Equal(t, "see issue #12", m.Value())
}

func TestPalette_MentionTriggerDoesNotOpen(t *testing.T) {
	m, _ := newTestModel(t)

	typeText(m, "@")
	assert.False(t, m.Palette().IsOpen())
	assert.True(t, m.Mentions().IsOpen())
}

func TestPalette_CtrlKToggles(t *testing.T) {
	m, _ := newTestModel(t)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlK})
	assert.True(t, m.Palette().IsOpen())
	assert.Equal(t, "/", m.Palette().Value())
}

func TestExecutedMsg_SetsStatus(t *testing.T) {
	m, _ := newTestModel(t)

	m.Update(omnibox.ExecutedMsg{
		Input:  "#home",
		Result: router.Result{Success: true, Action: router.ActionNavigate, Target: "home"},
	})
	status, ok := m.Status()
	assert.True(t, ok)
	assert.Equal(t, "navigate home", status)
	assert.Contains(t, m.View(), "navigate home")
}

func TestWithoutPalette_TriggersAreText(t *testing.T) {
	m := New(nil, nil, nil, WithDebounce(time.Millisecond))
	t.Cleanup(m.Close)

	typeText(m, "/help")
	assert.Equal(t, "/help", m.Value())
}
