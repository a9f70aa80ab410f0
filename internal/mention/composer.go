// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mention

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"
)

// DefaultBacklinkTimeout bounds one detached backlink call.
const DefaultBacklinkTimeout = 10 * time.Second

// =============================================================================
// COMPOSER
// =============================================================================

// Composer holds the composed text, the cursor, the pill list and the
// autocomplete surface. Text and pills change together under one lock.
type Composer struct {
	mu          sync.Mutex
	text        string
	cursor      int
	pills       []Pill
	suggestions []Candidate
	selected    int
	open        bool
	active      Context
	gen         uint64

	userID          string
	backlinks       Backlinker
	backlinkTimeout time.Duration
	onSelect        func(Pill)
	logger          *log.Logger

	wg sync.WaitGroup
}

// Snapshot is a consistent copy of the composer state.
type Snapshot struct {
	Text        string
	Cursor      int
	Pills       []Pill
	Suggestions []Candidate
	Selected    int
	Open        bool
	Context     Context
}

// ComposerOption configures a Composer.
type ComposerOption func(*Composer)

// WithBacklinks registers selections with b on behalf of userID.
func WithBacklinks(b Backlinker, userID string) ComposerOption {
	return func(c *Composer) {
		c.backlinks = b
		c.userID = userID
	}
}

// WithBacklinkTimeout bounds each backlink call.
func WithBacklinkTimeout(d time.Duration) ComposerOption {
	return func(c *Composer) {
		if d > 0 {
			c.backlinkTimeout = d
		}
	}
}

// WithOnSelect sets the callback fired after a mention is selected.
func WithOnSelect(fn func(Pill)) ComposerOption {
	return func(c *Composer) {
		c.onSelect = fn
	}
}

// WithLogger sets the composer logger.
func WithLogger(logger *log.Logger) ComposerOption {
	return func(c *Composer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewComposer creates an empty composer.
func NewComposer(opts ...ComposerOption) *Composer {
	c := &Composer{
		backlinkTimeout: DefaultBacklinkTimeout,
		logger:          log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns a copy of the current state.
func (c *Composer) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Text:        c.text,
		Cursor:      c.cursor,
		Pills:       append([]Pill(nil), c.pills...),
		Suggestions: append([]Candidate(nil), c.suggestions...),
		Selected:    c.selected,
		Open:        c.open,
		Context:     c.active,
	}
}

// Text returns the composed text.
func (c *Composer) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

// Pills returns a copy of the pill list.
func (c *Composer) Pills() []Pill {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Pill(nil), c.pills...)
}

// Segments splits the current text for rendering.
func (c *Composer) Segments() []Segment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Segments(c.text, c.pills)
}

// Generation identifies the current mention context. It changes whenever
// the text, the cursor or the surface changes.
func (c *Composer) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// SetUserID changes the user backlinks are recorded for.
func (c *Composer) SetUserID(userID string) {
	c.mu.Lock()
	c.userID = userID
	c.mu.Unlock()
}

// =============================================================================
// EDITING
// =============================================================================

// SetText replaces the text and cursor (a byte offset), drops pills whose
// placeholder no longer appears, and re-detects the mention under the
// cursor. The surface opens when a mention is detected and closes otherwise.
func (c *Composer) SetText(text string, cursor int) (Context, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.text = text
	c.cursor = clamp(cursor, 0, len(text))
	c.pruneLocked()
	return c.detectLocked()
}

// SetCursor moves the cursor and re-detects the mention under it.
func (c *Composer) SetCursor(cursor int) (Context, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cursor = clamp(cursor, 0, len(c.text))
	return c.detectLocked()
}

// detectLocked refreshes the active context. Callers hold c.mu.
func (c *Composer) detectLocked() (Context, bool) {
	c.gen++
	mc, ok := Detect(c.text, c.cursor)
	if !ok {
		c.closeLocked()
		return Context{}, false
	}
	if !c.open || mc != c.active {
		c.suggestions = nil
		c.selected = 0
	}
	c.active = mc
	c.open = true
	return mc, true
}

// pruneLocked keeps at most as many pills per id as there are placeholders
// for that id. Callers hold c.mu.
func (c *Composer) pruneLocked() {
	counts := make(map[string]int)
	for _, id := range PlaceholderIDs(c.text) {
		counts[id]++
	}
	kept := c.pills[:0]
	for _, p := range c.pills {
		if counts[p.ID] > 0 {
			counts[p.ID]--
			kept = append(kept, p)
		}
	}
	for i := len(kept); i < len(c.pills); i++ {
		c.pills[i] = Pill{}
	}
	c.pills = kept
}

// =============================================================================
// SELECTION PROTOCOL
// =============================================================================

// SelectMention turns cand into a pill, replaces the active mention span
// with "[[id]] ", moves the cursor past it and closes the surface. Without
// an active mention the placeholder is inserted at the cursor. The select
// callback fires afterwards and the backlink is registered in the
// background; its failure is only logged. Candidates whose id cannot form
// a placeholder are rejected with ErrInvalidID and nothing changes.
func (c *Composer) SelectMention(cand Candidate) (Pill, error) {
	if !ValidID(cand.ID) {
		return Pill{}, ErrInvalidID
	}
	pill := NewPill(cand)

	c.mu.Lock()
	start, end := c.cursor, c.cursor
	if mc, ok := Detect(c.text, c.cursor); ok {
		start, end = mc.Start, mc.End
	}

	insert := pill.Placeholder() + " "
	c.text = c.text[:start] + insert + c.text[end:]
	c.pills = append(c.pills, pill)
	c.cursor = start + len(insert)
	c.closeLocked()

	onSelect := c.onSelect
	backlinks, userID := c.backlinks, c.userID
	c.mu.Unlock()

	if onSelect != nil {
		onSelect(pill)
	}
	if backlinks != nil {
		c.wg.Add(1)
		go c.registerBacklink(backlinks, userID, pill)
	}
	return pill, nil
}

func (c *Composer) registerBacklink(b Backlinker, userID string, pill Pill) {
	defer c.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			c.logger.Printf("BACKLINK_PANIC | entity=%s panic=%v", pill.ID, r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), c.backlinkTimeout)
	defer cancel()

	if err := b.CreateBacklink(ctx, userID, pill); err != nil {
		c.logger.Printf("BACKLINK_FAILED | user=%s entity=%s type=%s error=%v", userID, pill.ID, pill.Type, err)
	}
}

// RemovePill removes one pill with id and erases the first occurrence of
// its placeholder. It reports whether a pill was removed.
func (c *Composer) RemovePill(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := -1
	for i, p := range c.pills {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	c.pills = append(c.pills[:idx], c.pills[idx+1:]...)

	token := Placeholder(id)
	if at := strings.Index(c.text, token); at >= 0 {
		c.text = c.text[:at] + c.text[at+len(token):]
		switch {
		case c.cursor >= at+len(token):
			c.cursor -= len(token)
		case c.cursor > at:
			c.cursor = at
		}
	}
	c.gen++
	return true
}

// Reset clears text, pills and the surface.
func (c *Composer) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = ""
	c.cursor = 0
	c.pills = nil
	c.closeLocked()
}

// Wait blocks until every detached backlink call has finished.
func (c *Composer) Wait() {
	c.wg.Wait()
}

// =============================================================================
// SUGGESTION SURFACE
// =============================================================================

// SetSuggestions applies search results computed for generation gen. Late
// results for a superseded context or a closed surface are dropped.
func (c *Composer) SetSuggestions(gen uint64, cands []Candidate) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen || !c.open {
		return false
	}
	c.suggestions = c.suggestions[:0:0]
	for _, cand := range cands {
		if !ValidID(cand.ID) {
			c.logger.Printf("MENTION_CANDIDATE_SKIPPED | id=%q reason=invalid_id", cand.ID)
			continue
		}
		c.suggestions = append(c.suggestions, cand)
	}
	c.selected = 0
	return true
}

// MoveDown selects the next suggestion, wrapping to the first.
func (c *Composer) MoveDown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n := len(c.suggestions); n > 0 {
		c.selected = (c.selected + 1) % n
	}
}

// MoveUp selects the previous suggestion, wrapping to the last.
func (c *Composer) MoveUp() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n := len(c.suggestions); n > 0 {
		c.selected = (c.selected - 1 + n) % n
	}
}

// Selected returns the highlighted suggestion.
func (c *Composer) Selected() (Candidate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open || len(c.suggestions) == 0 {
		return Candidate{}, false
	}
	return c.suggestions[c.selected], true
}

// Commit selects the highlighted suggestion (Enter or Tab). It does
// nothing when the list is empty.
func (c *Composer) Commit() (Pill, bool) {
	cand, ok := c.Selected()
	if !ok {
		return Pill{}, false
	}
	pill, err := c.SelectMention(cand)
	return pill, err == nil
}

// Dismiss closes the surface (Escape) without touching text or pills.
func (c *Composer) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

// IsOpen reports whether the suggestion surface is showing.
func (c *Composer) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// closeLocked hides the surface and invalidates in-flight searches.
func (c *Composer) closeLocked() {
	c.open = false
	c.suggestions = nil
	c.selected = 0
	c.active = Context{}
	c.gen++
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
