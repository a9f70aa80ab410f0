// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mention

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/jeranaias/syna-omnibox/internal/util"
)

// DefaultDebounce is the quiet period before a mention search is sent.
const DefaultDebounce = 150 * time.Millisecond

// =============================================================================
// AUTOCOMPLETE
// =============================================================================

// Autocomplete feeds composer edits into a debounced mention search and
// applies the results to the composer's suggestion surface.
type Autocomplete struct {
	composer *Composer
	searcher Searcher
	debounce *util.Debouncer
	logger   *log.Logger

	onResults func([]Candidate)

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// AutocompleteOption configures an Autocomplete.
type AutocompleteOption func(*Autocomplete)

// WithOnResults sets a callback fired after results were applied.
func WithOnResults(fn func([]Candidate)) AutocompleteOption {
	return func(a *Autocomplete) {
		a.onResults = fn
	}
}

// WithSearchLogger sets the logger used for search failures.
func WithSearchLogger(logger *log.Logger) AutocompleteOption {
	return func(a *Autocomplete) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAutocomplete binds composer to searcher. A non-positive delay uses
// DefaultDebounce. Searches run under ctx until Close.
func NewAutocomplete(ctx context.Context, composer *Composer, searcher Searcher, delay time.Duration, opts ...AutocompleteOption) *Autocomplete {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	a := &Autocomplete{
		composer: composer,
		searcher: searcher,
		debounce: util.NewDebouncer(delay),
		logger:   log.Default(),
	}
	a.ctx, a.cancel = context.WithCancel(ctx)
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Update applies an edit to the composer and schedules a search for the
// mention under the cursor. Without a mention any pending search is
// dropped.
func (a *Autocomplete) Update(text string, cursor int) (Context, bool) {
	a.mu.Lock()
	closed := a.closed
	a.mu.Unlock()
	if closed {
		return Context{}, false
	}

	mc, ok := a.composer.SetText(text, cursor)
	if !ok {
		a.debounce.Cancel()
		return Context{}, false
	}
	a.schedule(mc, a.composer.Generation())
	return mc, true
}

func (a *Autocomplete) schedule(mc Context, gen uint64) {
	a.debounce.Trigger(func() {
		if a.ctx.Err() != nil || a.searcher == nil {
			return
		}
		cands, err := a.searcher.SearchMentions(a.ctx, mc.Query, mc.Type)
		if err != nil {
			if a.ctx.Err() == nil {
				a.logger.Printf("MENTION_SEARCH_FAILED | query=%q type=%s error=%v", mc.Query, mc.Type, err)
			}
			return
		}
		if a.ctx.Err() != nil {
			return
		}
		if a.composer.SetSuggestions(gen, cands) && a.onResults != nil {
			a.onResults(cands)
		}
	})
}

// Close cancels pending and in-flight searches and dismisses the surface.
// Results arriving afterwards are ignored.
func (a *Autocomplete) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	a.mu.Unlock()

	a.cancel()
	a.debounce.Cancel()
	a.composer.Dismiss()
}
