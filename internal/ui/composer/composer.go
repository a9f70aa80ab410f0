// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package composer provides the message composer: a text input with
// @-mention autocomplete, pill rendering and a command palette opened by
// typing a prefix trigger.
package composer

import (
	"context"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/syna-omnibox/internal/mention"
	"github.com/jeranaias/syna-omnibox/internal/prefix"
	"github.com/jeranaias/syna-omnibox/internal/router"
	"github.com/jeranaias/syna-omnibox/internal/ui/omnibox"
	"github.com/jeranaias/syna-omnibox/internal/ui/styles"
	"github.com/jeranaias/syna-omnibox/internal/util"
)

const defaultMaxSuggestions = 6

// trailingPlaceholder matches a pill token ending at the cursor.
var trailingPlaceholder = regexp.MustCompile(`\[\[[^\[\]]+\]\]$`)

// =============================================================================
// MESSAGES
// =============================================================================

// resultsMsg wakes the model after autocomplete applied new suggestions.
type resultsMsg struct{}

// Message is a submitted composer message.
type Message struct {
	Text     string         // text with [[id]] placeholders
	Rendered string         // text with placeholders shown as @labels
	Pills    []mention.Pill // pills referenced by Text
}

// SubmittedMsg is emitted after Enter sends a message.
type SubmittedMsg struct {
	Message Message
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the composer. The mention state lives in a mention.Composer so
// background searches and backlinks can touch it safely; the text input is
// kept in sync with it after every edit.
type Model struct {
	input    textinput.Model
	composer *mention.Composer
	auto     *mention.Autocomplete
	searcher mention.Searcher
	palette  *omnibox.Model
	theme    *styles.Theme

	ctx      context.Context
	debounce time.Duration
	results  chan struct{}
	logger   *log.Logger

	// last value/cursor pushed to the mention composer
	lastValue  string
	lastCursor int

	maxSuggestions int
	onSubmit       func(Message)

	status   string
	statusOK bool

	width  int
	height int
}

// Option configures the composer.
type Option func(*Model)

// WithTheme sets the styles.
func WithTheme(t *styles.Theme) Option {
	return func(m *Model) {
		if t != nil {
			m.theme = t
		}
	}
}

// WithContext bounds mention searches.
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		if ctx != nil {
			m.ctx = ctx
		}
	}
}

// WithDebounce sets the mention search quiet period.
func WithDebounce(d time.Duration) Option {
	return func(m *Model) {
		m.debounce = d
	}
}

// WithLogger sets the logger for mention search failures.
func WithLogger(logger *log.Logger) Option {
	return func(m *Model) {
		m.logger = logger
	}
}

// WithOnSubmit sets the callback fired for every sent message.
func WithOnSubmit(fn func(Message)) Option {
	return func(m *Model) {
		m.onSubmit = fn
	}
}

// WithMaxSuggestions limits the visible mention suggestions.
func WithMaxSuggestions(n int) Option {
	return func(m *Model) {
		if n > 0 {
			m.maxSuggestions = n
		}
	}
}

// New creates a composer. palette may be nil, in which case prefix triggers
// are kept as plain text.
func New(composer *mention.Composer, searcher mention.Searcher, palette *omnibox.Model, opts ...Option) *Model {
	if composer == nil {
		composer = mention.NewComposer()
	}

	m := &Model{
		composer:       composer,
		searcher:       searcher,
		palette:        palette,
		theme:          styles.NewTheme("dark"),
		ctx:            context.Background(),
		debounce:       mention.DefaultDebounce,
		results:        make(chan struct{}, 1),
		maxSuggestions: defaultMaxSuggestions,
	}
	for _, opt := range opts {
		opt(m)
	}

	autoOpts := []mention.AutocompleteOption{
		mention.WithOnResults(func([]mention.Candidate) {
			// Coalesce: one pending wake-up is enough
			select {
			case m.results <- struct{}{}:
			default:
			}
		}),
	}
	if m.logger != nil {
		autoOpts = append(autoOpts, mention.WithSearchLogger(m.logger))
	}
	m.auto = mention.NewAutocomplete(m.ctx, composer, searcher, m.debounce, autoOpts...)

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = prefix.Placeholder(prefix.ModeNatural)
	ti.PromptStyle = m.theme.InputPrompt
	ti.TextStyle = m.theme.InputText
	ti.PlaceholderStyle = m.theme.InputPlaceholder
	ti.CharLimit = 4000
	ti.Focus()
	m.input = ti

	return m
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Value returns the composed text, placeholders included.
func (m *Model) Value() string {
	return m.composer.Text()
}

// Pills returns the pills referenced by the text.
func (m *Model) Pills() []mention.Pill {
	return m.composer.Pills()
}

// Mentions exposes the mention state.
func (m *Model) Mentions() *mention.Composer {
	return m.composer
}

// Palette returns the command palette, or nil.
func (m *Model) Palette() *omnibox.Model {
	return m.palette
}

// Status returns the last status line and whether it reports success.
func (m *Model) Status() (string, bool) {
	return m.status, m.statusOK
}

// SetSize updates the layout dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = max(width-4, 10)
	m.theme.SetSize(width, height)
	if m.palette != nil {
		m.palette.SetSize(width, height)
	}
}

// Close stops autocomplete and waits for detached backlink work.
func (m *Model) Close() {
	m.auto.Close()
	m.composer.Wait()
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts listening for autocomplete results.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForResults())
}

// Update handles messages for the composer and the palette it owns.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case resultsMsg:
		// Suggestions are already applied; re-arm the listener to redraw
		return m, m.waitForResults()

	case omnibox.ExecutedMsg:
		m.setStatus(msg.Result)
		return m, m.input.Focus()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmds []tea.Cmd
	if m.palette != nil {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		cmds = append(cmds, cmd)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.Close()
		return m, tea.Quit
	}

	if m.palette != nil && m.palette.IsOpen() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		if !m.palette.IsOpen() {
			m.input.Focus()
		}
		return m, cmd
	}

	if snap := m.composer.Snapshot(); snap.Open && len(snap.Suggestions) > 0 {
		switch msg.String() {
		case "down", "ctrl+n":
			m.composer.MoveDown()
			return m, nil
		case "up", "ctrl+p":
			m.composer.MoveUp()
			return m, nil
		case "enter", "tab":
			if _, ok := m.composer.Commit(); ok {
				m.syncFromComposer()
			}
			return m, nil
		case "esc":
			m.composer.Dismiss()
			return m, nil
		}
	}

	switch msg.String() {
	case "ctrl+k":
		if m.palette != nil {
			m.input.Blur()
			return m, m.palette.Toggle(prefix.ModeCommand)
		}
	case "esc":
		m.composer.Dismiss()
		return m, nil
	case "enter":
		return m, m.submit()
	case "backspace":
		if m.removePillBeforeCursor() {
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, tea.Batch(cmd, m.syncToComposer())
}

// waitForResults blocks until autocomplete signals new suggestions.
func (m *Model) waitForResults() tea.Cmd {
	ctx, results := m.ctx, m.results
	return func() tea.Msg {
		select {
		case <-results:
			return resultsMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

// =============================================================================
// SYNC
// =============================================================================

// syncToComposer pushes the input's text and cursor into the mention
// composer. A lone prefix token at the start of an empty line moves into
// the command palette instead.
func (m *Model) syncToComposer() tea.Cmd {
	value := m.input.Value()
	cursor := util.RuneOffsetToByte(value, m.input.Position())
	if value == m.lastValue && cursor == m.lastCursor {
		return nil
	}

	if m.palette != nil {
		if p, ok := prefix.Parse(value, cursor); ok && p.Start == 0 && p.End == len(value) && prefix.ShouldOpenOmnibox(p.Mode) {
			m.input.Reset()
			m.lastValue, m.lastCursor = "", 0
			m.auto.Update("", 0)
			m.input.Blur()
			return m.palette.Open(p.Mode, p.Query)
		}
	}

	m.lastValue, m.lastCursor = value, cursor
	m.auto.Update(value, cursor)
	return nil
}

// syncFromComposer copies the composer's text and cursor into the input.
func (m *Model) syncFromComposer() {
	snap := m.composer.Snapshot()
	m.input.SetValue(snap.Text)
	m.input.SetCursor(util.ByteOffsetToRune(snap.Text, snap.Cursor))
	m.lastValue, m.lastCursor = snap.Text, snap.Cursor
}

// removePillBeforeCursor deletes a whole [[id]] token ending at the cursor.
func (m *Model) removePillBeforeCursor() bool {
	value := m.input.Value()
	cursor := util.RuneOffsetToByte(value, m.input.Position())

	loc := trailingPlaceholder.FindStringIndex(value[:cursor])
	if loc == nil {
		return false
	}
	id := value[loc[0]+2 : loc[1]-2]
	known := false
	for _, p := range m.composer.Pills() {
		if p.ID == id {
			known = true
			break
		}
	}
	if !known {
		return false
	}

	text := value[:loc[0]] + value[cursor:]
	m.composer.SetText(text, loc[0])
	m.syncFromComposer()
	return true
}

// submit sends the composed message and clears the composer.
func (m *Model) submit() tea.Cmd {
	text := m.composer.Text()
	if strings.TrimSpace(text) == "" {
		return nil
	}

	pills := m.composer.Pills()
	msg := Message{
		Text:     text,
		Rendered: mention.Render(text, pills),
		Pills:    pills,
	}

	m.composer.Reset()
	m.input.Reset()
	m.lastValue, m.lastCursor = "", 0
	m.status, m.statusOK = "Sent", true

	if m.onSubmit != nil {
		m.onSubmit(msg)
	}
	return func() tea.Msg { return SubmittedMsg{Message: msg} }
}

func (m *Model) setStatus(result router.Result) {
	if !result.Success {
		m.status, m.statusOK = result.Error, false
		return
	}
	switch {
	case result.Action != "" && result.Target != "":
		m.status = string(result.Action) + " " + result.Target
	case result.Action != "":
		m.status = string(result.Action)
	default:
		m.status = "Done"
	}
	m.statusOK = true
}
