// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package omnibox

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/syna-omnibox/internal/commands"
	"github.com/jeranaias/syna-omnibox/internal/prefix"
	"github.com/jeranaias/syna-omnibox/internal/router"
	"github.com/jeranaias/syna-omnibox/internal/ui/styles"
)

// DefaultDebounce is the quiet period before suggestions refresh.
const DefaultDebounce = 150 * time.Millisecond

const defaultMaxItems = 8

// =============================================================================
// DISPLAY MODE
// =============================================================================

// DisplayMode is where the palette is drawn.
type DisplayMode int

const (
	// Global is the centered overlay
	Global DisplayMode = iota
	// Inline is the compact list under the composer
	Inline
)

// String returns "global" or "inline".
func (d DisplayMode) String() string {
	if d == Inline {
		return "inline"
	}
	return "global"
}

// ParseDisplayMode maps a config value to a DisplayMode; unknown values are Global.
func ParseDisplayMode(s string) DisplayMode {
	if strings.EqualFold(s, "inline") {
		return Inline
	}
	return Global
}

// =============================================================================
// COLLABORATORS
// =============================================================================

// Executor routes a raw input line. *router.Router implements it.
type Executor interface {
	Execute(ctx context.Context, raw string, ec router.ExecutionContext) router.Result
}

// Suggester completes the prefix token at the end of a line.
// *commands.Completer implements it.
type Suggester interface {
	Complete(ctx context.Context, input string) []commands.Completion
}

// =============================================================================
// MESSAGES
// =============================================================================

// refreshMsg fires when the debounce period for sequence seq elapses.
type refreshMsg struct{ seq uint64 }

// suggestionsMsg carries suggestions computed for sequence seq.
type suggestionsMsg struct {
	seq   uint64
	items []commands.Completion
}

// executedMsg carries the router result for one execution.
type executedMsg struct {
	input  string
	result router.Result
}

// ExecutedMsg is emitted after a successful execution closed the palette.
type ExecutedMsg struct {
	Input  string
	Result router.Result
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the command palette.
type Model struct {
	input    textinput.Model
	exec     Executor
	suggest  Suggester
	theme    *styles.Theme
	ctx      context.Context
	ec       router.ExecutionContext
	display  DisplayMode
	debounce time.Duration
	maxItems int

	open      bool
	seq       uint64
	items     []commands.Completion
	selected  int
	executing bool
	errMsg    string

	preview       string
	previewSource string
	renderer      *glamour.TermRenderer
	rendererWidth int

	width  int
	height int

	onExecuted func(input string, result router.Result)
}

// Option configures a Model.
type Option func(*Model)

// WithDebounce sets the suggestion refresh delay.
func WithDebounce(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.debounce = d
		}
	}
}

// WithDisplayMode selects global or inline rendering.
func WithDisplayMode(d DisplayMode) Option {
	return func(m *Model) { m.display = d }
}

// WithTheme sets the theme.
func WithTheme(t *styles.Theme) Option {
	return func(m *Model) {
		if t != nil {
			m.theme = t
		}
	}
}

// WithContext sets the context executions and searches run under.
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		if ctx != nil {
			m.ctx = ctx
		}
	}
}

// WithOnExecuted sets the callback fired after a successful execution.
func WithOnExecuted(fn func(input string, result router.Result)) Option {
	return func(m *Model) { m.onExecuted = fn }
}

// WithMaxItems bounds the visible suggestion list.
func WithMaxItems(n int) Option {
	return func(m *Model) {
		if n > 0 {
			m.maxItems = n
		}
	}
}

// New creates a closed palette.
func New(exec Executor, suggest Suggester, opts ...Option) *Model {
	m := &Model{
		exec:     exec,
		suggest:  suggest,
		ctx:      context.Background(),
		debounce: DefaultDebounce,
		maxItems: defaultMaxItems,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.theme == nil {
		m.theme = styles.NewTheme("auto")
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 500
	ti.Width = 50
	ti.PromptStyle = m.theme.InputPrompt
	ti.TextStyle = m.theme.InputText
	ti.PlaceholderStyle = m.theme.InputPlaceholder
	m.input = ti

	return m
}

// =============================================================================
// PUBLIC METHODS
// =============================================================================

// Open shows the palette pre-filled with mode's trigger and query.
func (m *Model) Open(mode prefix.Mode, query string) tea.Cmd {
	m.open = true
	m.errMsg = ""
	m.items = nil
	m.selected = 0
	m.preview, m.previewSource = "", ""

	m.input.SetValue(mode.Trigger() + query)
	m.input.CursorEnd()
	m.input.Placeholder = prefix.Placeholder(mode)

	return tea.Batch(m.input.Focus(), m.scheduleRefresh())
}

// Close hides the palette. Pending refreshes and suggestions are discarded.
func (m *Model) Close() {
	m.open = false
	m.seq++
	m.items = nil
	m.selected = 0
	m.errMsg = ""
	m.preview, m.previewSource = "", ""
	m.input.Reset()
	m.input.Blur()
}

// Toggle closes the palette when it is open in mode and opens it otherwise.
func (m *Model) Toggle(mode prefix.Mode) tea.Cmd {
	if m.open && m.Mode() == mode {
		m.Close()
		return nil
	}
	return m.Open(mode, "")
}

// Execute routes raw. On success the palette closes, the callback fires and
// an ExecutedMsg is emitted; on failure the error is shown in the palette.
func (m *Model) Execute(raw string) tea.Cmd {
	raw = strings.TrimSpace(raw)
	if raw == "" || m.exec == nil {
		return nil
	}
	m.executing = true
	m.errMsg = ""

	ctx, exec, ec := m.ctx, m.exec, m.ec
	return func() tea.Msg {
		return executedMsg{input: raw, result: exec.Execute(ctx, raw, ec)}
	}
}

// SetExecutionContext sets the context passed to the router.
func (m *Model) SetExecutionContext(ec router.ExecutionContext) {
	m.ec = ec
}

// ExecutionContext returns the context passed to the router.
func (m *Model) ExecutionContext() router.ExecutionContext {
	return m.ec
}

// SetDisplayMode switches between global and inline rendering.
func (m *Model) SetDisplayMode(d DisplayMode) {
	m.display = d
}

// DisplayMode returns the current display mode.
func (m *Model) DisplayMode() DisplayMode {
	return m.display
}

// IsOpen reports whether the palette is showing.
func (m *Model) IsOpen() bool {
	return m.open
}

// IsExecuting reports whether an execution is in flight.
func (m *Model) IsExecuting() bool {
	return m.executing
}

// Value returns the current input line.
func (m *Model) Value() string {
	return m.input.Value()
}

// Mode returns the mode of the current input.
func (m *Model) Mode() prefix.Mode {
	value := m.input.Value()
	if p, ok := prefix.Parse(value, firstTokenEnd(value)); ok {
		return p.Mode
	}
	return prefix.ModeNatural
}

// Items returns the current suggestions.
func (m *Model) Items() []commands.Completion {
	return m.items
}

// Selected returns the highlighted suggestion.
func (m *Model) Selected() (commands.Completion, bool) {
	if m.selected < 0 || m.selected >= len(m.items) {
		return commands.Completion{}, false
	}
	return m.items[m.selected], true
}

// Error returns the last failure shown in the palette.
func (m *Model) Error() string {
	return m.errMsg
}

// SetSize sets the dimensions for layout.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the palette.
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case refreshMsg:
		if !m.open || msg.seq != m.seq {
			return m, nil
		}
		return m, m.fetchSuggestions(msg.seq)

	case suggestionsMsg:
		if !m.open || msg.seq != m.seq {
			return m, nil
		}
		m.items = msg.items
		if m.selected >= len(m.items) {
			m.selected = 0
		}
		m.updatePreview()
		return m, nil

	case executedMsg:
		return m, m.handleExecuted(msg)
	}

	if !m.open {
		return m, nil
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			m.Close()
			return m, nil

		case "enter":
			return m, m.Execute(m.commandLine())

		case "up", "ctrl+p":
			if n := len(m.items); n > 0 {
				m.selected = (m.selected - 1 + n) % n
				m.updatePreview()
			}
			return m, nil

		case "down", "ctrl+n":
			if n := len(m.items); n > 0 {
				m.selected = (m.selected + 1) % n
				m.updatePreview()
			}
			return m, nil

		case "tab":
			if item, ok := m.Selected(); ok {
				m.input.SetValue(item.Value)
				m.input.CursorEnd()
				return m, m.scheduleRefresh()
			}
			return m, nil
		}
	}

	previous := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	if m.input.Value() != previous {
		m.errMsg = ""
		m.selected = 0
		return m, tea.Batch(cmd, m.scheduleRefresh())
	}
	return m, cmd
}

// =============================================================================
// INTERNAL METHODS
// =============================================================================

// scheduleRefresh starts a new debounce period. Earlier periods become stale.
func (m *Model) scheduleRefresh() tea.Cmd {
	m.seq++
	seq := m.seq
	return tea.Tick(m.debounce, func(time.Time) tea.Msg {
		return refreshMsg{seq: seq}
	})
}

func (m *Model) fetchSuggestions(seq uint64) tea.Cmd {
	if m.suggest == nil {
		return nil
	}
	ctx, suggest, value := m.ctx, m.suggest, m.input.Value()
	return func() tea.Msg {
		return suggestionsMsg{seq: seq, items: suggest.Complete(ctx, value)}
	}
}

func (m *Model) handleExecuted(msg executedMsg) tea.Cmd {
	m.executing = false

	if !msg.result.Success {
		if m.open {
			m.errMsg = msg.result.Error
		}
		return nil
	}

	if m.open {
		m.Close()
	}
	if m.onExecuted != nil {
		m.onExecuted(msg.input, msg.result)
	}
	out := ExecutedMsg{Input: msg.input, Result: msg.result}
	return func() tea.Msg { return out }
}

// commandLine is what Enter runs. In the modes that name catalog commands
// a lone partial name runs the highlighted command when the partial is a
// prefix of its name or an alias. Everything else runs as typed.
func (m *Model) commandLine() string {
	value := strings.TrimSpace(m.input.Value())
	if strings.ContainsAny(value, " \t") {
		return value
	}
	p, ok := prefix.Parse(value, len(value))
	if !ok || !completesCommandName(p.Mode) {
		return value
	}
	item, ok := m.Selected()
	if !ok || !namePrefix(item.Command, p.Query) {
		return value
	}
	return strings.TrimSpace(item.Value)
}

func completesCommandName(mode prefix.Mode) bool {
	switch mode {
	case prefix.ModeCommand, prefix.ModePower, prefix.ModeQuick:
		return true
	}
	return false
}

func namePrefix(cmd commands.Command, partial string) bool {
	partial = strings.ToLower(partial)
	if partial == "" || strings.HasPrefix(strings.ToLower(cmd.Name), partial) {
		return true
	}
	for _, alias := range cmd.Aliases {
		if strings.HasPrefix(strings.ToLower(alias), partial) {
			return true
		}
	}
	return false
}

// updatePreview renders help for the help mode or the selected command.
// Only the global palette has room for it.
func (m *Model) updatePreview() {
	source := ""
	if m.display == Global {
		if item, ok := m.Selected(); ok {
			source = router.CommandHelp(item.Command)
		} else if m.Mode() == prefix.ModeHelp {
			source = router.HelpText()
		}
	}

	if source == m.previewSource {
		return
	}
	m.previewSource = source
	m.preview = m.renderMarkdown(source)
}

func (m *Model) renderMarkdown(source string) string {
	if source == "" {
		return ""
	}

	width := m.boxWidth() - 6
	if m.renderer == nil || m.rendererWidth != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(m.theme.GlamourStyle()),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return source
		}
		m.renderer, m.rendererWidth = r, width
	}

	out, err := m.renderer.Render(source)
	if err != nil {
		return source
	}
	return strings.TrimRight(out, "\n")
}

// firstTokenEnd returns the byte offset where the first word ends.
func firstTokenEnd(s string) int {
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return i
	}
	return len(s)
}
