// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package prefix

import "strings"

// =============================================================================
// MODES
// =============================================================================

// Mode is the interpretation mode selected by a trigger.
type Mode int

const (
	ModeNatural   Mode = iota // no trigger
	ModeCommand               // /
	ModeSearch                // //
	ModePower                 // >
	ModeHelp                  // ?
	ModeQuick                 // !
	ModeWorkspace             // #
	ModeDocument              // ^
	ModeMention               // @
)

var modeNames = [...]string{
	ModeNatural:   "natural",
	ModeCommand:   "command",
	ModeSearch:    "search",
	ModePower:     "power",
	ModeHelp:      "help",
	ModeQuick:     "quick",
	ModeWorkspace: "workspace",
	ModeDocument:  "document",
	ModeMention:   "mention",
}

var modeTriggers = [...]string{
	ModeNatural:   "",
	ModeCommand:   "/",
	ModeSearch:    "//",
	ModePower:     ">",
	ModeHelp:      "?",
	ModeQuick:     "!",
	ModeWorkspace: "#",
	ModeDocument:  "^",
	ModeMention:   "@",
}

// String returns the lower-case mode name.
func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return "unknown"
	}
	return modeNames[m]
}

// Trigger returns the literal trigger for the mode ("" for natural).
func (m Mode) Trigger() string {
	if m < 0 || int(m) >= len(modeTriggers) {
		return ""
	}
	return modeTriggers[m]
}

// Modes returns every mode in declaration order.
func Modes() []Mode {
	return []Mode{
		ModeNatural, ModeCommand, ModeSearch, ModePower, ModeHelp,
		ModeQuick, ModeWorkspace, ModeDocument, ModeMention,
	}
}

// ParseMode maps a mode name back to its Mode.
func ParseMode(name string) (Mode, bool) {
	for _, m := range Modes() {
		if m.String() == name {
			return m, true
		}
	}
	return ModeNatural, false
}

// ModeForTrigger maps a trigger string to its mode.
func ModeForTrigger(trigger string) (Mode, bool) {
	if trigger == "" {
		return ModeNatural, false
	}
	for _, m := range Modes() {
		if m.Trigger() == trigger {
			return m, true
		}
	}
	return ModeNatural, false
}

// singleTriggers maps the one-character triggers checked after "//".
var singleTriggers = map[byte]Mode{
	'/': ModeCommand,
	'>': ModePower,
	'?': ModeHelp,
	'!': ModeQuick,
	'#': ModeWorkspace,
	'^': ModeDocument,
	'@': ModeMention,
}

// Triggers returns every non-empty trigger, longest first.
func Triggers() []string {
	return []string{"//", "/", ">", "?", "!", "#", "^", "@"}
}

// =============================================================================
// PARSING
// =============================================================================

// Parsed is the prefix token under the cursor. Start and End are half-open
// byte offsets into the source text and exclude the separating space.
type Parsed struct {
	Mode    Mode
	Trigger string
	Query   string
	Start   int
	End     int
}

// Parse returns the prefix token ending at cursor, if any. Cursor positions
// past the end of text are clamped. Natural-language input yields ok=false.
func Parse(text string, cursor int) (Parsed, bool) {
	if text == "" || cursor < 0 {
		return Parsed{}, false
	}
	if cursor > len(text) {
		cursor = len(text)
	}

	toCursor := text[:cursor]
	start := strings.LastIndexByte(toCursor, ' ') + 1

	// Only at a word boundary
	if start > 0 && toCursor[start-1] != ' ' {
		return Parsed{}, false
	}

	token := toCursor[start:]
	if token == "" {
		return Parsed{}, false
	}

	// "//" must win over "/"
	if strings.HasPrefix(token, "//") {
		return Parsed{
			Mode:    ModeSearch,
			Trigger: "//",
			Query:   token[2:],
			Start:   start,
			End:     cursor,
		}, true
	}

	mode, ok := singleTriggers[token[0]]
	if !ok {
		return Parsed{}, false
	}
	return Parsed{
		Mode:    mode,
		Trigger: token[:1],
		Query:   token[1:],
		Start:   start,
		End:     cursor,
	}, true
}

// ReplacePrefixWith splices replacement into text over the span of p.
// Spans outside text are clamped.
func ReplacePrefixWith(text string, p Parsed, replacement string) string {
	start, end := p.Start, p.End
	if start < 0 {
		start = 0
	}
	if end > len(text) {
		end = len(text)
	}
	if start > end {
		start = end
	}
	return text[:start] + replacement + text[end:]
}

// ShouldOpenOmnibox reports whether the mode is served by the command
// palette. Natural input and mentions are not; mentions use autocomplete.
func ShouldOpenOmnibox(m Mode) bool {
	switch m {
	case ModeCommand, ModeSearch, ModePower, ModeHelp, ModeQuick, ModeWorkspace, ModeDocument:
		return true
	default:
		return false
	}
}
