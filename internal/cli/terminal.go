// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"io"
	"os"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TERMINAL DETECTION
// =============================================================================

// Fallback layout when the output is not a terminal.
const (
	fallbackWidth  = 80
	fallbackHeight = 24
	minWidth       = 40
)

// terminalFd returns the descriptor behind s when s is a terminal.
func terminalFd(s any) (int, bool) {
	f, ok := s.(*os.File)
	if !ok || f == nil {
		return 0, false
	}
	fd := int(f.Fd())
	return fd, term.IsTerminal(fd)
}

// interactive reports whether both streams are terminals. The TUI and the
// liner prompt need a real terminal on each side; anything else gets the
// plain line loop.
func interactive(in io.Reader, out io.Writer) bool {
	_, inTTY := terminalFd(in)
	_, outTTY := terminalFd(out)
	return inTTY && outTTY
}

// terminalSize returns the size of out, or the fallback layout.
func terminalSize(out io.Writer) (width, height int) {
	fd, ok := terminalFd(out)
	if !ok {
		return fallbackWidth, fallbackHeight
	}
	w, h, err := term.GetSize(fd)
	if err != nil || w <= 0 || h <= 0 {
		return fallbackWidth, fallbackHeight
	}
	return max(w, minWidth), h
}

// =============================================================================
// COLOR
// =============================================================================

var (
	profile     termenv.Profile
	profileOnce sync.Once
)

// colorProfile picks the lipgloss profile for command output. NO_COLOR wins,
// then FORCE_COLOR; otherwise colors follow whether stdout is a terminal.
func colorProfile() termenv.Profile {
	profileOnce.Do(func() {
		switch {
		case os.Getenv("NO_COLOR") != "":
			profile = termenv.Ascii
		case os.Getenv("FORCE_COLOR") != "":
			profile = termenv.ColorProfile()
			if profile == termenv.Ascii {
				profile = termenv.ANSI256
			}
		default:
			if _, ok := terminalFd(os.Stdout); ok {
				profile = termenv.ColorProfile()
			} else {
				profile = termenv.Ascii
			}
		}
	})
	return profile
}
