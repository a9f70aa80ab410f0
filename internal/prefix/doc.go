// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package prefix recognizes the input prefix grammar of the composer.
//
// A prefix is a trigger at the start of the word under the cursor that
// switches how the rest of the word is interpreted:
//
//	/    command     //   search     >    power
//	?    help        !    quick      #    workspace
//	^    document    @    mention
//
// Input without a trigger is natural language and produces no match.
//
// # Usage
//
//	p, ok := prefix.Parse(text, cursor)
//	if ok && prefix.ShouldOpenOmnibox(p.Mode) {
//	    // open the command palette for p.Mode with p.Query
//	}
//
// All functions are pure and total: they never panic and return the same
// result for the same input.
package prefix
