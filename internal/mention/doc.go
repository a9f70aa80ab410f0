// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package mention provides the @ mention system for the composer.
//
// A mention is detected from the text and cursor, completed through a
// Searcher, and inserted into the text as a placeholder token "[[id]]"
// backed by an immutable Pill. The Composer keeps text and pills in step so
// every placeholder has a pill and every pill has a placeholder.
//
// # Key Types
//
//   - Context: The @-span under the cursor, with an optional type filter
//   - Candidate: A search result that can become a Pill
//   - Pill: Resolved mention, joined to the text by its id
//   - Composer: Text, cursor, pills and the suggestion surface
//   - Autocomplete: Debounced search feeding the Composer
//
// # Mention Syntax
//
//   - @alice: Any entity matching "alice"
//   - @user:alice: Only users
//   - @agent:, @workspace:, @document: Other type filters
package mention
