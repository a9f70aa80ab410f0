// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the omnibox packages.
//
// # Key Functions
//
// Text:
//   - RuneOffsetToByte, ByteOffsetToRune: convert cursor positions between
//     the rune positions reported by text inputs and the byte offsets used by
//     the prefix parser
//   - TruncateWidth: display-width aware truncation for palette rows
//
// Timing:
//   - Debouncer: cancellable-timer discipline for search-as-you-type
//
// Files:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	pos := util.RuneOffsetToByte(input.Value(), input.Position())
//	parsed, ok := prefix.Parse(input.Value(), pos)
//
//	d := util.NewDebouncer(150 * time.Millisecond)
//	d.Trigger(func() { search(query) })
package util
