// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"sync"
	"time"
)

// DefaultCapacity is the number of entries kept in memory.
const DefaultCapacity = 50

// Entry is the telemetry record for one routed command.
type Entry struct {
	ID        string        `json:"id"`
	CommandID string        `json:"commandId"`
	Prefix    string        `json:"prefix"`
	Query     string        `json:"query"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// =============================================================================
// RING BUFFER
// =============================================================================

// Ring is a fixed-capacity FIFO buffer. Pushing past capacity evicts the
// oldest entry.
type Ring struct {
	mu    sync.Mutex
	buf   []Entry
	start int
	size  int
}

// NewRing creates a ring holding at most capacity entries.
// A non-positive capacity uses DefaultCapacity.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{buf: make([]Entry, capacity)}
}

// Push appends e, evicting the oldest entry when full.
func (r *Ring) Push(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = e
		r.size++
		return
	}
	r.buf[r.start] = e
	r.start = (r.start + 1) % len(r.buf)
}

// Snapshot returns the entries oldest first. The slice is a copy.
func (r *Ring) Snapshot() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Entry, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}

// Len returns the number of entries held.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Cap returns the ring capacity.
func (r *Ring) Cap() int {
	return len(r.buf)
}
