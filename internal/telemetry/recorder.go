// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"context"
	"io"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// DefaultSendTimeout bounds one detached sink delivery.
const DefaultSendTimeout = 5 * time.Second

// =============================================================================
// SINKS
// =============================================================================

// Sink receives recorded entries.
type Sink interface {
	SendTelemetry(ctx context.Context, e Entry) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, e Entry) error

// SendTelemetry implements Sink.
func (f SinkFunc) SendTelemetry(ctx context.Context, e Entry) error {
	return f(ctx, e)
}

// =============================================================================
// RECORDER
// =============================================================================

// Recorder appends entries to a Ring and forwards them to sinks as
// detached tasks.
type Recorder struct {
	ring    *Ring
	sinks   []Sink
	logger  *log.Logger
	timeout time.Duration
	now     func() time.Time

	idMu    sync.Mutex
	entropy io.Reader

	wg sync.WaitGroup
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithSinks adds delivery targets.
func WithSinks(sinks ...Sink) RecorderOption {
	return func(r *Recorder) {
		for _, s := range sinks {
			if s != nil {
				r.sinks = append(r.sinks, s)
			}
		}
	}
}

// WithLogger sets the logger used for sink failures.
func WithLogger(logger *log.Logger) RecorderOption {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithSendTimeout bounds each sink delivery.
func WithSendTimeout(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithClock overrides the time source used for entry ids and timestamps.
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRecorder creates a recorder with a ring of the given capacity.
func NewRecorder(capacity int, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		ring:    NewRing(capacity),
		logger:  log.Default(),
		timeout: DefaultSendTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.entropy = ulid.Monotonic(rand.New(rand.NewSource(r.now().UnixNano())), 0)
	return r
}

// Record stores e and starts detached delivery to every sink. Missing ids
// and timestamps are filled in. The stored entry is returned.
func (r *Recorder) Record(e Entry) Entry {
	if e.Timestamp.IsZero() {
		e.Timestamp = r.now()
	}
	if e.ID == "" {
		e.ID = r.newID(e.Timestamp)
	}

	r.ring.Push(e)

	for _, sink := range r.sinks {
		r.wg.Add(1)
		go r.send(sink, e)
	}
	return e
}

func (r *Recorder) send(sink Sink, e Entry) {
	defer r.wg.Done()
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Printf("TELEMETRY_SINK_PANIC | command=%s panic=%v", e.CommandID, rec)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := sink.SendTelemetry(ctx, e); err != nil {
		r.logger.Printf("TELEMETRY_SINK_FAILED | command=%s id=%s error=%v", e.CommandID, e.ID, err)
	}
}

// newID returns a ULID for ts. Timestamps a ULID cannot encode (before the
// epoch or past year 10889) get an id for the current time instead.
func (r *Recorder) newID(ts time.Time) string {
	r.idMu.Lock()
	defer r.idMu.Unlock()
	id, err := ulid.New(ulid.Timestamp(ts), r.entropy)
	if err != nil {
		r.logger.Printf("TELEMETRY_ID_FALLBACK | timestamp=%s error=%v", ts.Format(time.RFC3339), err)
		return ulid.Make().String()
	}
	return id.String()
}

// Recent returns the buffered entries, oldest first.
func (r *Recorder) Recent() []Entry {
	return r.ring.Snapshot()
}

// Capacity returns the ring capacity.
func (r *Recorder) Capacity() int {
	return r.ring.Cap()
}

// Flush waits for every detached sink delivery started so far.
func (r *Recorder) Flush() {
	r.wg.Wait()
}
