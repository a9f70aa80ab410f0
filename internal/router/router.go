// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/jeranaias/syna-omnibox/internal/commands"
	"github.com/jeranaias/syna-omnibox/internal/prefix"
	"github.com/jeranaias/syna-omnibox/internal/telemetry"
)

// handlerFunc handles one prefix mode. Expected failures are returned as a
// Result; a returned error is treated as an unexpected failure.
type handlerFunc func(ctx context.Context, p prefix.Parsed, ec ExecutionContext) (Result, error)

// Router dispatches parsed prefixes to mode handlers.
type Router struct {
	registry *commands.Registry
	services Services
	recorder *telemetry.Recorder
	logger   *log.Logger
	now      func() time.Time
	handlers map[prefix.Mode]handlerFunc
}

// Option configures a Router.
type Option func(*Router)

// WithRecorder sets where telemetry entries go.
func WithRecorder(rec *telemetry.Recorder) Option {
	return func(r *Router) {
		r.recorder = rec
	}
}

// WithLogger sets the router logger.
func WithLogger(logger *log.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock overrides the time source used for durations.
func WithClock(now func() time.Time) Option {
	return func(r *Router) {
		if now != nil {
			r.now = now
		}
	}
}

// New creates a router over registry and services.
func New(registry *commands.Registry, services Services, opts ...Option) *Router {
	if registry == nil {
		registry = commands.NewRegistry(nil)
	}
	r := &Router{
		registry: registry,
		services: services,
		logger:   log.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.handlers = map[prefix.Mode]handlerFunc{
		prefix.ModeCommand:   r.handleCommand,
		prefix.ModeSearch:    r.handleSearch,
		prefix.ModePower:     r.handlePower,
		prefix.ModeHelp:      r.handleHelp,
		prefix.ModeQuick:     r.handleQuick,
		prefix.ModeWorkspace: r.handleWorkspace,
		prefix.ModeDocument:  r.handleDocument,
	}
	return r
}

// Registry returns the command registry the router resolves against.
func (r *Router) Registry() *commands.Registry {
	return r.registry
}

// ============================================================================
// ROUTING
// ============================================================================

// Route executes p and returns the outcome. It never panics; handler errors
// and panics become failed Results. Exactly one telemetry entry is recorded.
func (r *Router) Route(ctx context.Context, p prefix.Parsed, ec ExecutionContext) Result {
	start := r.now()
	result, commandID := r.dispatch(ctx, p, ec)
	duration := r.now().Sub(start)

	r.logger.Printf("ROUTE | command=%s success=%t code=%s took=%s",
		commandID, result.Success, result.Code, duration.Round(time.Millisecond))

	r.record(telemetry.Entry{
		CommandID: commandID,
		Prefix:    p.Trigger,
		Query:     p.Query,
		Timestamp: start,
		Duration:  duration,
		Success:   result.Success,
		Error:     result.Error,
	})
	return result
}

// record hands e to the recorder. A failing recorder never fails the route.
func (r *Router) record(e telemetry.Entry) {
	if r.recorder == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Printf("TELEMETRY_RECORD_PANIC | command=%s panic=%v", e.CommandID, rec)
		}
	}()
	r.recorder.Record(e)
}

// Execute routes a full input line such as "/switch design team". The
// prefix must open the line and everything after the trigger is the query.
// Input with no recognized prefix is routed as natural language.
func (r *Router) Execute(ctx context.Context, raw string, ec ExecutionContext) Result {
	line := strings.TrimSpace(raw)
	first, _ := commands.SplitFirst(line)
	p, ok := prefix.Parse(first, len(first))
	if !ok {
		return r.Route(ctx, prefix.Parsed{Mode: prefix.ModeNatural, Query: line, End: len(line)}, ec)
	}
	p.Query = line[len(p.Trigger):]
	p.End = len(line)
	return r.Route(ctx, p, ec)
}

// dispatch runs the handler for p.Mode and reports the telemetry command id.
func (r *Router) dispatch(ctx context.Context, p prefix.Parsed, ec ExecutionContext) (res Result, commandID string) {
	word, _ := commands.SplitFirst(p.Query)
	commandID = p.Mode.String() + ":" + strings.ToLower(word)

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Printf("ROUTE_PANIC | mode=%s query=%q panic=%v", p.Mode, truncateForLog(p.Query, 80), rec)
			res = failure(CodeBackend, "%s failed unexpectedly", prefix.Label(p.Mode))
			commandID = p.Mode.String() + ":error"
		}
	}()

	h, ok := r.handlers[p.Mode]
	if !ok {
		switch p.Mode {
		case prefix.ModeMention:
			return failure(CodeInvalidInput, "Mentions are completed in the composer"), commandID
		default:
			return failure(CodeInvalidInput, "Not a command: type / to see what you can run"), commandID
		}
	}

	res, err := h(ctx, p, ec)
	if err != nil {
		r.logger.Printf("ROUTE_ERROR | mode=%s query=%q error=%v", p.Mode, truncateForLog(p.Query, 80), err)
		return failure(CodeBackend, "%s failed: %v", prefix.Label(p.Mode), err), p.Mode.String() + ":error"
	}
	return res, commandID
}

// truncateForLog truncates a string to maxLen characters for logging purposes.
func truncateForLog(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// notAvailable is the failure for a nil service.
func notAvailable(what string) Result {
	return failure(CodeNotImplemented, "%s is not available in this session", what)
}
