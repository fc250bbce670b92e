// Package events delivers experiment analytics events to pluggable sinks.
//
// Emission is fire-and-forget: sinks log and count their own failures and
// never return errors or panic into callers.
package events

import (
	"context"
	"log/slog"
	"maps"
	"sync"

	"github.com/rafaeljc/bifrost/internal/observability"
)

// Sink receives named analytics events.
type Sink interface {
	Emit(ctx context.Context, name string, params map[string]any)
}

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc func(ctx context.Context, name string, params map[string]any)

// Emit calls f.
func (f SinkFunc) Emit(ctx context.Context, name string, params map[string]any) {
	f(ctx, name, params)
}

// LogSink writes every event as a structured log record.
type LogSink struct {
	logger *slog.Logger
}

var _ Sink = (*LogSink)(nil)

// NewLogSink creates a sink that logs events at INFO level.
// If logger is nil, it defaults to slog.Default().
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger.With("component", "event_sink")}
}

// Emit logs the event.
func (s *LogSink) Emit(ctx context.Context, name string, params map[string]any) {
	s.logger.InfoContext(ctx, "event emitted",
		slog.String("event", name),
		slog.Any("params", params),
	)
}

// Fanout forwards each event to every wrapped sink.
// A panicking sink is recovered and counted so the remaining sinks still run.
type Fanout struct {
	sinks  []Sink
	logger *slog.Logger
}

var _ Sink = (*Fanout)(nil)

// NewFanout builds a fanout over the non-nil sinks.
func NewFanout(logger *slog.Logger, sinks ...Sink) *Fanout {
	if logger == nil {
		logger = slog.Default()
	}
	normalized := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s == nil {
			continue
		}
		normalized = append(normalized, s)
	}
	return &Fanout{sinks: normalized, logger: logger}
}

// Emit delivers the event to all sinks in registration order.
// Each sink receives its own copy of params.
func (f *Fanout) Emit(ctx context.Context, name string, params map[string]any) {
	for _, s := range f.sinks {
		safeEmit(ctx, f.logger, s, name, maps.Clone(params))
	}
}

// Len returns the number of wrapped sinks.
func (f *Fanout) Len() int {
	return len(f.sinks)
}

func safeEmit(ctx context.Context, logger *slog.Logger, s Sink, name string, params map[string]any) {
	defer func() {
		if r := recover(); r != nil {
			observability.SinkFailures.WithLabelValues("panic").Inc()
			logger.Error("event sink panicked",
				slog.String("event", name),
				slog.Any("panic", r),
			)
		}
	}()
	s.Emit(ctx, name, params)
}

// Event is a captured emission.
type Event struct {
	Name   string
	Params map[string]any
}

// Recorder keeps emitted events in memory. Used by tests and the CLI.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

var _ Sink = (*Recorder)(nil)

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Emit appends the event.
func (r *Recorder) Emit(_ context.Context, name string, params map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Name: name, Params: maps.Clone(params)})
}

// Events returns a snapshot of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Named returns the recorded events with the given name.
func (r *Recorder) Named(name string) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}
