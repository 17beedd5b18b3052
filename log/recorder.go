package log

import (
	"context"
	"log/slog"
	"sync"
)

// Recorder is a slog.Handler that keeps records in memory.
// Handlers derived through WithAttrs or WithGroup share the same record list.
type Recorder struct {
	store *recordStore
	attrs []slog.Attr
	level slog.Level
}

type recordStore struct {
	records []slog.Record
	mu      sync.Mutex
}

// NewRecorder returns a Recorder capturing records at level and above.
func NewRecorder(level slog.Level) *Recorder {
	return &Recorder{store: &recordStore{}, level: level}
}

// Enabled implements slog.Handler.
func (r *Recorder) Enabled(_ context.Context, level slog.Level) bool {
	return level >= r.level
}

// Handle implements slog.Handler.
func (r *Recorder) Handle(_ context.Context, record slog.Record) error {
	rec := record.Clone()
	rec.AddAttrs(r.attrs...)
	r.store.mu.Lock()
	r.store.records = append(r.store.records, rec)
	r.store.mu.Unlock()
	return nil
}

// WithAttrs implements slog.Handler.
func (r *Recorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *r
	clone.attrs = append(append([]slog.Attr(nil), r.attrs...), attrs...)
	return &clone
}

// WithGroup implements slog.Handler. Groups are flattened.
func (r *Recorder) WithGroup(string) slog.Handler {
	clone := *r
	return &clone
}

// Records returns a copy of the captured records.
func (r *Recorder) Records() []slog.Record {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]slog.Record, len(r.store.records))
	copy(out, r.store.records)
	return out
}

// Count returns how many records at exactly level carry msg.
func (r *Recorder) Count(level slog.Level, msg string) int {
	n := 0
	for _, rec := range r.Records() {
		if rec.Level == level && rec.Message == msg {
			n++
		}
	}
	return n
}

// Reset drops every captured record.
func (r *Recorder) Reset() {
	r.store.mu.Lock()
	r.store.records = nil
	r.store.mu.Unlock()
}
