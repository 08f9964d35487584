// Package progress delivers run signals to whoever is watching: a structured
// logger, a test recorder, or nothing at all. Delivery is fire-and-forget;
// sinks never block the engine and never return errors.
package progress

import (
	"sort"
	"sync"

	"github.com/felixgeelhaar/migratory/internal/log"
)

// Sink receives signals from a migration run.
type Sink interface {
	// Emit reports an intermediate signal.
	Emit(jobID, message string, payload map[string]any)

	// Complete reports a finished run.
	Complete(jobID string, payload map[string]any)

	// Error reports a failed run.
	Error(jobID string, err error)
}

// Noop discards every signal.
type Noop struct{}

func (Noop) Emit(string, string, map[string]any) {}
func (Noop) Complete(string, map[string]any)     {}
func (Noop) Error(string, error)                 {}

// LogSink forwards signals to a structured logger.
type LogSink struct {
	logger *log.Logger
}

// NewLogSink wraps a logger as a Sink. A nil logger falls back to the
// process default.
func NewLogSink(logger *log.Logger) *LogSink {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(jobID, message string, payload map[string]any) {
	s.logger.Info("migration progress", signalArgs(jobID, message, payload)...)
}

func (s *LogSink) Complete(jobID string, payload map[string]any) {
	s.logger.Info("migration complete", signalArgs(jobID, "", payload)...)
}

func (s *LogSink) Error(jobID string, err error) {
	s.logger.WithError(err).Error("migration failed", "job_id", jobID)
}

// signalArgs flattens a payload into sorted key-value log args
func signalArgs(jobID, message string, payload map[string]any) []any {
	args := []any{"job_id", jobID}
	if message != "" {
		args = append(args, "message", message)
	}

	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		args = append(args, key, payload[key])
	}
	return args
}

// Event kinds recorded by Memory
const (
	KindEmit     = "emit"
	KindComplete = "complete"
	KindError    = "error"
)

// Event is one recorded signal.
type Event struct {
	Kind    string
	JobID   string
	Message string
	Payload map[string]any
	Err     error
}

// Memory records signals for test assertions. Safe for concurrent use.
type Memory struct {
	mu     sync.Mutex
	events []Event
}

func (m *Memory) Emit(jobID, message string, payload map[string]any) {
	m.record(Event{Kind: KindEmit, JobID: jobID, Message: message, Payload: payload})
}

func (m *Memory) Complete(jobID string, payload map[string]any) {
	m.record(Event{Kind: KindComplete, JobID: jobID, Payload: payload})
}

func (m *Memory) Error(jobID string, err error) {
	m.record(Event{Kind: KindError, JobID: jobID, Err: err})
}

func (m *Memory) record(e Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
}

// Events returns a copy of everything recorded, in order.
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	events := make([]Event, len(m.events))
	copy(events, m.events)
	return events
}

// ByKind returns the recorded events of one kind, in order.
func (m *Memory) ByKind(kind string) []Event {
	var filtered []Event
	for _, e := range m.Events() {
		if e.Kind == kind {
			filtered = append(filtered, e)
		}
	}
	return filtered
}
