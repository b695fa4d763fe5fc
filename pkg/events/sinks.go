package events

import (
	"encoding/json"
	"io"
	"os"
	"sync"
)

// JSONSink writes one JSON line per event to a configurable Writer.
type JSONSink struct {
	mu     sync.Mutex
	writer io.Writer
}

// NewJSONSink creates a sink writing to os.Stdout.
func NewJSONSink() *JSONSink {
	return NewJSONSinkWithWriter(os.Stdout)
}

// NewJSONSinkWithWriter creates a sink writing to w. This allows injection
// for testing and custom destinations.
func NewJSONSinkWithWriter(w io.Writer) *JSONSink {
	if w == nil {
		w = os.Stdout
	}
	return &JSONSink{writer: w}
}

func (s *JSONSink) Emit(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	enc := json.NewEncoder(s.writer)
	_ = enc.Encode(ev)
}

// MemorySink retains events in order for inspection in tests.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Emit(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

// Events returns a copy of everything emitted so far.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// OfType returns emitted events matching typ, in order.
func (s *MemorySink) OfType(typ Type) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, ev := range s.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

// Fanout forwards each event to every sink in order.
type Fanout []Sink

func (f Fanout) Emit(ev Event) {
	for _, s := range f {
		s.Emit(ev)
	}
}
