package trace

import (
	"io"
	"sync"
)

// RingTracer keeps the last N events in memory (circular buffer). With a
// dump writer set it acts as a flight recorder: the buffer is written out on
// Close when a failure was recorded.
type RingTracer struct {
	mu       sync.RWMutex
	events   []Event
	capacity int
	head     int  // next write position
	full     bool // has wrapped around
	level    Level

	failed bool
	dump   io.Writer
	format Format
	owned  bool
}

// NewRingTracer creates a new RingTracer with specified capacity.
func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = 4096
	}

	return &RingTracer{
		events:   make([]Event, capacity),
		capacity: capacity,
		level:    level,
	}
}

// DumpOnFailure makes Close write the buffered events to w when a failure
// event was recorded.
func (t *RingTracer) DumpOnFailure(w io.Writer, format Format) {
	t.mu.Lock()
	t.dump = w
	t.format = format
	t.mu.Unlock()
}

// Emit adds an event to the ring buffer.
func (t *RingTracer) Emit(ev *Event) {
	if !t.level.Accepts(ev) {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	stored := *ev
	stored.Seq = NextSeq()
	t.events[t.head] = stored
	t.head = (t.head + 1) % t.capacity
	if ev.Kind == KindFailure {
		t.failed = true
	}

	if t.head == 0 {
		t.full = true
	}
}

// Failed reports whether a failure event has been recorded.
func (t *RingTracer) Failed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.failed
}

// Snapshot returns a copy of all stored events in chronological order.
func (t *RingTracer) Snapshot() []Event {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.full {
		result := make([]Event, t.head)
		copy(result, t.events[:t.head])
		return result
	}

	result := make([]Event, t.capacity)
	copy(result, t.events[t.head:])
	copy(result[t.capacity-t.head:], t.events[:t.head])
	return result
}

// Dump writes all events to the provided writer in the specified format.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	events := t.Snapshot()

	if format == FormatChrome {
		if _, err := io.WriteString(w, "{\"traceEvents\":[\n"); err != nil {
			return err
		}
	}
	for i := range events {
		if format == FormatChrome && i > 0 {
			if _, err := io.WriteString(w, ",\n"); err != nil {
				return err
			}
		}
		if _, err := w.Write(FormatEvent(&events[i], format)); err != nil {
			return err
		}
	}
	if format == FormatChrome {
		if _, err := io.WriteString(w, "\n]}\n"); err != nil {
			return err
		}
	}
	return nil
}

// Flush is a no-op for RingTracer since everything is in memory.
func (t *RingTracer) Flush() error {
	return nil
}

// Close dumps the buffer when DumpOnFailure is set and a failure was seen.
func (t *RingTracer) Close() error {
	t.mu.RLock()
	w, format, failed, owned := t.dump, t.format, t.failed, t.owned
	t.mu.RUnlock()
	if w == nil {
		return nil
	}
	var err error
	if failed {
		err = t.Dump(w, format)
	}
	if closer, ok := w.(io.Closer); ok && owned {
		if cerr := closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Level returns the current tracing level.
func (t *RingTracer) Level() Level {
	return t.level
}

// Enabled returns true if tracing is active.
func (t *RingTracer) Enabled() bool {
	return t.level > LevelOff
}
