package trace

import (
	"io"
	"sync"
)

// RingTracer keeps the newest events in a fixed-size buffer.
type RingTracer struct {
	level Level

	mu     sync.Mutex
	buf    []Event
	copied uint64 // total events ever stored
}

// NewRingTracer keeps up to capacity events; a non-positive capacity uses
// the default size.
func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = defaultRingSize
	}
	return &RingTracer{level: level, buf: make([]Event, capacity)}
}

func (t *RingTracer) Emit(ev *Event) {
	if !admits(t.level, ev) {
		return
	}
	t.mu.Lock()
	t.buf[t.copied%uint64(len(t.buf))] = *ev
	t.copied++
	t.mu.Unlock()
}

// Snapshot returns the stored events, oldest first.
func (t *RingTracer) Snapshot() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	size := uint64(len(t.buf))
	n := min(t.copied, size)
	out := make([]Event, 0, n)
	for i := t.copied - n; i < t.copied; i++ {
		out = append(out, t.buf[i%size])
	}
	return out
}

// Dump writes the stored events to w, oldest first.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	for _, ev := range t.Snapshot() {
		if _, err := w.Write(FormatEvent(&ev, format)); err != nil {
			return err
		}
	}
	return nil
}

func (t *RingTracer) Flush() error  { return nil }
func (t *RingTracer) Close() error  { return nil }
func (t *RingTracer) Level() Level  { return t.level }
func (t *RingTracer) Enabled() bool { return t.level > LevelOff }
