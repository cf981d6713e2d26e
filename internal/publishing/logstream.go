package publishing

import (
	"fmt"
	"sync"
)

const defaultLogCapacity = 10

// LogStream is a bounded, append-only ring of human-readable progress
// lines. Appends are O(1); once full, the oldest line is evicted first.
type LogStream struct {
	mu      sync.Mutex
	entries []string
	start   int
	count   int
}

// NewLogStream creates a stream holding at most capacity lines. A
// non-positive capacity falls back to the default of 10.
func NewLogStream(capacity int) *LogStream {
	if capacity <= 0 {
		capacity = defaultLogCapacity
	}
	return &LogStream{entries: make([]string, capacity)}
}

// Append adds a formatted line, evicting the oldest one when full.
func (l *LogStream) Append(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := (l.start + l.count) % len(l.entries)
	l.entries[idx] = fmt.Sprintf(format, args...)
	if l.count < len(l.entries) {
		l.count++
		return
	}
	l.start = (l.start + 1) % len(l.entries)
}

// Lines returns the retained lines, oldest first.
func (l *LogStream) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, 0, l.count)
	for i := 0; i < l.count; i++ {
		out = append(out, l.entries[(l.start+i)%len(l.entries)])
	}
	return out
}

func (l *LogStream) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

func (l *LogStream) Cap() int {
	return len(l.entries)
}
