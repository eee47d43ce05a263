package logging

import "sync"

// DefaultBufferSize is the number of records kept for the TUI.
const DefaultBufferSize = 200

// LogBuffer is a fixed-capacity ring of recent records.
type LogBuffer struct {
	mu   sync.RWMutex
	ring []LogEntry
	next int
	full bool
}

// NewLogBuffer returns a buffer holding up to size records. A non-positive
// size selects DefaultBufferSize.
func NewLogBuffer(size int) *LogBuffer {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &LogBuffer{ring: make([]LogEntry, size)}
}

// Add appends entry, overwriting the oldest record when full.
func (b *LogBuffer) Add(entry LogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.ring[b.next] = entry
	b.next = (b.next + 1) % len(b.ring)
	if b.next == 0 {
		b.full = true
	}
}

// Len reports how many records are held.
func (b *LogBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.len()
}

func (b *LogBuffer) len() int {
	if b.full {
		return len(b.ring)
	}
	return b.next
}

// Entries returns a copy of every record, oldest first.
func (b *LogBuffer) Entries() []LogEntry {
	return b.Last(-1)
}

// Last returns a copy of the newest n records, oldest first. A negative n
// or one larger than Len returns everything.
func (b *LogBuffer) Last(n int) []LogEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := b.len()
	if n < 0 || n > count {
		n = count
	}
	out := make([]LogEntry, n)
	first := b.next - n
	if first < 0 {
		first += len(b.ring)
	}
	for i := range out {
		out[i] = b.ring[(first+i)%len(b.ring)]
	}
	return out
}

// Clear drops every record.
func (b *LogBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next = 0
	b.full = false
}
