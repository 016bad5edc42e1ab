package logging

import (
	"sync"
	"time"
)

// LogEntry represents a single log line stored in the ring buffer.
type LogEntry struct {
	Seq        uint64         `json:"seq"`
	Timestamp  time.Time      `json:"timestamp"`
	Level      string         `json:"level"`
	Module     string         `json:"module"`
	Message    string         `json:"message"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// RingBuffer keeps the most recent log entries, indexed by sequence
// number. Sequence numbers start at 1 and never repeat, so readers can ask
// for everything after the last entry they saw.
type RingBuffer struct {
	mu    sync.RWMutex
	slots []LogEntry
	last  uint64
}

// NewRingBuffer creates a buffer holding up to size entries.
func NewRingBuffer(size int) *RingBuffer {
	if size < 1 {
		size = 1
	}
	return &RingBuffer{slots: make([]LogEntry, size)}
}

// Write stamps entry with the next sequence number and stores it in place
// of the oldest entry once the buffer is full. The stamped entry is returned.
func (rb *RingBuffer) Write(entry LogEntry) LogEntry {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.last++
	entry.Seq = rb.last
	rb.slots[rb.slot(rb.last)] = entry
	return entry
}

// Since returns the retained entries with a sequence number greater than
// after, oldest first. Entries already overwritten are skipped.
func (rb *RingBuffer) Since(after uint64) []LogEntry {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	first := rb.oldest()
	if after >= first {
		first = after + 1
	}
	if first > rb.last {
		return nil
	}

	out := make([]LogEntry, 0, rb.last-first+1)
	for seq := first; seq <= rb.last; seq++ {
		out = append(out, rb.slots[rb.slot(seq)])
	}
	return out
}

// ReadAll returns every retained entry, oldest first.
func (rb *RingBuffer) ReadAll() []LogEntry {
	return rb.Since(0)
}

// Count returns the number of retained entries.
func (rb *RingBuffer) Count() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	if rb.last == 0 {
		return 0
	}
	return int(rb.last - rb.oldest() + 1)
}

// LastSeq returns the sequence number of the newest entry, 0 when empty.
func (rb *RingBuffer) LastSeq() uint64 {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.last
}

// oldest is the smallest retained sequence number. Callers hold mu.
func (rb *RingBuffer) oldest() uint64 {
	n := uint64(len(rb.slots))
	if rb.last <= n {
		return 1
	}
	return rb.last - n + 1
}

func (rb *RingBuffer) slot(seq uint64) int {
	return int((seq - 1) % uint64(len(rb.slots)))
}
