package logging

import (
	"slices"
	"sync"
	"time"
)

// LogEntry is one record kept for GET /api/logs.
type LogEntry struct {
	Timestamp  time.Time      `json:"timestamp"`
	Level      string         `json:"level"`
	Module     string         `json:"module"`
	Message    string         `json:"message"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Query selects entries from a RingBuffer. The zero Query matches everything.
type Query struct {
	Module   string
	MinLevel string // debug, info, warn or error
	Limit    int    // keep only the newest Limit matches, 0 for all
}

func (q Query) match(e LogEntry) bool {
	if q.Module != "" && e.Module != q.Module {
		return false
	}
	return levelRank(e.Level) >= levelRank(q.MinLevel)
}

// levelRank orders level names; unknown and empty names rank lowest.
func levelRank(level string) int {
	switch level {
	case "error":
		return 3
	case "warn":
		return 2
	case "info":
		return 1
	default:
		return 0
	}
}

// RingBuffer holds the most recent log entries. The player runs unattended
// for weeks, so history is bounded and the oldest entry is overwritten.
type RingBuffer struct {
	mu      sync.RWMutex
	entries []LogEntry
	next    int
	full    bool
}

// NewRingBuffer creates a buffer holding up to size entries.
func NewRingBuffer(size int) *RingBuffer {
	return &RingBuffer{entries: make([]LogEntry, max(size, 1))}
}

// Write appends entry, dropping the oldest one when the buffer is full.
func (rb *RingBuffer) Write(entry LogEntry) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.entries[rb.next] = entry
	rb.next++
	if rb.next == len(rb.entries) {
		rb.next = 0
		rb.full = true
	}
}

func (rb *RingBuffer) count() int {
	if rb.full {
		return len(rb.entries)
	}
	return rb.next
}

// at returns the i-th oldest entry. The caller holds mu.
func (rb *RingBuffer) at(i int) LogEntry {
	if !rb.full {
		return rb.entries[i]
	}
	return rb.entries[(rb.next+i)%len(rb.entries)]
}

// Select returns the entries matching q, oldest first. The result is never nil.
func (rb *RingBuffer) Select(q Query) []LogEntry {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	out := []LogEntry{}
	for i := rb.count() - 1; i >= 0; i-- {
		e := rb.at(i)
		if !q.match(e) {
			continue
		}
		out = append(out, e)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	slices.Reverse(out)
	return out
}

// ReadAll returns every entry, oldest first.
func (rb *RingBuffer) ReadAll() []LogEntry {
	return rb.Select(Query{})
}

// Tail returns at most n of the newest entries, oldest first. n <= 0
// returns everything.
func (rb *RingBuffer) Tail(n int) []LogEntry {
	return rb.Select(Query{Limit: n})
}

// Count returns the number of entries held.
func (rb *RingBuffer) Count() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.count()
}
