package securitylog

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCapacity is the audit trail size used when New is given a
// non-positive capacity.
const DefaultCapacity = 1000

// Log is a fixed-capacity in-memory audit trail. Once full, recording a new
// event evicts the oldest one. All methods are safe for concurrent use.
type Log struct {
	mu     sync.Mutex
	ring   []Event
	start  int // index of the oldest event
	length int

	total  int64
	byKind map[Kind]int64
}

// New creates a security log holding at most capacity events.
func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{
		ring:   make([]Event, capacity),
		byKind: make(map[Kind]int64),
	}
}

// Record appends an event, evicting the oldest entry when the ring is full.
// Missing ID and timestamp fields are filled in. Returns the stored event.
func (l *Log) Record(e Event) Event {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.length < len(l.ring) {
		l.ring[(l.start+l.length)%len(l.ring)] = e
		l.length++
	} else {
		l.ring[l.start] = e
		l.start = (l.start + 1) % len(l.ring)
	}

	l.total++
	l.byKind[e.Kind]++

	return e
}

// Events returns up to limit events, newest first. A non-positive limit
// returns everything currently retained.
func (l *Log) Events(limit int) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := l.length
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]Event, n)
	for i := range n {
		// Walk backwards from the newest entry.
		idx := (l.start + l.length - 1 - i) % len(l.ring)
		out[i] = l.ring[idx]
	}
	return out
}

// Len returns the number of events currently retained.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.length
}

// Stats returns lifetime counters, including evicted events.
func (l *Log) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	byKind := make(map[Kind]int64, len(l.byKind))
	for k, v := range l.byKind {
		byKind[k] = v
	}
	return Stats{Total: l.total, ByKind: byKind}
}

// Clear drops all retained events but keeps lifetime counters.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.start = 0
	l.length = 0
}
