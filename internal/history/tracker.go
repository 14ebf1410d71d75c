package history

import (
	"fmt"
	"sync"
	"time"

	"whisperstudio/internal/runs"
)

// Capacity is the number of entries the tracker retains.
const Capacity = 10

// Entry is one completed run as shown in the recent-runs list.
type Entry struct {
	Timestamp time.Time   `json:"timestamp"`
	Source    runs.Source `json:"source"`
	RunID     string      `json:"run_id"`
}

// Line renders the entry as a list item: "- 15:04:05 · source · id=run".
func (e Entry) Line() string {
	return fmt.Sprintf("- %s · %s · id=%s", e.Timestamp.Format("15:04:05"), e.Source, e.RunID)
}

// Tracker holds the most recent entries, newest first. It is safe for
// concurrent use; every mutation happens under one mutex.
type Tracker struct {
	mu      sync.Mutex
	entries []Entry
}

// NewTracker returns a tracker seeded with entries, which must already be
// newest first. Anything beyond Capacity is dropped.
func NewTracker(seed ...Entry) *Tracker {
	t := &Tracker{}
	for i := len(seed) - 1; i >= 0; i-- {
		t.Record(seed[i])
	}
	return t
}

// Record prepends entry, evicts the oldest beyond Capacity, and returns the
// resulting snapshot.
func (t *Tracker) Record(entry Entry) []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := make([]Entry, 0, Capacity)
	next = append(next, entry)
	next = append(next, t.entries...)
	if len(next) > Capacity {
		next = next[:Capacity]
	}
	t.entries = next
	return t.copyLocked()
}

// Snapshot returns a copy of the entries, newest first.
func (t *Tracker) Snapshot() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.copyLocked()
}

// Len returns the number of retained entries.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

func (t *Tracker) copyLocked() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}
