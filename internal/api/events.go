package api

import (
	"sync"
	"time"
)

// EventType classifies messages emitted while a job runs.
type EventType string

const (
	EventStatus   EventType = "status"
	EventProgress EventType = "progress"
	EventResult   EventType = "result"
)

// Event is a sequenced job update streamed to subscribers.
type Event struct {
	Seq         int64      `json:"seq"`
	Timestamp   time.Time  `json:"timestamp"`
	JobID       string     `json:"jobId"`
	Type        EventType  `json:"type"`
	State       JobState   `json:"state,omitempty"`
	Fraction    float64    `json:"fraction,omitempty"`
	Description string     `json:"description,omitempty"`
	Result      *JobResult `json:"result,omitempty"`
}

// EventBus stores recent events of one job and wakes waiting readers.
type EventBus struct {
	mu        sync.RWMutex
	nextSeq   int64
	maxEvents int
	events    []Event
	changed   chan struct{}
	closed    bool
}

// NewEventBus creates a bounded in-memory event buffer.
func NewEventBus(maxEvents int) *EventBus {
	if maxEvents <= 0 {
		maxEvents = 500
	}
	return &EventBus{
		maxEvents: maxEvents,
		events:    make([]Event, 0, maxEvents),
		changed:   make(chan struct{}),
	}
}

// Publish appends one event and assigns sequence and timestamp. Events
// published after Close are dropped.
func (b *EventBus) Publish(event Event) Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return event
	}

	b.nextSeq++
	event.Seq = b.nextSeq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.events = append(b.events, event)
	if len(b.events) > b.maxEvents {
		trim := len(b.events) - b.maxEvents
		b.events = append([]Event(nil), b.events[trim:]...)
	}
	b.wakeLocked()
	return event
}

// Close marks the stream finished; readers drain what is buffered.
func (b *EventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.wakeLocked()
}

// Since returns events with sequence strictly greater than seq.
func (b *EventBus) Since(seq int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.events) == 0 {
		return nil
	}
	out := make([]Event, 0, len(b.events))
	for _, event := range b.events {
		if event.Seq > seq {
			out = append(out, event)
		}
	}
	return out
}

// Wait returns a channel closed on the next Publish or Close, and whether
// the bus is already closed.
func (b *EventBus) Wait() (<-chan struct{}, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.changed, b.closed
}

func (b *EventBus) wakeLocked() {
	close(b.changed)
	if !b.closed {
		b.changed = make(chan struct{})
	}
}
