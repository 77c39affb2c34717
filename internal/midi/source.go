package midi

import (
	"log"
	"sync"
)

// DefaultQueueSize is the number of events buffered between polls.
const DefaultQueueSize = 256

// Source is a polled, non-blocking supplier of MIDI events.
type Source interface {
	// Poll returns the next pending event, or false if none is pending.
	Poll() (Event, bool)
	Close() error
}

// queue buffers events delivered by a driver callback until they are polled.
type queue struct {
	events  chan Event
	dropped int
	mu      sync.Mutex
}

func newQueue(size int) *queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &queue{events: make(chan Event, size)}
}

func (q *queue) push(e Event) {
	select {
	case q.events <- e:
	default:
		q.mu.Lock()
		q.dropped++
		n := q.dropped
		q.mu.Unlock()
		log.Printf("midi: queue full, dropped %v (%d dropped)", e, n)
	}
}

func (q *queue) poll() (Event, bool) {
	select {
	case e := <-q.events:
		return e, true
	default:
		return Event{}, false
	}
}

// MockSource is a Source fed by tests.
type MockSource struct {
	q      *queue
	closed bool
}

// NewMockSource creates a mock source holding the given events.
func NewMockSource(events ...Event) *MockSource {
	m := &MockSource{q: newQueue(DefaultQueueSize)}
	m.Push(events...)
	return m
}

// Push queues events for later polls.
func (m *MockSource) Push(events ...Event) {
	for _, e := range events {
		m.q.push(e)
	}
}

// Poll returns the next queued event.
func (m *MockSource) Poll() (Event, bool) {
	return m.q.poll()
}

// Close marks the source closed.
func (m *MockSource) Close() error {
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockSource) Closed() bool {
	return m.closed
}

// NoteOnEvent builds a note-on event on channel 0.
func NoteOnEvent(note, velocity uint8) Event {
	return Event{Status: NoteOn, Note: note, Velocity: velocity}
}

// NoteOffEvent builds a note-off event on channel 0.
func NoteOffEvent(note uint8) Event {
	return Event{Status: NoteOff, Note: note}
}
