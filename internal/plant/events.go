package plant

import (
	"container/heap"
)

// EventType represents the type of plant event
type EventType string

const (
	// EventTypeFeedArrival splits one hour of feed between the two columns
	EventTypeFeedArrival EventType = "feed_arrival"

	// EventTypeBatchComplete books the products of one column batch
	EventTypeBatchComplete EventType = "batch_complete"

	// EventTypeHorizonEnd stops the run
	EventTypeHorizonEnd EventType = "horizon_end"
)

// Event is a discrete plant event at simulated hour Time
type Event struct {
	Type     EventType
	Time     float64
	Priority int // Lower values = higher priority
	Column   int
	Flow     float64
}

// EventQueue is a priority queue of events ordered by time then priority
type EventQueue struct {
	events []*Event
	seq    []int
	next   int
}

// NewEventQueue creates a new event queue
func NewEventQueue() *EventQueue {
	eq := &EventQueue{}
	heap.Init(eq)
	return eq
}

func (eq *EventQueue) Len() int { return len(eq.events) }

// Less orders by time, then priority, then insertion order so runs are reproducible
func (eq *EventQueue) Less(i, j int) bool {
	a, b := eq.events[i], eq.events[j]
	if a.Time != b.Time {
		return a.Time < b.Time
	}
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	return eq.seq[i] < eq.seq[j]
}

func (eq *EventQueue) Swap(i, j int) {
	eq.events[i], eq.events[j] = eq.events[j], eq.events[i]
	eq.seq[i], eq.seq[j] = eq.seq[j], eq.seq[i]
}

func (eq *EventQueue) Push(x interface{}) {
	eq.events = append(eq.events, x.(*Event))
	eq.seq = append(eq.seq, eq.next)
	eq.next++
}

func (eq *EventQueue) Pop() interface{} {
	n := len(eq.events)
	event := eq.events[n-1]
	eq.events[n-1] = nil
	eq.events = eq.events[:n-1]
	eq.seq = eq.seq[:n-1]
	return event
}

// Schedule adds an event
func (eq *EventQueue) Schedule(event *Event) {
	heap.Push(eq, event)
}

// Next removes and returns the next event, or nil when empty
func (eq *EventQueue) Next() *Event {
	if eq.Len() == 0 {
		return nil
	}
	return heap.Pop(eq).(*Event)
}

// Clear removes all events
func (eq *EventQueue) Clear() {
	eq.events = eq.events[:0]
	eq.seq = eq.seq[:0]
}
