package sim

import "container/heap"

// EventQueue implements a priority queue with deterministic ordering.
// Ordering: hour → kind priority → sequence number.
type EventQueue struct {
	events []Event
}

// NewEventQueue creates an empty event queue.
func NewEventQueue() *EventQueue {
	q := &EventQueue{events: make([]Event, 0)}
	heap.Init(q)
	return q
}

// Len implements heap.Interface.
func (q *EventQueue) Len() int { return len(q.events) }

// Less implements heap.Interface with deterministic ordering.
// Order by: hour → kind priority → sequence number.
func (q *EventQueue) Less(i, j int) bool {
	ei, ej := q.events[i], q.events[j]

	if ei.Hour() != ej.Hour() {
		return ei.Hour() < ej.Hour()
	}

	pi := eventKindPriority[ei.Kind()]
	pj := eventKindPriority[ej.Kind()]
	if pi != pj {
		return pi < pj
	}

	return ei.Seq() < ej.Seq()
}

// Swap implements heap.Interface.
func (q *EventQueue) Swap(i, j int) {
	q.events[i], q.events[j] = q.events[j], q.events[i]
}

// Push implements heap.Interface.
func (q *EventQueue) Push(x any) {
	q.events = append(q.events, x.(Event))
}

// Pop implements heap.Interface.
func (q *EventQueue) Pop() any {
	old := q.events
	n := len(old)
	item := old[n-1]
	q.events = old[0 : n-1]
	return item
}

// Schedule adds an event to the queue.
func (q *EventQueue) Schedule(e Event) {
	heap.Push(q, e)
}

// PopNext removes and returns the next event, or nil when empty.
func (q *EventQueue) PopNext() Event {
	if q.Len() == 0 {
		return nil
	}
	return heap.Pop(q).(Event)
}

// Peek returns the next event without removing it, or nil when empty.
func (q *EventQueue) Peek() Event {
	if q.Len() == 0 {
		return nil
	}
	return q.events[0]
}

// Remove deletes the first queued event matching the predicate and returns
// it, or nil when no event matches. Used to cancel planned admissions.
func (q *EventQueue) Remove(match func(Event) bool) Event {
	for i, e := range q.events {
		if match(e) {
			removed := heap.Remove(q, i).(Event)
			return removed
		}
	}
	return nil
}
