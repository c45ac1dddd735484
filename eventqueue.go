package netsim

//
// Event scheduling
//

import (
	"container/heap"
	"fmt"
)

// Action is the function invoked when an [Event] is dequeued and performed.
// An action mutates component state and typically schedules further events;
// it never blocks on I/O — suspension is modeled by scheduling a
// future event, not by sleeping.
type Action func()

// Event is a timestamped action to be performed at a future virtual time.
// The zero value is invalid; events are created by [EventQueue.Schedule]
// and [EventQueue.ScheduleAt].
type Event struct {
	// scheduledTime is the virtual time at which this event should fire.
	scheduledTime float64

	// seq is the monotonic insertion sequence used to break ties between
	// events scheduled for the same scheduledTime, making pop order fully
	// deterministic.
	seq int64

	// cancelled is set by [EventQueue.Cancel]; a cancelled event is
	// skipped and discarded when it reaches the front of the queue.
	cancelled bool

	// action is what Run invokes when this event is dequeued.
	action Action

	// index is the event's position in the heap, maintained by
	// container/heap; -1 once removed.
	index int
}

// ScheduledTime returns the virtual time at which e is due to fire.
func (e *Event) ScheduledTime() float64 {
	return e.scheduledTime
}

// eventHeap is a container/heap.Interface over *Event ordered by
// (scheduledTime, seq), giving strict determinism for ties.
type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].scheduledTime != h[j].scheduledTime {
		return h[i].scheduledTime < h[j].scheduledTime
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *eventHeap) Push(x any) {
	e := x.(*Event)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// EventQueue is a min-heap of [Event]s keyed by (scheduled_time,
// insertion_sequence). It is the sole concurrency primitive of the
// simulator: there is no locking because only [Simulation.Run] ever calls
// [EventQueue.PopNext].
type EventQueue struct {
	clock *Clock
	heap  eventHeap
	seq   int64
}

// NewEventQueue creates an [EventQueue] driven by clock.
func NewEventQueue(clock *Clock) *EventQueue {
	q := &EventQueue{
		clock: clock,
		heap:  eventHeap{},
		seq:   0,
	}
	heap.Init(&q.heap)
	return q
}

// Schedule inserts action to run at now+delay and returns its handle.
// It panics-free fails with [ErrInvalidSchedule] if delay is negative.
func (q *EventQueue) Schedule(delay float64, action Action) (*Event, error) {
	if delay < 0 {
		return nil, fmt.Errorf("%w: negative delay %f", ErrInvalidSchedule, delay)
	}
	return q.ScheduleAt(q.clock.Now()+delay, action)
}

// ScheduleAt inserts action to run at the given absolute time and returns
// its handle. It fails with [ErrInvalidSchedule] if time is before now.
func (q *EventQueue) ScheduleAt(time float64, action Action) (*Event, error) {
	if time < q.clock.Now() {
		return nil, fmt.Errorf("%w: time %f is before now %f", ErrInvalidSchedule, time, q.clock.Now())
	}
	e := &Event{
		scheduledTime: time,
		seq:           q.seq,
		cancelled:     false,
		action:        action,
	}
	q.seq++
	heap.Push(&q.heap, e)
	return e, nil
}

// Cancel marks handle's event as cancelled. The entry remains in the heap
// but [PopNext] silently skips and discards it. Cancelling an already
// cancelled or already-popped event is a harmless no-op.
func (q *EventQueue) Cancel(handle *Event) {
	if handle != nil {
		handle.cancelled = true
	}
}

// Len returns the number of live (non-popped) entries still in the heap,
// including cancelled ones not yet discarded.
func (q *EventQueue) Len() int {
	return q.heap.Len()
}

// PopNext removes and returns the next live event, discarding any
// cancelled entries in front of it. It returns (nil, false) once the
// queue holds no live event.
func (q *EventQueue) PopNext() (*Event, bool) {
	for q.heap.Len() > 0 {
		e := heap.Pop(&q.heap).(*Event)
		if e.cancelled {
			continue
		}
		return e, true
	}
	return nil, false
}
