package scheduler

import (
	"container/heap"

	"github.com/loraflexsim/core/internal/phy"
)

// eventHeap implements container/heap.Interface, keyed by (Time, Seq) so
// that equal timestamps break ties by insertion order.
type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].Time != h[j].Time {
		return h[i].Time < h[j].Time
	}
	return h[i].Seq < h[j].Seq
}

func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *eventHeap) Push(x interface{}) {
	e := x.(*Event)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// Scheduler is the engine's min-heap priority queue of timestamped events.
// Insert is O(log n); Pop returns the minimum by (Time, Seq); Cancel marks
// an event dead so Pop skips it without an O(log n) removal.
type Scheduler struct {
	h          eventHeap
	byHandle   map[Handle]*Event
	nextSeq    uint64
	nextHandle Handle
}

// New returns an empty Scheduler.
func New() *Scheduler {
	s := &Scheduler{byHandle: map[Handle]*Event{}}
	heap.Init(&s.h)
	return s
}

// Insert schedules kind/payload to fire at t, returning a handle that can
// later be passed to Cancel. Sequence numbers are allocated monotonically
// here, establishing the FIFO tie-break order the spec requires.
func (s *Scheduler) Insert(t phy.Time, kind Kind, payload interface{}) Handle {
	s.nextHandle++
	h := s.nextHandle
	e := &Event{
		Time:    t,
		Seq:     s.nextSeq,
		Kind:    kind,
		Payload: payload,
		handle:  h,
	}
	s.nextSeq++
	heap.Push(&s.h, e)
	s.byHandle[h] = e
	return h
}

// Cancel marks the event identified by h as dead. Pop skips dead entries
// without a heap deletion. Cancelling an unknown or already-dispatched
// handle is a no-op.
func (s *Scheduler) Cancel(h Handle) bool {
	e, ok := s.byHandle[h]
	if !ok || e.dead {
		return false
	}
	e.dead = true
	delete(s.byHandle, h)
	return true
}

// Pop removes and returns the earliest live event, skipping any cancelled
// entries encountered along the way. ok is false when the heap is
// (effectively) empty.
func (s *Scheduler) Pop() (*Event, bool) {
	for s.h.Len() > 0 {
		e := heap.Pop(&s.h).(*Event)
		if e.dead {
			continue
		}
		delete(s.byHandle, e.handle)
		return e, true
	}
	return nil, false
}

// Peek returns the earliest live event without removing it, skipping over
// (and discarding) any dead entries at the top of the heap.
func (s *Scheduler) Peek() (*Event, bool) {
	for s.h.Len() > 0 {
		e := s.h[0]
		if !e.dead {
			return e, true
		}
		heap.Pop(&s.h)
	}
	return nil, false
}

// Empty reports whether the scheduler has no more live events to dispatch.
func (s *Scheduler) Empty() bool {
	_, ok := s.Peek()
	return !ok
}

// Len reports the number of live (non-dead) entries still pending. It is
// O(n) and intended for diagnostics/tests only.
func (s *Scheduler) Len() int {
	n := 0
	for _, e := range s.h {
		if !e.dead {
			n++
		}
	}
	return n
}
