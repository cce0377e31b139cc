package game

import (
	"container/heap"
	"time"
)

// TimerHandle identifies a pending timer. The zero value refers to no timer.
// Handles are owned by the code that schedules through them; SetTimer on a
// live handle replaces the pending callback.
type TimerHandle struct {
	id uint64
}

// IsSet reports whether the handle was ever bound to a timer. It does not say
// whether that timer is still pending; use Scheduler.IsActive for that.
func (h TimerHandle) IsSet() bool { return h.id != 0 }

type timer struct {
	id    uint64
	due   time.Duration
	seq   uint64 // insertion order; breaks ties between equal due times
	fn    func()
	index int
}

type timerHeap []*timer

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].due == h[j].due {
		return h[i].seq < h[j].seq
	}
	return h[i].due < h[j].due
}
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *timerHeap) Push(x any) {
	t := x.(*timer)
	t.index = len(*h)
	*h = append(*h, t)
}
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// Scheduler is the cooperative per-frame timer loop shared by all weapon logic
// in a process. It is not safe for concurrent use: it is only touched from
// the tick goroutine.
//
// Callbacks observe Now() as the frame time of the Advance that runs them.
// A timer scheduled while Advance is running never fires in that same
// Advance, even with a zero delay, so a callback that reschedules itself runs
// at most once per frame.
type Scheduler struct {
	now    time.Duration
	nextID uint64
	seq    uint64
	timers timerHeap
	live   map[uint64]*timer
}

// NewScheduler creates an empty scheduler at time zero.
func NewScheduler() *Scheduler {
	return &Scheduler{live: make(map[uint64]*timer)}
}

// Now returns the current frame time.
func (s *Scheduler) Now() time.Duration { return s.now }

// SetTimer schedules fn to run delay from now and binds it to h, clearing
// whatever h previously pointed at. Negative delays are treated as zero.
func (s *Scheduler) SetTimer(h *TimerHandle, delay time.Duration, fn func()) {
	s.ClearTimer(h)
	if delay < 0 {
		delay = 0
	}
	s.nextID++
	s.seq++
	t := &timer{id: s.nextID, due: s.now + delay, seq: s.seq, fn: fn}
	heap.Push(&s.timers, t)
	s.live[t.id] = t
	h.id = t.id
}

// ClearTimer cancels the timer bound to h, if any, and resets the handle.
func (s *Scheduler) ClearTimer(h *TimerHandle) {
	if h.id == 0 {
		return
	}
	if t, ok := s.live[h.id]; ok {
		// index < 0: popped and held back by a running Advance
		if t.index >= 0 {
			heap.Remove(&s.timers, t.index)
		}
		delete(s.live, h.id)
	}
	h.id = 0
}

// IsActive reports whether h refers to a pending timer.
func (s *Scheduler) IsActive(h TimerHandle) bool {
	_, ok := s.live[h.id]
	return ok
}

// Remaining returns the time left before h fires, or zero if it is not pending.
func (s *Scheduler) Remaining(h TimerHandle) time.Duration {
	t, ok := s.live[h.id]
	if !ok {
		return 0
	}
	return t.due - s.now
}

// Pending returns the number of scheduled timers.
func (s *Scheduler) Pending() int { return len(s.timers) }

// Advance moves the clock forward by dt and runs every timer that became due,
// in due-time order. It returns the number of callbacks run.
func (s *Scheduler) Advance(dt time.Duration) int {
	if dt > 0 {
		s.now += dt
	}
	watermark := s.seq
	fired := 0

	var deferred []*timer
	for len(s.timers) > 0 {
		t := s.timers[0]
		if t.due > s.now {
			break
		}
		heap.Pop(&s.timers)
		if t.seq > watermark {
			// Scheduled during this Advance; hold it for the next frame.
			deferred = append(deferred, t)
			continue
		}
		delete(s.live, t.id)
		t.fn()
		fired++
	}
	for _, t := range deferred {
		if _, ok := s.live[t.id]; ok {
			heap.Push(&s.timers, t)
		}
	}
	return fired
}
