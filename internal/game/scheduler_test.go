package game

import (
	"testing"
	"time"
)

func TestSchedulerFiresWhenDue(t *testing.T) {
	s := NewScheduler()
	var h TimerHandle
	fired := 0
	s.SetTimer(&h, 100*time.Millisecond, func() { fired++ })

	s.Advance(99 * time.Millisecond)
	if fired != 0 {
		t.Fatalf("Expected no fire at 99ms, got %d", fired)
	}
	if got := s.Remaining(h); got != time.Millisecond {
		t.Errorf("Expected 1ms remaining, got %v", got)
	}

	s.Advance(time.Millisecond)
	if fired != 1 {
		t.Errorf("Expected fire at exactly 100ms, got %d", fired)
	}
	if s.IsActive(h) {
		t.Error("Expected handle inactive after firing")
	}
	if !h.IsSet() {
		t.Error("Expected handle to remember its binding")
	}
}

func TestSchedulerOrdersByDueThenInsertion(t *testing.T) {
	s := NewScheduler()
	var a, b, c TimerHandle
	var order []string
	s.SetTimer(&a, 50*time.Millisecond, func() { order = append(order, "a") })
	s.SetTimer(&b, 20*time.Millisecond, func() { order = append(order, "b") })
	s.SetTimer(&c, 50*time.Millisecond, func() { order = append(order, "c") })

	if n := s.Advance(time.Second); n != 3 {
		t.Fatalf("Expected 3 callbacks, got %d", n)
	}
	want := []string{"b", "a", "c"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("Expected order %v, got %v", want, order)
		}
	}
}

func TestSchedulerSetTimerReplaces(t *testing.T) {
	s := NewScheduler()
	var h TimerHandle
	var got []string
	s.SetTimer(&h, 10*time.Millisecond, func() { got = append(got, "old") })
	s.SetTimer(&h, 30*time.Millisecond, func() { got = append(got, "new") })

	if s.Pending() != 1 {
		t.Errorf("Expected 1 pending timer, got %d", s.Pending())
	}
	s.Advance(20 * time.Millisecond)
	if len(got) != 0 {
		t.Errorf("Expected replaced timer not to fire, got %v", got)
	}
	s.Advance(10 * time.Millisecond)
	if len(got) != 1 || got[0] != "new" {
		t.Errorf("Expected only the new timer, got %v", got)
	}
}

func TestSchedulerClearTimer(t *testing.T) {
	s := NewScheduler()
	var h TimerHandle
	s.SetTimer(&h, 10*time.Millisecond, func() { t.Error("Cleared timer fired") })
	s.ClearTimer(&h)

	if h.IsSet() || s.IsActive(h) || s.Pending() != 0 {
		t.Error("Expected handle reset and nothing pending")
	}
	s.Advance(time.Second)

	// Clearing an unset handle is harmless.
	var zero TimerHandle
	s.ClearTimer(&zero)
	if s.Remaining(zero) != 0 {
		t.Error("Expected zero remaining on an unset handle")
	}
}

func TestSchedulerZeroDelayWaitsForNextAdvance(t *testing.T) {
	s := NewScheduler()
	var h TimerHandle
	runs := 0
	var tick func()
	tick = func() {
		runs++
		s.SetTimer(&h, 0, tick)
	}
	s.SetTimer(&h, 0, tick)

	s.Advance(16 * time.Millisecond)
	if runs != 1 {
		t.Fatalf("Expected a self-rescheduling timer to run once per frame, got %d", runs)
	}
	s.Advance(16 * time.Millisecond)
	if runs != 2 {
		t.Errorf("Expected second run on the next frame, got %d", runs)
	}
	if !s.IsActive(h) {
		t.Error("Expected rescheduled timer still pending")
	}
}

func TestSchedulerCallbackClearsSibling(t *testing.T) {
	s := NewScheduler()
	var a, b TimerHandle
	s.SetTimer(&a, 10*time.Millisecond, func() { s.ClearTimer(&b) })
	s.SetTimer(&b, 10*time.Millisecond, func() { t.Error("Sibling fired after being cleared") })

	if n := s.Advance(10 * time.Millisecond); n != 1 {
		t.Errorf("Expected 1 callback, got %d", n)
	}
	if s.Pending() != 0 {
		t.Errorf("Expected nothing pending, got %d", s.Pending())
	}
}

func TestSchedulerClearDeferredTimer(t *testing.T) {
	s := NewScheduler()
	var a, b TimerHandle
	s.SetTimer(&a, 0, func() {
		s.SetTimer(&b, 0, func() { t.Error("Deferred timer fired after being cleared") })
		s.ClearTimer(&b)
	})
	s.Advance(frame)
	s.Advance(frame)
	if s.Pending() != 0 {
		t.Errorf("Expected nothing pending, got %d", s.Pending())
	}
}

func TestSchedulerNegativeDelay(t *testing.T) {
	s := NewScheduler()
	var h TimerHandle
	fired := false
	s.SetTimer(&h, -time.Second, func() { fired = true })
	s.Advance(0)
	if !fired {
		t.Error("Expected negative delay to fire on the next Advance")
	}
	if s.Now() != 0 {
		t.Errorf("Expected clock unchanged by a zero advance, got %v", s.Now())
	}
}
