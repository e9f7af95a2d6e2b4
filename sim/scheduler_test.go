package sim

import (
	"errors"
	"testing"
	"time"
)

func TestScheduleNegativeDelayFails(t *testing.T) {
	s := NewScheduler()

	_, err := s.Schedule(-time.Second, func() {})
	if !errors.Is(err, ErrNegativeDelay) {
		t.Fatalf("Schedule(-1s) error = %v, want ErrNegativeDelay", err)
	}
	if got := s.Pending(); got != 0 {
		t.Fatalf("Pending() = %d after failed schedule, want 0", got)
	}
}

func TestRunTargetMustAdvanceClock(t *testing.T) {
	s := NewScheduler()

	if err := s.Run(0); !errors.Is(err, ErrTargetNotAhead) {
		t.Fatalf("Run(0) error = %v, want ErrTargetNotAhead", err)
	}

	if err := s.Run(2 * time.Second); err != nil {
		t.Fatalf("Run(2s) error = %v", err)
	}
	if err := s.Run(time.Second); !errors.Is(err, ErrTargetNotAhead) {
		t.Fatalf("Run(1s) after clock at 2s error = %v, want ErrTargetNotAhead", err)
	}
}

func TestRunInvokesCallbacksInFireTimeOrder(t *testing.T) {
	s := NewScheduler()

	var order []string
	mustSchedule(t, s, 3*time.Second, func() { order = append(order, "c") })
	mustSchedule(t, s, time.Second, func() { order = append(order, "a") })
	mustSchedule(t, s, 2*time.Second, func() { order = append(order, "b") })

	if err := s.Run(5 * time.Second); err != nil {
		t.Fatalf("Run error = %v", err)
	}

	want := []string{"a", "b", "c"}
	if len(order) != len(want) {
		t.Fatalf("invoked %d callbacks, want %d", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestSimultaneousEventsFireInInsertionOrder(t *testing.T) {
	s := NewScheduler()

	var order []int
	for i := 0; i < 10; i++ {
		i := i
		mustSchedule(t, s, time.Second, func() { order = append(order, i) })
	}

	if err := s.Run(time.Second + time.Millisecond); err != nil {
		t.Fatalf("Run error = %v", err)
	}
	for i, got := range order {
		if got != i {
			t.Fatalf("order[%d] = %d, want %d (insertion order broken)", i, got, i)
		}
	}
}

func TestCallbackMayScheduleWithinSameRun(t *testing.T) {
	s := NewScheduler()

	var fired []string
	mustSchedule(t, s, time.Second, func() {
		fired = append(fired, "outer")
		mustSchedule(t, s, time.Second, func() { fired = append(fired, "inner") })
	})

	if err := s.Run(3 * time.Second); err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if len(fired) != 2 || fired[1] != "inner" {
		t.Fatalf("fired = %v, want [outer inner]", fired)
	}
}

func TestCallbackScheduledBeyondRangeStaysPending(t *testing.T) {
	s := NewScheduler()

	fired := false
	mustSchedule(t, s, 10*time.Second, func() { fired = true })

	if err := s.Run(5 * time.Second); err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if fired {
		t.Fatal("callback beyond run range fired")
	}
	if got := s.Pending(); got != 1 {
		t.Fatalf("Pending() = %d, want 1", got)
	}
	if got := s.Now(); got != 5*time.Second {
		t.Fatalf("Now() = %v, want 5s", got)
	}
}

func TestPanickingCallbackDoesNotStopRun(t *testing.T) {
	s := NewScheduler()

	var after bool
	mustSchedule(t, s, time.Second, func() { panic("boom") })
	mustSchedule(t, s, 2*time.Second, func() { after = true })

	if err := s.Run(3 * time.Second); err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if !after {
		t.Fatal("callback after a panicking one did not fire")
	}
}

func TestCancelledEventDoesNotFire(t *testing.T) {
	s := NewScheduler()

	fired := false
	id := mustSchedule(t, s, time.Second, func() { fired = true })
	s.Cancel(id)

	if err := s.Run(2 * time.Second); err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if fired {
		t.Fatal("cancelled event fired")
	}
}

func TestCancelUnknownIDIsNoOp(t *testing.T) {
	s := NewScheduler()
	s.Cancel("ev-999")
}

func TestRunAdvancesClockToEventTimes(t *testing.T) {
	s := NewScheduler()

	var seen []time.Duration
	mustSchedule(t, s, time.Second, func() { seen = append(seen, s.Now()) })
	mustSchedule(t, s, 3*time.Second, func() { seen = append(seen, s.Now()) })

	if err := s.Run(4 * time.Second); err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if len(seen) != 2 || seen[0] != time.Second || seen[1] != 3*time.Second {
		t.Fatalf("clock during callbacks = %v, want [1s 3s]", seen)
	}
}

// Two events incrementing a counter, run past both: the counter reads 2 and
// the clock rests exactly at the run target.
func TestCounterScenario(t *testing.T) {
	s := NewScheduler()

	counter := 0
	mustSchedule(t, s, time.Second, func() { counter++ })
	mustSchedule(t, s, 3*time.Second, func() { counter++ })

	if err := s.Run(4 * time.Second); err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if counter != 2 {
		t.Fatalf("counter = %d, want 2", counter)
	}
	if got := s.Now(); got != 4*time.Second {
		t.Fatalf("Now() = %v, want 4s", got)
	}
}

func TestIdenticalScheduleSequencesReplayIdentically(t *testing.T) {
	runOnce := func() []int {
		s := NewScheduler()
		var order []int
		delays := []time.Duration{2 * time.Second, time.Second, 2 * time.Second, 0, time.Second}
		for i, d := range delays {
			i := i
			mustSchedule(t, s, d, func() { order = append(order, i) })
		}
		if err := s.Run(3 * time.Second); err != nil {
			t.Fatalf("Run error = %v", err)
		}
		return order
	}

	first := runOnce()
	second := runOnce()
	if len(first) != len(second) {
		t.Fatalf("replay produced %d events, want %d", len(second), len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("replay diverged at %d: %v vs %v", i, first, second)
		}
	}
}

func mustSchedule(t *testing.T, s *Scheduler, delay time.Duration, fn func()) EventID {
	t.Helper()
	id, err := s.Schedule(delay, fn)
	if err != nil {
		t.Fatalf("Schedule(%v) error = %v", delay, err)
	}
	return id
}
