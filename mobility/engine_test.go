package mobility

import (
	"errors"
	"testing"
	"time"

	"github.com/signalsfoundry/ransim/sim"
)

type countingEntity struct {
	id      string
	updates int
	total   time.Duration
}

func (e *countingEntity) ID() string { return e.id }

func (e *countingEntity) UpdatePosition(elapsed time.Duration) {
	e.updates++
	e.total += elapsed
}

func TestTrackDrivesPeriodicUpdates(t *testing.T) {
	sched := sim.NewScheduler()
	eng := NewEngine(sched, 100*time.Millisecond, nil)

	ue := &countingEntity{id: "ue-1"}
	if err := eng.Track(ue); err != nil {
		t.Fatalf("Track error = %v", err)
	}

	if err := sched.Run(time.Second); err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if ue.updates != 10 {
		t.Fatalf("updates = %d over 1s at 100ms tick, want 10", ue.updates)
	}
	if ue.total != time.Second {
		t.Fatalf("accumulated elapsed = %v, want 1s", ue.total)
	}
}

func TestTrackDuplicateFails(t *testing.T) {
	sched := sim.NewScheduler()
	eng := NewEngine(sched, 100*time.Millisecond, nil)

	ue := &countingEntity{id: "ue-1"}
	if err := eng.Track(ue); err != nil {
		t.Fatalf("Track error = %v", err)
	}
	if err := eng.Track(ue); !errors.Is(err, ErrAlreadyTracked) {
		t.Fatalf("second Track error = %v, want ErrAlreadyTracked", err)
	}
	if got := eng.Tracked(); got != 1 {
		t.Fatalf("Tracked() = %d, want 1", got)
	}
}

func TestUntrackStopsUpdates(t *testing.T) {
	sched := sim.NewScheduler()
	eng := NewEngine(sched, 100*time.Millisecond, nil)

	ue := &countingEntity{id: "ue-1"}
	if err := eng.Track(ue); err != nil {
		t.Fatalf("Track error = %v", err)
	}
	if err := sched.Run(500 * time.Millisecond); err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if err := eng.Untrack("ue-1"); err != nil {
		t.Fatalf("Untrack error = %v", err)
	}

	before := ue.updates
	if err := sched.Run(2 * time.Second); err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if ue.updates != before {
		t.Fatalf("updates advanced from %d to %d after Untrack", before, ue.updates)
	}
	if got := eng.Tracked(); got != 0 {
		t.Fatalf("Tracked() = %d, want 0", got)
	}
}

func TestUntrackUnknownFails(t *testing.T) {
	sched := sim.NewScheduler()
	eng := NewEngine(sched, 100*time.Millisecond, nil)

	if err := eng.Untrack("ghost"); !errors.Is(err, ErrNotTracked) {
		t.Fatalf("Untrack(ghost) error = %v, want ErrNotTracked", err)
	}
}

func TestZeroTickFallsBackToDefault(t *testing.T) {
	sched := sim.NewScheduler()
	eng := NewEngine(sched, 0, nil)

	ue := &countingEntity{id: "ue-1"}
	if err := eng.Track(ue); err != nil {
		t.Fatalf("Track error = %v", err)
	}
	if err := sched.Run(time.Second); err != nil {
		t.Fatalf("Run error = %v", err)
	}
	want := int(time.Second / DefaultTick)
	if ue.updates != want {
		t.Fatalf("updates = %d with default tick, want %d", ue.updates, want)
	}
}
