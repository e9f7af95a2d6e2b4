package sim

import (
	"errors"
	"testing"
	"time"
)

func TestEveryRejectsNonPositiveInterval(t *testing.T) {
	s := NewScheduler()

	if _, err := s.Every(0, func(time.Duration) {}); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("Every(0) error = %v, want ErrInvalidInterval", err)
	}
	if _, err := s.Every(-time.Second, func(time.Duration) {}); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("Every(-1s) error = %v, want ErrInvalidInterval", err)
	}
}

func TestEveryFiresAtFixedInterval(t *testing.T) {
	s := NewScheduler()

	var fireTimes []time.Duration
	if _, err := s.Every(time.Second, func(time.Duration) {
		fireTimes = append(fireTimes, s.Now())
	}); err != nil {
		t.Fatalf("Every error = %v", err)
	}

	if err := s.Run(3500 * time.Millisecond); err != nil {
		t.Fatalf("Run error = %v", err)
	}

	want := []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}
	if len(fireTimes) != len(want) {
		t.Fatalf("fired %d times, want %d", len(fireTimes), len(want))
	}
	for i := range want {
		if fireTimes[i] != want[i] {
			t.Fatalf("fireTimes[%d] = %v, want %v", i, fireTimes[i], want[i])
		}
	}
}

func TestEveryPassesElapsedInterval(t *testing.T) {
	s := NewScheduler()

	var elapsed []time.Duration
	if _, err := s.Every(250*time.Millisecond, func(d time.Duration) {
		elapsed = append(elapsed, d)
	}); err != nil {
		t.Fatalf("Every error = %v", err)
	}

	if err := s.Run(time.Second); err != nil {
		t.Fatalf("Run error = %v", err)
	}
	for i, d := range elapsed {
		if d != 250*time.Millisecond {
			t.Fatalf("elapsed[%d] = %v, want 250ms", i, d)
		}
	}
	if len(elapsed) != 4 {
		t.Fatalf("fired %d times, want 4", len(elapsed))
	}
}

func TestStopPreventsFurtherFirings(t *testing.T) {
	s := NewScheduler()

	count := 0
	p, err := s.Every(time.Second, func(time.Duration) { count++ })
	if err != nil {
		t.Fatalf("Every error = %v", err)
	}

	if err := s.Run(2500 * time.Millisecond); err != nil {
		t.Fatalf("Run error = %v", err)
	}
	p.Stop()
	if err := s.Run(10 * time.Second); err != nil {
		t.Fatalf("Run error = %v", err)
	}

	if count != 2 {
		t.Fatalf("count = %d after Stop, want 2", count)
	}
}

func TestStopFromWithinOwnCallback(t *testing.T) {
	s := NewScheduler()

	count := 0
	var p *Process
	p, err := s.Every(time.Second, func(time.Duration) {
		count++
		if count == 3 {
			p.Stop()
		}
	})
	if err != nil {
		t.Fatalf("Every error = %v", err)
	}

	if err := s.Run(10 * time.Second); err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3 (process stopped itself)", count)
	}
}
