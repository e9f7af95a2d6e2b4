package channel

import (
	"math/rand"
	"testing"
	"time"
)

func TestFixedDelaySamplesConstant(t *testing.T) {
	d := FixedDelay(50 * time.Millisecond)
	for i := 0; i < 5; i++ {
		if got := d.Sample(); got != 50*time.Millisecond {
			t.Fatalf("Sample() = %v, want 50ms", got)
		}
	}
}

func TestNormalDelayNeverBelowFloor(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	d := NewNormalDelay(time.Millisecond, 10*time.Millisecond, 5*time.Millisecond, time.Millisecond, rng)

	for i := 0; i < 1000; i++ {
		if got := d.Sample(); got < time.Millisecond {
			t.Fatalf("Sample() = %v below floor on draw %d", got, i)
		}
	}
}

func TestNormalDelayNegativeFloorClampedToZero(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	d := NewNormalDelay(time.Millisecond, 10*time.Millisecond, 0, -time.Second, rng)

	if d.Floor != 0 {
		t.Fatalf("Floor = %v, want 0", d.Floor)
	}
	for i := 0; i < 1000; i++ {
		if got := d.Sample(); got < 0 {
			t.Fatalf("Sample() = %v negative on draw %d", got, i)
		}
	}
}

func TestNormalDelayZeroVarianceYieldsMean(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	d := NewNormalDelay(100*time.Millisecond, 0, 0, 0, rng)

	for i := 0; i < 5; i++ {
		if got := d.Sample(); got != 100*time.Millisecond {
			t.Fatalf("Sample() = %v, want exactly 100ms with zero std", got)
		}
	}
}

func TestNormalDelaySameSeedReplaysSameDraws(t *testing.T) {
	a := NewNormalDelay(100*time.Millisecond, 20*time.Millisecond, 5*time.Millisecond, time.Millisecond, rand.New(rand.NewSource(42)))
	b := NewNormalDelay(100*time.Millisecond, 20*time.Millisecond, 5*time.Millisecond, time.Millisecond, rand.New(rand.NewSource(42)))

	for i := 0; i < 100; i++ {
		if av, bv := a.Sample(), b.Sample(); av != bv {
			t.Fatalf("draw %d diverged: %v vs %v", i, av, bv)
		}
	}
}
