package channel

import (
	"math/rand"
	"time"
)

// DelaySampler yields a transmission delay for one message. Samplers are
// drawn once per send, at scheduling time.
type DelaySampler interface {
	Sample() time.Duration
}

// FixedDelay always yields the same delay.
type FixedDelay time.Duration

func (d FixedDelay) Sample() time.Duration { return time.Duration(d) }

// NormalDelay samples latency from a normal distribution plus independent
// zero-mean jitter, clamped at Floor. It models fronthaul and backhaul
// transport latency.
type NormalDelay struct {
	Mean   time.Duration
	Std    time.Duration
	Jitter time.Duration // standard deviation of the jitter term
	Floor  time.Duration

	rng *rand.Rand
}

// NewNormalDelay constructs a sampler using the supplied RNG. The RNG comes
// from the caller so replayed runs with the same seed sample identical
// delays.
func NewNormalDelay(mean, std, jitter, floor time.Duration, rng *rand.Rand) *NormalDelay {
	if floor < 0 {
		floor = 0
	}
	return &NormalDelay{Mean: mean, Std: std, Jitter: jitter, Floor: floor, rng: rng}
}

func (d *NormalDelay) Sample() time.Duration {
	sec := d.rng.NormFloat64()*d.Std.Seconds() + d.Mean.Seconds()
	sec += d.rng.NormFloat64() * d.Jitter.Seconds()
	sampled := time.Duration(sec * float64(time.Second))
	if sampled < d.Floor {
		return d.Floor
	}
	return sampled
}
