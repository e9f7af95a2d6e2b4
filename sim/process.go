package sim

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidInterval indicates Every was called with a non-positive interval.
var ErrInvalidInterval = errors.New("interval must be positive")

// Process is a self-rescheduling unit of periodic work. Each firing performs
// its action and re-enqueues itself, until Stop is called or the simulation
// ends. Stopping flips a validity flag checked at fire time; the already
// queued event is never removed from the middle of the queue.
type Process struct {
	s        *Scheduler
	interval time.Duration
	fn       func(elapsed time.Duration)
	stopped  bool
}

// Every starts a process invoking fn every interval of virtual time, with
// the first firing one interval from now. fn receives the elapsed virtual
// time since its previous firing, which for a fixed-interval process is the
// interval itself.
func (s *Scheduler) Every(interval time.Duration, fn func(elapsed time.Duration)) (*Process, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("every %v: %w", interval, ErrInvalidInterval)
	}
	p := &Process{s: s, interval: interval, fn: fn}
	if err := p.reschedule(); err != nil {
		return nil, err
	}
	return p, nil
}

// Stop terminates the process. The next queued firing becomes a no-op.
func (p *Process) Stop() {
	p.stopped = true
}

func (p *Process) reschedule() error {
	_, err := p.s.Schedule(p.interval, p.tick)
	return err
}

func (p *Process) tick() {
	if p.stopped {
		return
	}
	p.fn(p.interval)
	if p.stopped {
		return
	}
	// Rescheduling from inside a callback cannot fail: the interval was
	// validated at construction.
	_ = p.reschedule()
}
