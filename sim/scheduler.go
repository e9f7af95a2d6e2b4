// Package sim provides the discrete-event substrate of the simulator: a
// virtual clock, a deterministic time-ordered event queue, and
// self-rescheduling periodic processes.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/signalsfoundry/ransim/internal/logging"
)

var (
	// ErrNegativeDelay indicates Schedule was called with a delay < 0.
	ErrNegativeDelay = errors.New("negative delay")
	// ErrTargetNotAhead indicates Run was called with a target time that
	// does not advance the clock.
	ErrTargetNotAhead = errors.New("run target must be ahead of current time")
)

// EventID identifies a scheduled event for cancellation.
type EventID string

// MetricsRecorder receives scheduler observations. Implementations must be
// cheap; the scheduler calls them from its hot loop.
type MetricsRecorder interface {
	EventScheduled()
	EventFired()
	CallbackPanicked()
	SetPendingEvents(n int)
}

// scheduledEvent is a single queued callback. Events with equal fire times
// keep insertion order via seq, making tie-breaking deterministic.
type scheduledEvent struct {
	id        EventID
	at        time.Duration
	seq       uint64
	fn        func()
	cancelled bool
}

// Scheduler owns the virtual clock and the pending event queue. All
// component logic executes as synchronous callbacks from Run; a callback may
// schedule further events, and those fire within the same Run call when they
// fall inside its range.
type Scheduler struct {
	log     logging.Logger
	metrics MetricsRecorder

	mu      sync.Mutex
	now     time.Duration
	counter uint64
	events  []*scheduledEvent // ordered by (at, seq), earliest first
	index   map[EventID]*scheduledEvent
}

// Option customises Scheduler construction.
type Option func(*Scheduler)

// WithLogger attaches a structured logger.
func WithLogger(log logging.Logger) Option {
	return func(s *Scheduler) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// NewScheduler constructs a scheduler with the clock at zero.
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		log:   logging.Noop(),
		index: make(map[EventID]*scheduledEvent),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the current virtual time.
func (s *Scheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Pending returns the number of events still queued.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ev := range s.events {
		if !ev.cancelled {
			n++
		}
	}
	return n
}

// Schedule registers fn to run after delay of virtual time. A negative delay
// is a programming error in the driving code and fails immediately.
func (s *Scheduler) Schedule(delay time.Duration, fn func()) (EventID, error) {
	if delay < 0 {
		return "", fmt.Errorf("schedule %v: %w", delay, ErrNegativeDelay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.counter++
	ev := &scheduledEvent{
		id:  EventID(fmt.Sprintf("ev-%d", s.counter)),
		at:  s.now + delay,
		seq: s.counter,
		fn:  fn,
	}
	s.insertLocked(ev)
	s.index[ev.id] = ev

	if s.metrics != nil {
		s.metrics.EventScheduled()
		s.metrics.SetPendingEvents(len(s.events))
	}
	return ev.id, nil
}

// insertLocked places ev into the queue keeping (at, seq) order. Caller must
// hold s.mu. Searching for the first strictly-later fire time preserves
// insertion order among events scheduled for the same instant.
func (s *Scheduler) insertLocked(ev *scheduledEvent) {
	idx := sort.Search(len(s.events), func(i int) bool {
		return s.events[i].at > ev.at
	})
	s.events = append(s.events, nil)
	copy(s.events[idx+1:], s.events[idx:])
	s.events[idx] = ev
}

// Cancel marks a scheduled event as no longer valid. It is a no-op if the
// ID is unknown or the event already fired. The event stays in the queue and
// is skipped at pop time; the queue is never spliced from the middle.
func (s *Scheduler) Cancel(id EventID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.index[id]
	if !ok {
		return
	}
	ev.cancelled = true
	delete(s.index, id)
}

// popDueLocked removes and returns the earliest non-cancelled event with a
// fire time <= until, or nil when none remains in range. Caller must hold s.mu.
func (s *Scheduler) popDueLocked(until time.Duration) *scheduledEvent {
	for len(s.events) > 0 {
		ev := s.events[0]
		if ev.cancelled {
			s.events = s.events[1:]
			continue
		}
		if ev.at > until {
			break
		}
		s.events = s.events[1:]
		delete(s.index, ev.id)
		return ev
	}
	return nil
}

// Run advances the clock, invoking every pending callback whose fire time is
// <= until in (time, insertion) order, then leaves the clock at until. The
// target must be strictly ahead of the current clock.
//
// Callbacks execute synchronously on the calling goroutine. A panicking
// callback is logged and counted but does not stop the run.
func (s *Scheduler) Run(until time.Duration) error {
	s.mu.Lock()
	if until <= s.now {
		now := s.now
		s.mu.Unlock()
		return fmt.Errorf("run until %v with clock at %v: %w", until, now, ErrTargetNotAhead)
	}
	s.mu.Unlock()

	for {
		s.mu.Lock()
		ev := s.popDueLocked(until)
		if ev == nil {
			s.now = until
			if s.metrics != nil {
				s.metrics.SetPendingEvents(len(s.events))
			}
			s.mu.Unlock()
			return nil
		}
		s.now = ev.at
		s.mu.Unlock()

		// Invoke outside the lock so the callback can call Schedule.
		s.invoke(ev)
	}
}

// invoke runs one event with panic isolation. One bad callback must not
// abort the whole simulation.
func (s *Scheduler) invoke(ev *scheduledEvent) {
	defer func() {
		if r := recover(); r != nil {
			if s.metrics != nil {
				s.metrics.CallbackPanicked()
			}
			s.log.Error(context.Background(), "scheduled callback panicked",
				logging.String("event_id", string(ev.id)),
				logging.Duration("sim_time", ev.at),
				logging.Any("panic", r),
			)
		}
	}()

	if s.metrics != nil {
		s.metrics.EventFired()
	}
	if ev.fn != nil {
		ev.fn()
	}
}
