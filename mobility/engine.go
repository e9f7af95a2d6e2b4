package mobility

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/signalsfoundry/ransim/internal/logging"
	"github.com/signalsfoundry/ransim/sim"
)

// DefaultTick is the position-update interval used when the engine is
// constructed with a non-positive tick.
const DefaultTick = 100 * time.Millisecond

var (
	// ErrAlreadyTracked indicates the entity is already driven by the engine.
	ErrAlreadyTracked = errors.New("entity already tracked")
	// ErrNotTracked indicates the entity is unknown to the engine.
	ErrNotTracked = errors.New("entity not tracked")
)

// Entity is anything whose position the engine updates periodically.
type Entity interface {
	ID() string
	UpdatePosition(elapsed time.Duration)
}

// Engine drives one self-rescheduling process per tracked entity, invoking
// its position update every tick of virtual time.
type Engine struct {
	sched *sim.Scheduler
	tick  time.Duration
	log   logging.Logger

	mu    sync.Mutex
	procs map[string]*sim.Process
}

// NewEngine constructs a mobility engine updating entities every tick.
func NewEngine(sched *sim.Scheduler, tick time.Duration, log logging.Logger) *Engine {
	if tick <= 0 {
		tick = DefaultTick
	}
	if log == nil {
		log = logging.Noop()
	}
	return &Engine{
		sched: sched,
		tick:  tick,
		log:   log,
		procs: make(map[string]*sim.Process),
	}
}

// Track admits an entity to the simulation and starts its update process.
func (e *Engine) Track(entity Entity) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := entity.ID()
	if _, exists := e.procs[id]; exists {
		return fmt.Errorf("track %q: %w", id, ErrAlreadyTracked)
	}

	proc, err := e.sched.Every(e.tick, func(elapsed time.Duration) {
		entity.UpdatePosition(elapsed)
	})
	if err != nil {
		return fmt.Errorf("track %q: %w", id, err)
	}
	e.procs[id] = proc

	e.log.Debug(context.Background(), "entity tracked",
		logging.String("entity_id", id),
		logging.Duration("tick", e.tick))
	return nil
}

// Untrack stops an entity's update process.
func (e *Engine) Untrack(entityID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	proc, ok := e.procs[entityID]
	if !ok {
		return fmt.Errorf("untrack %q: %w", entityID, ErrNotTracked)
	}
	proc.Stop()
	delete(e.procs, entityID)
	return nil
}

// Tracked returns the number of entities currently driven by the engine.
func (e *Engine) Tracked() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.procs)
}
