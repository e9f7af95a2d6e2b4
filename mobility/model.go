// Package mobility provides movement strategies for user terminals and the
// engine that drives per-entity position-update processes on the virtual
// clock.
package mobility

import (
	"math"
	"math/rand"
	"time"
)

// Position is a 2-D coordinate in the simulation area.
type Position struct {
	X, Y float64
}

func (p Position) distanceTo(o Position) float64 {
	return math.Hypot(o.X-p.X, o.Y-p.Y)
}

// Model computes an entity's next position from its current position and the
// elapsed virtual time since the previous update. Implementations may keep
// per-entity state (targets, pause timers); one Model instance drives one
// entity.
type Model interface {
	Next(current Position, elapsed time.Duration) Position
}

// RandomWalk displaces the entity by StepSize x elapsed in a uniformly
// random direction each tick. It keeps no state between ticks.
type RandomWalk struct {
	StepSize float64

	rng *rand.Rand
}

// NewRandomWalk constructs a random-walk model with the given step size in
// distance units per second.
func NewRandomWalk(stepSize float64, rng *rand.Rand) *RandomWalk {
	return &RandomWalk{StepSize: stepSize, rng: rng}
}

func (m *RandomWalk) Next(current Position, elapsed time.Duration) Position {
	angle := m.rng.Float64() * 2 * math.Pi
	sec := elapsed.Seconds()
	return Position{
		X: current.X + m.StepSize*math.Cos(angle)*sec,
		Y: current.Y + m.StepSize*math.Sin(angle)*sec,
	}
}

// RandomWaypoint alternates between moving at fixed speed towards a random
// target inside a bounded area and pausing there for a normally-distributed
// duration. The first tick draws a target and transitions without
// displacement; reaching a target snaps the position exactly onto it.
type RandomWaypoint struct {
	Speed     float64 // distance units per second
	Width     float64 // area extent on X
	Height    float64 // area extent on Y
	PauseMean time.Duration
	PauseStd  time.Duration

	rng        *rand.Rand
	target     *Position
	paused     bool
	pauseTimer float64 // seconds accumulated while paused
	pauseDur   float64 // seconds sampled for the current pause
}

// NewRandomWaypoint constructs a waypoint model over a Width x Height area.
func NewRandomWaypoint(speed, width, height float64, pauseMean, pauseStd time.Duration, rng *rand.Rand) *RandomWaypoint {
	return &RandomWaypoint{
		Speed:     speed,
		Width:     width,
		Height:    height,
		PauseMean: pauseMean,
		PauseStd:  pauseStd,
		rng:       rng,
	}
}

// Paused reports whether the model is currently in its pause state.
func (m *RandomWaypoint) Paused() bool { return m.paused }

// Target returns the current waypoint, if one is set.
func (m *RandomWaypoint) Target() (Position, bool) {
	if m.target == nil {
		return Position{}, false
	}
	return *m.target, true
}

func (m *RandomWaypoint) Next(current Position, elapsed time.Duration) Position {
	sec := elapsed.Seconds()

	if m.paused {
		m.pauseTimer += sec
		if m.pauseTimer >= m.pauseDur {
			m.paused = false
			m.pauseTimer = 0
			t := m.samplePoint()
			m.target = &t
		}
		return current
	}

	// No target yet (first tick) or standing on the target: draw a fresh
	// target and pause. Position does not change this tick.
	if m.target == nil || current.distanceTo(*m.target) == 0 {
		t := m.samplePoint()
		m.target = &t
		m.enterPause()
		return current
	}

	dist := current.distanceTo(*m.target)
	reach := m.Speed * sec
	if dist <= reach {
		// Snap exactly onto the target and start pausing.
		pos := *m.target
		m.enterPause()
		return pos
	}

	return Position{
		X: current.X + (m.target.X-current.X)/dist*reach,
		Y: current.Y + (m.target.Y-current.Y)/dist*reach,
	}
}

func (m *RandomWaypoint) enterPause() {
	m.paused = true
	m.pauseTimer = 0
	m.pauseDur = math.Max(0, m.rng.NormFloat64()*m.PauseStd.Seconds()+m.PauseMean.Seconds())
}

func (m *RandomWaypoint) samplePoint() Position {
	return Position{
		X: m.rng.Float64() * m.Width,
		Y: m.rng.Float64() * m.Height,
	}
}

// Manhattan confines movement to axis-aligned segments of a fixed block
// size. When no target is set the model picks a random in-bounds neighbour
// of the current grid cell and moves towards it at fixed speed, snapping on
// arrival.
type Manhattan struct {
	Speed     float64 // distance units per second
	Rows      int
	Cols      int
	BlockSize float64

	rng    *rand.Rand
	target *Position
}

// NewManhattan constructs a grid-constrained model over Rows x Cols blocks.
func NewManhattan(speed float64, rows, cols int, blockSize float64, rng *rand.Rand) *Manhattan {
	return &Manhattan{Speed: speed, Rows: rows, Cols: cols, BlockSize: blockSize, rng: rng}
}

// Target returns the current grid target, if one is set.
func (m *Manhattan) Target() (Position, bool) {
	if m.target == nil {
		return Position{}, false
	}
	return *m.target, true
}

func (m *Manhattan) Next(current Position, elapsed time.Duration) Position {
	if m.target == nil || current.distanceTo(*m.target) == 0 {
		m.target = m.pickNeighbour(current)
		return current
	}

	dist := current.distanceTo(*m.target)
	reach := m.Speed * elapsed.Seconds()
	if dist <= reach {
		return *m.target
	}
	return Position{
		X: current.X + (m.target.X-current.X)/dist*reach,
		Y: current.Y + (m.target.Y-current.Y)/dist*reach,
	}
}

// pickNeighbour chooses a random valid adjacent grid cell of the cell
// containing current and returns its corner as the new target.
func (m *Manhattan) pickNeighbour(current Position) *Position {
	row := int(current.Y / m.BlockSize)
	col := int(current.X / m.BlockSize)

	type cell struct{ col, row int }
	var moves []cell
	if row > 0 {
		moves = append(moves, cell{col, row - 1})
	}
	if row < m.Rows-1 {
		moves = append(moves, cell{col, row + 1})
	}
	if col > 0 {
		moves = append(moves, cell{col - 1, row})
	}
	if col < m.Cols-1 {
		moves = append(moves, cell{col + 1, row})
	}
	if len(moves) == 0 {
		return &Position{X: current.X, Y: current.Y}
	}

	next := moves[m.rng.Intn(len(moves))]
	return &Position{
		X: float64(next.col) * m.BlockSize,
		Y: float64(next.row) * m.BlockSize,
	}
}
