package ran

import (
	"sync"
	"time"

	"github.com/signalsfoundry/ransim/mobility"
	"github.com/signalsfoundry/ransim/model"
)

// UE is a user terminal moving through the simulation area under a mobility
// model.
type UE struct {
	id       string
	mobility mobility.Model

	mu          sync.Mutex
	pos         mobility.Position
	servingCell string
	updates     int
}

// NewUE constructs a terminal at the given initial position.
func NewUE(id string, initial mobility.Position, m mobility.Model) *UE {
	return &UE{id: id, pos: initial, mobility: m}
}

func (u *UE) ID() string                { return u.id }
func (u *UE) Class() model.ElementClass { return model.ClassUE }

// Position returns the terminal's current position.
func (u *UE) Position() mobility.Position {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.pos
}

// UpdatePosition advances the terminal per its mobility model.
func (u *UE) UpdatePosition(elapsed time.Duration) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.pos = u.mobility.Next(u.pos, elapsed)
	u.updates++
}

// PositionUpdates returns how many mobility ticks the terminal has seen.
func (u *UE) PositionUpdates() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.updates
}

// ServingCell returns the terminal's current serving cell ID.
func (u *UE) ServingCell() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.servingCell
}

// SetServingCell records a cell (re)selection.
func (u *UE) SetServingCell(cellID string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.servingCell = cellID
}
