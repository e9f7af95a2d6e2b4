// Package ran holds the simulated network elements: radio units,
// distributed units, centralized control/user-plane units, and user
// terminals. Elements are passive data holders; they receive messages,
// configuration, and policies through the channel fabric and mutate only
// their own state.
package ran

import (
	"github.com/signalsfoundry/ransim/model"
)

// Element is the minimal identity every simulated node carries. The class
// tag is declared, not inferred from the concrete type; controllers match
// policy targets against it.
type Element interface {
	ID() string
	Class() model.ElementClass
}
