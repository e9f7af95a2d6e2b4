package ran

import (
	"context"
	"sync"

	"github.com/signalsfoundry/ransim/internal/logging"
	"github.com/signalsfoundry/ransim/model"
)

// OCU is a centralized unit plane: control (O-CU-CP) or user (O-CU-UP).
// Both planes share the same passive contract; only the class tag differs.
type OCU struct {
	id    string
	class model.ElementClass
	log   logging.Logger

	mu       sync.Mutex
	policies map[string]model.Policy
	inbox    []model.Message
}

// NewOCUCP constructs a control-plane centralized unit.
func NewOCUCP(id string, log logging.Logger) *OCU {
	return newOCU(id, model.ClassOCUCP, log)
}

// NewOCUUP constructs a user-plane centralized unit.
func NewOCUUP(id string, log logging.Logger) *OCU {
	return newOCU(id, model.ClassOCUUP, log)
}

func newOCU(id string, class model.ElementClass, log logging.Logger) *OCU {
	if log == nil {
		log = logging.Noop()
	}
	return &OCU{
		id:       id,
		class:    class,
		log:      log.With(logging.String("cu_id", id)),
		policies: make(map[string]model.Policy),
	}
}

func (c *OCU) ID() string                { return c.id }
func (c *OCU) Class() model.ElementClass { return c.class }

// Receive stores non-policy traffic and applies policy messages.
func (c *OCU) Receive(msg model.Message, sourceID string) {
	if msg.Type == model.MsgPolicyApply {
		if p, ok := model.PolicyFromMessage(msg); ok {
			c.ApplyPolicy(p)
		}
		return
	}
	c.mu.Lock()
	c.inbox = append(c.inbox, msg)
	c.mu.Unlock()
	c.log.Debug(context.Background(), "message received",
		logging.String("msg_type", msg.Type),
		logging.String("source", sourceID))
}

// ApplyPolicy stores the policy keyed by ID, last write wins.
func (c *OCU) ApplyPolicy(p model.Policy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.policies[p.ID] = p
}

// AppliedPolicy returns the stored copy of a policy, if present.
func (c *OCU) AppliedPolicy(id string) (model.Policy, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.policies[id]
	return p, ok
}
