package ric

import (
	"context"
	"fmt"
	"sync"

	"github.com/signalsfoundry/ransim/channel"
	"github.com/signalsfoundry/ransim/internal/logging"
	"github.com/signalsfoundry/ransim/model"
	"github.com/signalsfoundry/ransim/sim"
)

// NonRTRIC is the slow control tier. It owns the policy lifecycle and the
// registry of managed Near-RT RICs, and pushes policies to them over the A1
// point-to-point channel.
type NonRTRIC struct {
	id    string
	sched *sim.Scheduler
	log   logging.Logger

	a1 *channel.Router

	mu            sync.Mutex
	policyCounter int
	managed       map[string]*NearRTRIC
	rapps         map[string]RApp
}

// NonRTOption customises NonRTRIC construction.
type NonRTOption func(*NonRTRIC)

// WithNonRTLogger attaches a structured logger.
func WithNonRTLogger(log logging.Logger) NonRTOption {
	return func(r *NonRTRIC) {
		if log != nil {
			r.log = log
		}
	}
}

// NewNonRTRIC constructs a Non-RT RIC sending over the given A1 router. The
// RIC registers itself on the router as the policy source endpoint.
func NewNonRTRIC(id string, sched *sim.Scheduler, a1 *channel.Router, opts ...NonRTOption) *NonRTRIC {
	r := &NonRTRIC{
		id:      id,
		sched:   sched,
		log:     logging.Noop(),
		a1:      a1,
		managed: make(map[string]*NearRTRIC),
		rapps:   make(map[string]RApp),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With(logging.String("ric_id", id))
	if a1 != nil {
		a1.Register(id, nonRTEndpoint{r})
	}
	return r
}

// nonRTEndpoint satisfies the A1 channel's endpoint contract for the policy
// source side. The Non-RT RIC only sends on A1; inbound traffic is dropped
// with a log line.
type nonRTEndpoint struct{ r *NonRTRIC }

func (e nonRTEndpoint) Receive(msg model.Message, sourceID string) {
	e.r.log.Debug(context.Background(), "unexpected message on A1",
		logging.String("msg_type", msg.Type),
		logging.String("source", sourceID))
}

// ID returns the controller's logical identifier.
func (r *NonRTRIC) ID() string { return r.id }

// CreatePolicy authors a policy with a fresh unique ID from the controller's
// monotonic counter. The returned value is the origin copy; distribution
// clones it, so the caller may hold it without sharing mutable state.
func (r *NonRTRIC) CreatePolicy(t model.PolicyType, content map[string]any, target model.ElementClass) model.Policy {
	r.mu.Lock()
	r.policyCounter++
	id := fmt.Sprintf("policy-%d", r.policyCounter)
	r.mu.Unlock()

	p := model.Policy{
		ID:      id,
		Type:    t,
		Content: content,
		Version: 1,
		Target:  target,
	}
	r.log.Info(context.Background(), "policy created",
		logging.String("policy_id", id),
		logging.String("policy_type", string(t)),
		logging.String("target", string(target)))
	return p.Clone()
}

// UpdatePolicy replaces a policy's content and bumps its version. The input
// is unchanged; the updated policy is returned as a new value.
func (r *NonRTRIC) UpdatePolicy(p model.Policy, content map[string]any) model.Policy {
	out := p.Clone()
	out.Content = content
	out.Version = p.Version + 1
	return out.Clone()
}

// DistributePolicy transmits a policy to the named Near-RT RIC over A1. A
// target outside the managed set fails fast with an AddressError; the policy
// crosses the channel by value.
func (r *NonRTRIC) DistributePolicy(p model.Policy, nearRTID string) error {
	r.mu.Lock()
	_, managed := r.managed[nearRTID]
	r.mu.Unlock()
	if !managed {
		return &channel.AddressError{Channel: r.a1.Name(), ID: nearRTID}
	}

	if err := r.a1.Send(model.PolicyMessage(model.MsgPolicyUpdate, p), r.id, nearRTID); err != nil {
		return fmt.Errorf("distribute policy %q: %w", p.ID, err)
	}
	r.log.Info(context.Background(), "policy distributed",
		logging.String("policy_id", p.ID),
		logging.String("near_rt_ric", nearRTID))
	return nil
}

// AddManagedRIC appends a Near-RT RIC to the managed set and registers it on
// the A1 channel. Adding the same RIC again is a no-op.
func (r *NonRTRIC) AddManagedRIC(nearRT *NearRTRIC) {
	r.mu.Lock()
	if _, exists := r.managed[nearRT.ID()]; exists {
		r.mu.Unlock()
		return
	}
	r.managed[nearRT.ID()] = nearRT
	r.mu.Unlock()

	if r.a1 != nil {
		r.a1.Register(nearRT.ID(), nearRT)
	}
	r.log.Info(context.Background(), "near-rt ric managed",
		logging.String("near_rt_ric", nearRT.ID()))
}

// ManagedRICs returns the number of managed Near-RT RICs.
func (r *NonRTRIC) ManagedRICs() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.managed)
}

// AddRApp registers a policy-authoring application with the controller.
func (r *NonRTRIC) AddRApp(app RApp) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rapps[app.ID()] = app
}

// RemoveRApp unregisters a policy-authoring application.
func (r *NonRTRIC) RemoveRApp(rappID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rapps[rappID]; !ok {
		r.log.Warn(context.Background(), "remove of unknown rapp",
			logging.String("rapp_id", rappID))
		return
	}
	delete(r.rapps, rappID)
}
