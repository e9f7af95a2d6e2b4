// Package ric implements the two-tier control hierarchy: the Near-RT RIC
// enforcing policies against directly managed elements, and the Non-RT RIC
// authoring and distributing them over the A1 channel.
package ric

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/signalsfoundry/ransim/channel"
	"github.com/signalsfoundry/ransim/internal/logging"
	"github.com/signalsfoundry/ransim/model"
	"github.com/signalsfoundry/ransim/ran"
	"github.com/signalsfoundry/ransim/sim"
)

var (
	// ErrUnknownTargetClass indicates a policy targets no declared element class.
	ErrUnknownTargetClass = errors.New("unknown target element class")
	// ErrUnknownElementClass indicates an element declares no known class tag.
	ErrUnknownElementClass = errors.New("unknown element class")
	// ErrElementExists indicates the element ID is already registered.
	ErrElementExists = errors.New("element already registered")
	// ErrElementNotFound indicates the element ID is not registered.
	ErrElementNotFound = errors.New("element not found")
)

// ValidationError wraps the reason a received policy was discarded. It is
// reported to the caller and logged, never raised out of the delivery path.
type ValidationError struct {
	PolicyID string
	Reason   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid policy %q: %v", e.PolicyID, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Reason }

// PolicyMetricsRecorder receives policy lifecycle observations.
type PolicyMetricsRecorder interface {
	PolicyStored()
	PolicyRejected()
	PolicyEnforced()
	SetElementCount(n int)
}

// NearRTRIC is the fast control tier. It owns the set of managed elements
// and the active policies in its scope, enforces policies against elements
// matching each policy's target class, and republishes element indications
// to xApp observers through the indication broker.
//
// The RIC itself is an endpoint on both the A1 and E2 channels: policies
// arrive through Receive, as do element indications.
type NearRTRIC struct {
	id       string
	sched    *sim.Scheduler
	log      logging.Logger
	metrics  PolicyMetricsRecorder
	validate *validator.Validate

	e2          *channel.Router
	indications *channel.Broker

	mu       sync.Mutex
	elements map[string]ran.Element
	policies map[string]model.Policy
	xapps    map[string]XApp
}

// NearRTOption customises NearRTRIC construction.
type NearRTOption func(*NearRTRIC)

// WithNearRTLogger attaches a structured logger.
func WithNearRTLogger(log logging.Logger) NearRTOption {
	return func(r *NearRTRIC) {
		if log != nil {
			r.log = log
		}
	}
}

// WithPolicyMetrics attaches a metrics recorder.
func WithPolicyMetrics(m PolicyMetricsRecorder) NearRTOption {
	return func(r *NearRTRIC) { r.metrics = m }
}

// NewNearRTRIC constructs a Near-RT RIC wired to its E2 router and
// indication broker. The RIC registers itself on the E2 router so elements
// can address indications to it.
func NewNearRTRIC(id string, sched *sim.Scheduler, e2 *channel.Router, indications *channel.Broker, opts ...NearRTOption) *NearRTRIC {
	r := &NearRTRIC{
		id:          id,
		sched:       sched,
		log:         logging.Noop(),
		validate:    validator.New(),
		e2:          e2,
		indications: indications,
		elements:    make(map[string]ran.Element),
		policies:    make(map[string]model.Policy),
		xapps:       make(map[string]XApp),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With(logging.String("ric_id", id))
	if e2 != nil {
		e2.Register(id, r)
	}
	return r
}

// ID returns the controller's logical identifier.
func (r *NearRTRIC) ID() string { return r.id }

// RegisterElement admits an element to the RIC's scope. The element's class
// tag is checked at registration so enforcement never has to guess; elements
// that receive messages are also registered on the E2 channel.
func (r *NearRTRIC) RegisterElement(el ran.Element) error {
	if !model.KnownElementClass(el.Class()) {
		return fmt.Errorf("register %q with class %q: %w", el.ID(), el.Class(), ErrUnknownElementClass)
	}

	r.mu.Lock()
	if _, exists := r.elements[el.ID()]; exists {
		r.mu.Unlock()
		return fmt.Errorf("register %q: %w", el.ID(), ErrElementExists)
	}
	r.elements[el.ID()] = el
	count := len(r.elements)
	r.mu.Unlock()

	if ep, ok := el.(channel.Endpoint); ok && r.e2 != nil {
		r.e2.Register(el.ID(), ep)
	}
	if r.metrics != nil {
		r.metrics.SetElementCount(count)
	}
	r.log.Info(context.Background(), "element registered",
		logging.String("element_id", el.ID()),
		logging.String("class", string(el.Class())))
	return nil
}

// RemoveElement drops an element from the RIC's scope and from the E2
// channel.
func (r *NearRTRIC) RemoveElement(elementID string) error {
	r.mu.Lock()
	if _, exists := r.elements[elementID]; !exists {
		r.mu.Unlock()
		return fmt.Errorf("remove %q: %w", elementID, ErrElementNotFound)
	}
	delete(r.elements, elementID)
	count := len(r.elements)
	r.mu.Unlock()

	if r.e2 != nil {
		r.e2.Unregister(elementID)
	}
	if r.metrics != nil {
		r.metrics.SetElementCount(count)
	}
	return nil
}

// Element returns a registered element by ID.
func (r *NearRTRIC) Element(elementID string) (ran.Element, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	el, ok := r.elements[elementID]
	return el, ok
}

// ReceivePolicy validates and stores a policy. Invalid policies are
// discarded with a logged ValidationError; a later policy with the same ID
// overwrites the stored one (last write wins).
func (r *NearRTRIC) ReceivePolicy(p model.Policy) error {
	if err := r.validatePolicy(p); err != nil {
		verr := &ValidationError{PolicyID: p.ID, Reason: err}
		if r.metrics != nil {
			r.metrics.PolicyRejected()
		}
		r.log.Error(context.Background(), "policy rejected",
			logging.String("policy_id", p.ID),
			logging.Err(verr))
		return verr
	}

	r.mu.Lock()
	r.policies[p.ID] = p.Clone()
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.PolicyStored()
	}
	r.log.Info(context.Background(), "policy stored",
		logging.String("policy_id", p.ID),
		logging.String("policy_type", string(p.Type)),
		logging.String("target", string(p.Target)))
	return nil
}

func (r *NearRTRIC) validatePolicy(p model.Policy) error {
	if err := r.validate.Struct(p); err != nil {
		return err
	}
	if !model.KnownElementClass(p.Target) {
		return fmt.Errorf("target %q: %w", p.Target, ErrUnknownTargetClass)
	}
	return nil
}

// Policy returns the stored copy of a policy, if present.
func (r *NearRTRIC) Policy(policyID string) (model.Policy, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.policies[policyID]
	return p, ok
}

// PolicyCount returns the number of stored policies.
func (r *NearRTRIC) PolicyCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.policies)
}

// EnforcePolicies sweeps every stored policy over every registered element
// whose class matches the policy's target, scheduling a policy-application
// message to each match over the E2 channel. The sweep is idempotent:
// repeating it with unchanged state schedules the same set of applications.
// Policies and elements are visited in ID order so enforcement is
// deterministic.
func (r *NearRTRIC) EnforcePolicies() {
	r.mu.Lock()
	policies := make([]model.Policy, 0, len(r.policies))
	for _, p := range r.policies {
		policies = append(policies, p)
	}
	elements := make([]ran.Element, 0, len(r.elements))
	for _, el := range r.elements {
		elements = append(elements, el)
	}
	r.mu.Unlock()

	sort.Slice(policies, func(i, j int) bool { return policies[i].ID < policies[j].ID })
	sort.Slice(elements, func(i, j int) bool { return elements[i].ID() < elements[j].ID() })

	ctx := context.Background()
	for _, p := range policies {
		for _, el := range elements {
			if el.Class() != p.Target {
				continue
			}
			if err := r.e2.Send(model.PolicyMessage(model.MsgPolicyApply, p), r.id, el.ID()); err != nil {
				r.log.Error(ctx, "policy application not scheduled",
					logging.String("policy_id", p.ID),
					logging.String("element_id", el.ID()),
					logging.Err(err))
				continue
			}
			if r.metrics != nil {
				r.metrics.PolicyEnforced()
			}
			r.log.Info(ctx, "policy application scheduled",
				logging.String("policy_id", p.ID),
				logging.String("element_id", el.ID()))
		}
	}
}

// AddXApp registers an observer. Indications reach it through the pub/sub
// broker, never by direct call, so one xApp failing cannot affect another.
func (r *NearRTRIC) AddXApp(x XApp) {
	r.mu.Lock()
	r.xapps[x.ID()] = x
	r.mu.Unlock()
	r.indications.Subscribe(x.ID(), x.HandleIndication)
	r.log.Info(context.Background(), "xapp registered", logging.String("xapp_id", x.ID()))
}

// RemoveXApp unregisters an observer.
func (r *NearRTRIC) RemoveXApp(xappID string) {
	r.mu.Lock()
	delete(r.xapps, xappID)
	r.mu.Unlock()
	r.indications.Unsubscribe(xappID)
}

// Receive handles traffic addressed to the RIC itself: A1 policy updates
// are stored, everything else is an element indication republished to xApps.
func (r *NearRTRIC) Receive(msg model.Message, sourceID string) {
	switch msg.Type {
	case model.MsgPolicyUpdate:
		p, ok := model.PolicyFromMessage(msg)
		if !ok {
			r.log.Error(context.Background(), "policy update without policy payload",
				logging.String("source", sourceID))
			return
		}
		// Delivery-path errors are reported by ReceivePolicy itself.
		_ = r.ReceivePolicy(p)
	default:
		if err := r.indications.Publish(msg, sourceID); err != nil {
			r.log.Error(context.Background(), "indication publish failed",
				logging.String("msg_type", msg.Type),
				logging.Err(err))
		}
	}
}
