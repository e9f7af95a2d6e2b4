// Package channel provides the simulated interface fabric between network
// elements: point-to-point routing with an endpoint registry, fan-out
// publish/subscribe, and composable transmission delay. One router or broker
// instance backs each logical interface (A1, E2, fronthaul).
package channel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/signalsfoundry/ransim/internal/logging"
	"github.com/signalsfoundry/ransim/model"
	"github.com/signalsfoundry/ransim/sim"
)

// Endpoint is the receiving side of a point-to-point channel.
type Endpoint interface {
	Receive(msg model.Message, sourceID string)
}

// AddressError reports a send towards (or from) an ID with no registered
// endpoint. It is returned synchronously from Send so setup mistakes fail
// fast; it is never raised out of the delivery path.
type AddressError struct {
	Channel string
	ID      string
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("channel %s: no endpoint registered with id %q", e.Channel, e.ID)
}

// DeliveryRecorder receives per-channel delivery observations.
type DeliveryRecorder interface {
	MessageDelivered(channel string)
	DeliveryFailed(channel string)
}

// Router is a point-to-point message channel with an endpoint registry.
// Messages are queued through the scheduler and delivered as events, with
// optional sampled transmission delay.
type Router struct {
	name    string
	sched   *sim.Scheduler
	log     logging.Logger
	metrics DeliveryRecorder
	delay   DelaySampler

	mu        sync.RWMutex
	endpoints map[string]Endpoint
}

// RouterOption customises Router construction.
type RouterOption func(*Router)

// WithRouterLogger attaches a structured logger.
func WithRouterLogger(log logging.Logger) RouterOption {
	return func(r *Router) {
		if log != nil {
			r.log = log
		}
	}
}

// WithDelay attaches a transmission-delay sampler; each send is delivered at
// now + sampled delay instead of immediately.
func WithDelay(d DelaySampler) RouterOption {
	return func(r *Router) { r.delay = d }
}

// WithDeliveryRecorder attaches a metrics recorder.
func WithDeliveryRecorder(m DeliveryRecorder) RouterOption {
	return func(r *Router) { r.metrics = m }
}

// NewRouter constructs an empty router for the named interface.
func NewRouter(name string, sched *sim.Scheduler, opts ...RouterOption) *Router {
	r := &Router{
		name:      name,
		sched:     sched,
		log:       logging.Noop(),
		endpoints: make(map[string]Endpoint),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With(logging.String("channel", name))
	return r
}

// Name returns the interface name this router serves.
func (r *Router) Name() string { return r.name }

// Register binds an ID to an endpoint. An ID is unique within a router;
// re-registration is a warned no-op, the original endpoint is kept.
func (r *Router) Register(id string, ep Endpoint) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.endpoints[id]; exists {
		r.log.Warn(context.Background(), "endpoint already registered, keeping existing",
			logging.String("endpoint_id", id))
		return
	}
	r.endpoints[id] = ep
}

// Unregister removes an endpoint binding. Unknown IDs are a warned no-op.
func (r *Router) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.endpoints[id]; !exists {
		r.log.Warn(context.Background(), "unregister of unknown endpoint",
			logging.String("endpoint_id", id))
		return
	}
	delete(r.endpoints, id)
}

// Registered reports whether id has an endpoint bound.
func (r *Router) Registered(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.endpoints[id]
	return ok
}

// Send queues msg for delivery from sourceID to destinationID. Both IDs must
// be registered or Send fails with an AddressError before anything is
// queued. Delivery happens as a scheduler event at now + sampled delay (zero
// without a sampler); a delivery-time failure is logged and counted, never
// raised, and does not affect other queued messages.
func (r *Router) Send(msg model.Message, sourceID, destinationID string) error {
	r.mu.RLock()
	_, srcOK := r.endpoints[sourceID]
	_, dstOK := r.endpoints[destinationID]
	r.mu.RUnlock()

	if !srcOK {
		return &AddressError{Channel: r.name, ID: sourceID}
	}
	if !dstOK {
		return &AddressError{Channel: r.name, ID: destinationID}
	}

	var delay time.Duration
	if r.delay != nil {
		delay = r.delay.Sample()
	}

	_, err := r.sched.Schedule(delay, func() {
		r.deliver(msg, sourceID, destinationID)
	})
	if err != nil {
		return fmt.Errorf("queue delivery on %s: %w", r.name, err)
	}
	return nil
}

// deliver resolves the destination at delivery time and invokes its Receive
// with panic isolation. An endpoint that vanished between send and delivery
// is logged, not raised.
func (r *Router) deliver(msg model.Message, sourceID, destinationID string) {
	r.mu.RLock()
	ep, ok := r.endpoints[destinationID]
	r.mu.RUnlock()

	if !ok {
		r.log.Warn(context.Background(), "destination unregistered before delivery",
			logging.String("endpoint_id", destinationID),
			logging.String("msg_type", msg.Type))
		if r.metrics != nil {
			r.metrics.DeliveryFailed(r.name)
		}
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error(context.Background(), "endpoint receive panicked",
				logging.String("endpoint_id", destinationID),
				logging.String("msg_type", msg.Type),
				logging.Duration("sim_time", r.sched.Now()),
				logging.Any("panic", rec))
			if r.metrics != nil {
				r.metrics.DeliveryFailed(r.name)
			}
		}
	}()

	ep.Receive(msg, sourceID)
	if r.metrics != nil {
		r.metrics.MessageDelivered(r.name)
	}
}
