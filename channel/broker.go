package channel

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/signalsfoundry/ransim/internal/logging"
	"github.com/signalsfoundry/ransim/model"
	"github.com/signalsfoundry/ransim/sim"
)

// SubscriberFunc handles one published message. originID identifies the
// element the message originated from.
type SubscriberFunc func(msg model.Message, originID string)

// Broker is the publish/subscribe variant of the channel contract. A publish
// fans the message out to every subscriber present when the delivery was
// scheduled; a subscriber (un)subscribing inside its own callback does not
// change that delivery. Subscribers are invoked in subscriber-ID order so
// fan-out is deterministic, and each invocation is independently isolated.
type Broker struct {
	name    string
	sched   *sim.Scheduler
	log     logging.Logger
	metrics DeliveryRecorder
	delay   DelaySampler

	mu   sync.RWMutex
	subs map[string]SubscriberFunc
}

// BrokerOption customises Broker construction.
type BrokerOption func(*Broker)

// WithBrokerLogger attaches a structured logger.
func WithBrokerLogger(log logging.Logger) BrokerOption {
	return func(b *Broker) {
		if log != nil {
			b.log = log
		}
	}
}

// WithBrokerDelay attaches a transmission-delay sampler.
func WithBrokerDelay(d DelaySampler) BrokerOption {
	return func(b *Broker) { b.delay = d }
}

// WithBrokerDeliveryRecorder attaches a metrics recorder.
func WithBrokerDeliveryRecorder(m DeliveryRecorder) BrokerOption {
	return func(b *Broker) { b.metrics = m }
}

// NewBroker constructs an empty broker for the named interface.
func NewBroker(name string, sched *sim.Scheduler, opts ...BrokerOption) *Broker {
	b := &Broker{
		name:  name,
		sched: sched,
		log:   logging.Noop(),
		subs:  make(map[string]SubscriberFunc),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.With(logging.String("channel", name))
	return b
}

// Name returns the interface name this broker serves.
func (b *Broker) Name() string { return b.name }

// Subscribe registers fn under subscriberID. Re-subscribing replaces the
// previous callback.
func (b *Broker) Subscribe(subscriberID string, fn SubscriberFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[subscriberID] = fn
}

// Unsubscribe removes a subscription. Unknown IDs are a warned no-op.
func (b *Broker) Unsubscribe(subscriberID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[subscriberID]; !ok {
		b.log.Warn(context.Background(), "unsubscribe of unknown subscriber",
			logging.String("subscriber_id", subscriberID))
		return
	}
	delete(b.subs, subscriberID)
}

// Subscribers returns the current number of subscriptions.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Publish queues msg for fan-out to every current subscriber. The subscriber
// set is snapshotted now, at scheduling time, not when the delivery event
// executes: a handler unsubscribing itself mid-delivery still receives this
// message, and subscribers added afterwards do not.
func (b *Broker) Publish(msg model.Message, originID string) error {
	b.mu.RLock()
	ids := make([]string, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	snapshot := make(map[string]SubscriberFunc, len(b.subs))
	for id, fn := range b.subs {
		snapshot[id] = fn
	}
	b.mu.RUnlock()
	sort.Strings(ids)

	var delay time.Duration
	if b.delay != nil {
		delay = b.delay.Sample()
	}
	_, err := b.sched.Schedule(delay, func() {
		for _, id := range ids {
			b.dispatch(snapshot[id], id, msg, originID)
		}
	})
	if err != nil {
		return fmt.Errorf("queue publish on %s: %w", b.name, err)
	}
	return nil
}

// dispatch invokes one subscriber with panic isolation: one failing handler
// must not prevent the remaining subscribers from receiving the message.
func (b *Broker) dispatch(fn SubscriberFunc, subscriberID string, msg model.Message, originID string) {
	defer func() {
		if rec := recover(); rec != nil {
			b.log.Error(context.Background(), "subscriber panicked",
				logging.String("subscriber_id", subscriberID),
				logging.String("msg_type", msg.Type),
				logging.Duration("sim_time", b.sched.Now()),
				logging.Any("panic", rec))
			if b.metrics != nil {
				b.metrics.DeliveryFailed(b.name)
			}
		}
	}()

	fn(msg, originID)
	if b.metrics != nil {
		b.metrics.MessageDelivered(b.name)
	}
}
