// Package observability exposes the simulator's observation hooks as
// Prometheus metrics: event counts, per-channel delivery counts, and policy
// lifecycle counts. A collector satisfies the recorder interfaces declared
// by sim, channel, and ric, so components stay free of any metrics backend.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SimCollector bundles Prometheus metrics for one simulation run.
type SimCollector struct {
	gatherer prometheus.Gatherer

	EventsScheduled prometheus.Counter
	EventsFired     prometheus.Counter
	CallbackPanics  prometheus.Counter
	PendingEvents   prometheus.Gauge

	MessagesDelivered *prometheus.CounterVec
	DeliveryFailures  *prometheus.CounterVec

	PoliciesStored   prometheus.Counter
	PoliciesRejected prometheus.Counter
	PoliciesEnforced prometheus.Counter
	ManagedElements  prometheus.Gauge
}

// NewSimCollector registers simulation metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewSimCollector(reg prometheus.Registerer) (*SimCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	scheduled, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_events_scheduled_total",
		Help: "Total number of events inserted into the scheduler queue.",
	}), "sim_events_scheduled_total")
	if err != nil {
		return nil, err
	}
	fired, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_events_fired_total",
		Help: "Total number of scheduled callbacks invoked.",
	}), "sim_events_fired_total")
	if err != nil {
		return nil, err
	}
	panics, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_callback_panics_total",
		Help: "Total number of scheduled callbacks that panicked and were isolated.",
	}), "sim_callback_panics_total")
	if err != nil {
		return nil, err
	}
	pending, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_pending_events",
		Help: "Current number of events in the scheduler queue.",
	}), "sim_pending_events")
	if err != nil {
		return nil, err
	}

	delivered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "channel_messages_delivered_total",
		Help: "Total messages delivered, labeled by channel.",
	}, []string{"channel"})
	delivered, err = registerCounterVec(reg, delivered, "channel_messages_delivered_total")
	if err != nil {
		return nil, err
	}
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "channel_delivery_failures_total",
		Help: "Total delivery-time failures, labeled by channel.",
	}, []string{"channel"})
	failures, err = registerCounterVec(reg, failures, "channel_delivery_failures_total")
	if err != nil {
		return nil, err
	}

	stored, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ric_policies_stored_total",
		Help: "Total policies accepted and stored by Near-RT RICs.",
	}), "ric_policies_stored_total")
	if err != nil {
		return nil, err
	}
	rejected, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ric_policies_rejected_total",
		Help: "Total policies discarded by validation.",
	}), "ric_policies_rejected_total")
	if err != nil {
		return nil, err
	}
	enforced, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ric_policy_applications_total",
		Help: "Total policy applications scheduled towards elements.",
	}), "ric_policy_applications_total")
	if err != nil {
		return nil, err
	}
	elements, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ric_managed_elements",
		Help: "Current number of elements registered with Near-RT RICs.",
	}), "ric_managed_elements")
	if err != nil {
		return nil, err
	}

	return &SimCollector{
		gatherer:          gatherer,
		EventsScheduled:   scheduled,
		EventsFired:       fired,
		CallbackPanics:    panics,
		PendingEvents:     pending,
		MessagesDelivered: delivered,
		DeliveryFailures:  failures,
		PoliciesStored:    stored,
		PoliciesRejected:  rejected,
		PoliciesEnforced:  enforced,
		ManagedElements:   elements,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SimCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// EventScheduled satisfies sim.MetricsRecorder.
func (c *SimCollector) EventScheduled() {
	if c == nil || c.EventsScheduled == nil {
		return
	}
	c.EventsScheduled.Inc()
}

// EventFired satisfies sim.MetricsRecorder.
func (c *SimCollector) EventFired() {
	if c == nil || c.EventsFired == nil {
		return
	}
	c.EventsFired.Inc()
}

// CallbackPanicked satisfies sim.MetricsRecorder.
func (c *SimCollector) CallbackPanicked() {
	if c == nil || c.CallbackPanics == nil {
		return
	}
	c.CallbackPanics.Inc()
}

// SetPendingEvents satisfies sim.MetricsRecorder.
func (c *SimCollector) SetPendingEvents(n int) {
	if c == nil || c.PendingEvents == nil {
		return
	}
	c.PendingEvents.Set(float64(n))
}

// MessageDelivered satisfies channel.DeliveryRecorder.
func (c *SimCollector) MessageDelivered(channel string) {
	if c == nil || c.MessagesDelivered == nil {
		return
	}
	c.MessagesDelivered.WithLabelValues(channel).Inc()
}

// DeliveryFailed satisfies channel.DeliveryRecorder.
func (c *SimCollector) DeliveryFailed(channel string) {
	if c == nil || c.DeliveryFailures == nil {
		return
	}
	c.DeliveryFailures.WithLabelValues(channel).Inc()
}

// PolicyStored satisfies ric.PolicyMetricsRecorder.
func (c *SimCollector) PolicyStored() {
	if c == nil || c.PoliciesStored == nil {
		return
	}
	c.PoliciesStored.Inc()
}

// PolicyRejected satisfies ric.PolicyMetricsRecorder.
func (c *SimCollector) PolicyRejected() {
	if c == nil || c.PoliciesRejected == nil {
		return
	}
	c.PoliciesRejected.Inc()
}

// PolicyEnforced satisfies ric.PolicyMetricsRecorder.
func (c *SimCollector) PolicyEnforced() {
	if c == nil || c.PoliciesEnforced == nil {
		return
	}
	c.PoliciesEnforced.Inc()
}

// SetElementCount satisfies ric.PolicyMetricsRecorder.
func (c *SimCollector) SetElementCount(n int) {
	if c == nil || c.ManagedElements == nil {
		return
	}
	c.ManagedElements.Set(float64(n))
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
