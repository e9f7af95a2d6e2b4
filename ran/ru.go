package ran

import (
	"context"
	"sync"

	"github.com/signalsfoundry/ransim/channel"
	"github.com/signalsfoundry/ransim/internal/logging"
	"github.com/signalsfoundry/ransim/model"
)

// RUConfig holds the radio unit's RF parameters.
type RUConfig struct {
	FrequencyHz      float64
	BandwidthHz      float64
	TransmitPowerDBm float64
	SamplesPerSlot   int
}

// DefaultRUConfig mirrors the baseline 3.5 GHz / 100 MHz radio.
func DefaultRUConfig() RUConfig {
	return RUConfig{
		FrequencyHz:      3.5e9,
		BandwidthHz:      100e6,
		TransmitPowerDBm: 46.0,
		SamplesPerSlot:   1024,
	}
}

// ORU is a radio unit. It pushes uplink IQ payloads to its O-DU over the
// fronthaul channel; the payload stays opaque, only its shape is modeled.
type ORU struct {
	id  string
	log logging.Logger

	fronthaul *channel.Router

	mu       sync.Mutex
	cfg      RUConfig
	sent     int
	policies map[string]model.Policy
}

// NewORU constructs a radio unit attached to the given fronthaul channel.
func NewORU(id string, cfg RUConfig, fronthaul *channel.Router, log logging.Logger) *ORU {
	if log == nil {
		log = logging.Noop()
	}
	return &ORU{
		id:        id,
		cfg:       cfg,
		log:       log.With(logging.String("ru_id", id)),
		fronthaul: fronthaul,
		policies:  make(map[string]model.Policy),
	}
}

func (r *ORU) ID() string                { return r.id }
func (r *ORU) Class() model.ElementClass { return model.ClassORU }

// Config returns a copy of the current radio parameters.
func (r *ORU) Config() RUConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cfg
}

// SendUplink transmits one slot worth of uplink IQ towards duID over the
// fronthaul. Transmission delay is whatever the fronthaul channel samples.
func (r *ORU) SendUplink(duID string) error {
	r.mu.Lock()
	samples := r.cfg.SamplesPerSlot
	r.sent++
	r.mu.Unlock()

	msg := model.NewMessage(model.MsgUplinkIQ, map[string]any{
		"samples": samples,
	})
	return r.fronthaul.Send(msg, r.id, duID)
}

// SentUplinks returns how many uplink slots have been transmitted.
func (r *ORU) SentUplinks() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent
}

// Receive handles policy application; radio units ignore other traffic.
func (r *ORU) Receive(msg model.Message, sourceID string) {
	switch msg.Type {
	case model.MsgPolicyApply:
		if p, ok := model.PolicyFromMessage(msg); ok {
			r.ApplyPolicy(p)
		}
	default:
		r.log.Debug(context.Background(), "unhandled message",
			logging.String("msg_type", msg.Type),
			logging.String("source", sourceID))
	}
}

// ApplyPolicy stores the policy keyed by ID, last write wins.
func (r *ORU) ApplyPolicy(p model.Policy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies[p.ID] = p
}

// AppliedPolicy returns the stored copy of a policy, if present.
func (r *ORU) AppliedPolicy(id string) (model.Policy, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.policies[id]
	return p, ok
}

// ApplyConfig applies the O1 configuration fields relevant to an RU.
func (r *ORU) ApplyConfig(cfg model.NodeConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cfg.FrequencyHz != 0 {
		r.cfg.FrequencyHz = cfg.FrequencyHz
	}
	if cfg.BandwidthHz != 0 {
		r.cfg.BandwidthHz = cfg.BandwidthHz
	}
	if cfg.TransmitPowerDBm != 0 {
		r.cfg.TransmitPowerDBm = cfg.TransmitPowerDBm
	}
}
