package ran

import (
	"context"
	"sync"

	"github.com/signalsfoundry/ransim/channel"
	"github.com/signalsfoundry/ransim/internal/logging"
	"github.com/signalsfoundry/ransim/model"
)

// DUConfig holds the distributed unit's cell parameters.
type DUConfig struct {
	CellID           int
	MaxUEs           int
	TransmitPowerDBm float64
}

// DefaultDUConfig mirrors the baseline cell used across scenarios.
func DefaultDUConfig(cellID int) DUConfig {
	return DUConfig{
		CellID:           cellID,
		MaxUEs:           100,
		TransmitPowerDBm: 46.0,
	}
}

// LoadReportThreshold is the cell-load fraction above which ReportLoad emits
// a KPM indication.
const LoadReportThreshold = 0.7

// ODU is a distributed unit. It terminates the fronthaul from its O-RUs and
// the E2 interface towards the Near-RT RIC.
type ODU struct {
	id  string
	cfg DUConfig
	log logging.Logger

	e2    *channel.Router
	ricID string

	mu           sync.Mutex
	connectedUEs int
	uplinks      int
	policies     map[string]model.Policy
	applications int
	controls     []model.Message
}

// NewODU constructs a distributed unit. e2 and ricID wire its reporting
// path; both may be left zero for elements used outside a control loop.
func NewODU(id string, cfg DUConfig, e2 *channel.Router, ricID string, log logging.Logger) *ODU {
	if log == nil {
		log = logging.Noop()
	}
	return &ODU{
		id:       id,
		cfg:      cfg,
		log:      log.With(logging.String("du_id", id)),
		e2:       e2,
		ricID:    ricID,
		policies: make(map[string]model.Policy),
	}
}

func (d *ODU) ID() string                { return d.id }
func (d *ODU) Class() model.ElementClass { return model.ClassODU }

// Config returns a copy of the current cell parameters.
func (d *ODU) Config() DUConfig {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

// AttachUE accounts one more connected terminal.
func (d *ODU) AttachUE() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connectedUEs++
}

// DetachUE accounts one terminal leaving the cell.
func (d *ODU) DetachUE() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.connectedUEs > 0 {
		d.connectedUEs--
	}
}

// Load returns the cell load as a fraction of MaxUEs.
func (d *ODU) Load() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cfg.MaxUEs == 0 {
		return 0
	}
	return float64(d.connectedUEs) / float64(d.cfg.MaxUEs)
}

// ReportLoad emits a KPM load indication to the RIC when the cell load
// exceeds the report threshold.
func (d *ODU) ReportLoad() error {
	load := d.Load()
	if load <= LoadReportThreshold {
		return nil
	}
	msg := model.NewMessage(model.MsgKPMIndication, map[string]any{
		"cell_id": d.Config().CellID,
		"metric":  "cell_load",
		"value":   load,
	})
	return d.e2.Send(msg, d.id, d.ricID)
}

// Receive handles messages delivered over any channel the DU is registered
// on: policy application from the RIC, control actions from xApps, and
// uplink IQ payloads from O-RUs.
func (d *ODU) Receive(msg model.Message, sourceID string) {
	switch msg.Type {
	case model.MsgPolicyApply:
		if p, ok := model.PolicyFromMessage(msg); ok {
			d.ApplyPolicy(p)
		}
	case model.MsgHandoverControl:
		d.mu.Lock()
		d.controls = append(d.controls, msg)
		d.mu.Unlock()
		d.log.Info(context.Background(), "handover control received",
			logging.String("source", sourceID))
	case model.MsgUplinkIQ:
		d.mu.Lock()
		d.uplinks++
		d.mu.Unlock()
	default:
		d.log.Debug(context.Background(), "unhandled message",
			logging.String("msg_type", msg.Type),
			logging.String("source", sourceID))
	}
}

// ApplyPolicy stores the policy keyed by ID. Re-applying the same policy is
// safe; it only refreshes the stored copy.
func (d *ODU) ApplyPolicy(p model.Policy) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.policies[p.ID] = p
	d.applications++
}

// PolicyApplications returns how many times a policy application callback
// has fired on this element.
func (d *ODU) PolicyApplications() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.applications
}

// AppliedPolicy returns the stored copy of a policy, if present.
func (d *ODU) AppliedPolicy(id string) (model.Policy, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.policies[id]
	return p, ok
}

// ReceivedUplinks returns how many fronthaul payloads arrived.
func (d *ODU) ReceivedUplinks() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.uplinks
}

// ControlMessages returns the control actions received from xApps.
func (d *ODU) ControlMessages() []model.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]model.Message, len(d.controls))
	copy(out, d.controls)
	return out
}

// ApplyConfig applies the O1 configuration fields relevant to a DU.
func (d *ODU) ApplyConfig(cfg model.NodeConfig) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if cfg.CellID != 0 {
		d.cfg.CellID = cfg.CellID
	}
	if cfg.MaxUEs != 0 {
		d.cfg.MaxUEs = cfg.MaxUEs
	}
	if cfg.TransmitPowerDBm != 0 {
		d.cfg.TransmitPowerDBm = cfg.TransmitPowerDBm
	}
}
