package ric

import (
	"context"

	"github.com/signalsfoundry/ransim/internal/logging"
	"github.com/signalsfoundry/ransim/model"
)

// RApp is a policy-authoring application hosted by the Non-RT RIC.
type RApp interface {
	ID() string
}

// LoadBalancingRApp authors traffic-steering policies when asked, using its
// hosting Non-RT RIC for the policy lifecycle. It keeps the policies it
// created so it can update them later.
type LoadBalancingRApp struct {
	id     string
	nonRT  *NonRTRIC
	log    logging.Logger
	issued map[string]model.Policy
}

// NewLoadBalancingRApp constructs the rApp and registers it with its host.
func NewLoadBalancingRApp(id string, nonRT *NonRTRIC, log logging.Logger) *LoadBalancingRApp {
	if log == nil {
		log = logging.Noop()
	}
	app := &LoadBalancingRApp{
		id:     id,
		nonRT:  nonRT,
		log:    log.With(logging.String("rapp_id", id)),
		issued: make(map[string]model.Policy),
	}
	nonRT.AddRApp(app)
	return app
}

func (a *LoadBalancingRApp) ID() string { return a.id }

// SteerTraffic authors a traffic-steering policy for DU-class elements and
// distributes it to the named Near-RT RIC.
func (a *LoadBalancingRApp) SteerTraffic(nearRTID string, maxLoad float64) (model.Policy, error) {
	p := a.nonRT.CreatePolicy(model.PolicyTypeTrafficSteering, map[string]any{
		"max_cell_load": maxLoad,
	}, model.ClassODU)

	if err := a.nonRT.DistributePolicy(p, nearRTID); err != nil {
		return model.Policy{}, err
	}
	a.issued[p.ID] = p
	a.log.Info(context.Background(), "steering policy issued",
		logging.String("policy_id", p.ID),
		logging.String("near_rt_ric", nearRTID))
	return p, nil
}

// Issued returns the number of policies this rApp has distributed.
func (a *LoadBalancingRApp) Issued() int { return len(a.issued) }
