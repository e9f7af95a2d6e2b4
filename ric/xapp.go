package ric

import (
	"context"
	"sync"

	"github.com/signalsfoundry/ransim/channel"
	"github.com/signalsfoundry/ransim/internal/logging"
	"github.com/signalsfoundry/ransim/model"
)

// XApp is an observer application hosted by a Near-RT RIC. Indications
// reach it through the indication broker; control actions go back to
// elements over the E2 channel.
type XApp interface {
	ID() string
	HandleIndication(msg model.Message, originID string)
}

// HandoverXApp reacts to handover reports by sending a control action to
// the reporting DU. It is the canonical closed-loop example: indication in,
// control out.
type HandoverXApp struct {
	id    string
	e2    *channel.Router
	ricID string
	log   logging.Logger

	mu       sync.Mutex
	observed int
}

// NewHandoverXApp constructs the xApp. Control messages are sent on e2 with
// the RIC as addressable source.
func NewHandoverXApp(id string, e2 *channel.Router, ricID string, log logging.Logger) *HandoverXApp {
	if log == nil {
		log = logging.Noop()
	}
	return &HandoverXApp{
		id:    id,
		e2:    e2,
		ricID: ricID,
		log:   log.With(logging.String("xapp_id", id)),
	}
}

func (x *HandoverXApp) ID() string { return x.id }

// HandleIndication processes one routed indication. Handover reports
// trigger a control action towards the element that originated the report;
// other indications are only counted.
func (x *HandoverXApp) HandleIndication(msg model.Message, originID string) {
	x.mu.Lock()
	x.observed++
	x.mu.Unlock()

	if msg.Type != model.MsgHandoverReport {
		return
	}

	control := model.NewMessage(model.MsgHandoverControl, map[string]any{
		"action":    "handover_ack",
		"report_id": msg.ID,
	})
	if err := x.e2.Send(control, x.ricID, originID); err != nil {
		x.log.Error(context.Background(), "control action not sent",
			logging.String("target", originID),
			logging.Err(err))
		return
	}
	x.log.Info(context.Background(), "handover control sent",
		logging.String("target", originID))
}

// Observed returns how many indications the xApp has handled.
func (x *HandoverXApp) Observed() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.observed
}
