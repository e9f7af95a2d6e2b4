package model

import "github.com/google/uuid"

// Message types carried over the simulated interfaces.
const (
	// MsgPolicyUpdate carries an A1 policy from the Non-RT RIC to a Near-RT RIC.
	MsgPolicyUpdate = "A1_POLICY_UPDATE"
	// MsgPolicyApply instructs an element to apply a policy, sent over E2.
	MsgPolicyApply = "RIC_POLICY_APPLY"
	// MsgKPMIndication is a KPM-style measurement report from an element.
	MsgKPMIndication = "E2SM_KPM_INDICATION"
	// MsgHandoverReport signals a completed or requested handover.
	MsgHandoverReport = "HANDOVER_REPORT"
	// MsgHandoverControl is an xApp control action towards a DU.
	MsgHandoverControl = "RIC_HANDOVER_CONTROL"
	// MsgUplinkIQ is an opaque fronthaul IQ payload from an O-RU to an O-DU.
	MsgUplinkIQ = "FH_UPLINK_IQ"
)

// PayloadKeyPolicy is the payload key under which policy messages carry the
// Policy value.
const PayloadKeyPolicy = "policy"

// Message is an opaque structured payload exchanged between simulated
// elements. Routers queue messages as-is and never mutate them.
type Message struct {
	ID      string
	Type    string
	Payload map[string]any
}

// NewMessage builds a message with a fresh unique ID.
func NewMessage(msgType string, payload map[string]any) Message {
	return Message{
		ID:      uuid.NewString(),
		Type:    msgType,
		Payload: payload,
	}
}

// PolicyFromMessage extracts the Policy carried by a policy message.
func PolicyFromMessage(msg Message) (Policy, bool) {
	if msg.Payload == nil {
		return Policy{}, false
	}
	p, ok := msg.Payload[PayloadKeyPolicy].(Policy)
	return p, ok
}

// PolicyMessage wraps a policy into a message of the given type. The policy
// is cloned so the sender keeps sole ownership of its copy.
func PolicyMessage(msgType string, p Policy) Message {
	return NewMessage(msgType, map[string]any{PayloadKeyPolicy: p.Clone()})
}
