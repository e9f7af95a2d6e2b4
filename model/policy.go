package model

// PolicyType enumerates the supported A1 policy types.
type PolicyType string

const (
	PolicyTypeTrafficSteering PolicyType = "POLICY-TYPE-1"
	PolicyTypeQoSTarget       PolicyType = "POLICY-TYPE-2"
	PolicyTypeEnergySaving    PolicyType = "POLICY-TYPE-3"
)

// KnownPolicyType reports whether t is a supported policy type.
func KnownPolicyType(t PolicyType) bool {
	switch t {
	case PolicyTypeTrafficSteering, PolicyTypeQoSTarget, PolicyTypeEnergySaving:
		return true
	}
	return false
}

// Policy is a versioned configuration directive authored by the Non-RT RIC
// and enforced by a Near-RT RIC against elements of the target class.
//
// Policies cross the A1 boundary by value: each side owns an independent
// copy, so a Near-RT RIC mutating its stored policy never affects the
// origin copy held by the Non-RT RIC.
type Policy struct {
	ID      string         `validate:"required"`
	Type    PolicyType     `validate:"required"`
	Content map[string]any
	Version int
	Target  ElementClass `validate:"required"`
}

// Clone returns a deep copy of the policy. Content is copied one level deep,
// which covers the flat key-value payloads policies carry.
func (p Policy) Clone() Policy {
	out := p
	if p.Content != nil {
		out.Content = make(map[string]any, len(p.Content))
		for k, v := range p.Content {
			out.Content[k] = v
		}
	}
	return out
}
