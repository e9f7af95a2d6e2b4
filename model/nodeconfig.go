package model

// NodeConfig is a validated per-node management configuration, the payload
// of the O1 surface. It is loaded from YAML by the config collaborator and
// pushed into elements through their ApplyConfig callback.
type NodeConfig struct {
	NodeID string       `yaml:"node_id" validate:"required"`
	Class  ElementClass `yaml:"class" validate:"required"`

	// Cell-level parameters, meaningful for O-DU nodes.
	CellID int `yaml:"cell_id,omitempty"`
	MaxUEs int `yaml:"max_ues,omitempty" validate:"omitempty,gt=0"`

	// Radio parameters, meaningful for O-RU nodes.
	FrequencyHz      float64 `yaml:"frequency_hz,omitempty" validate:"omitempty,gt=0"`
	BandwidthHz      float64 `yaml:"bandwidth_hz,omitempty" validate:"omitempty,gt=0"`
	TransmitPowerDBm float64 `yaml:"transmit_power_dbm,omitempty"`
}
