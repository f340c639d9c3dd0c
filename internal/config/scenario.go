// Package config loads scenario descriptions: a declarative YAML format
// (spec.md §6) following the `gopkg.in/yaml.v3`-tagged-struct convention
// used by xsjk-Aethernet's cmd/project3/config, and a secondary loader for
// the reference simulator's .ini-like format. Load failures are
// ConfigErrors, fatal at startup. The documented fallbacks are
// timeToNextPacket -> 100s and, via RegionByName, an unknown region name
// -> EU868.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/loraflexsim/core/internal/simerrors"
	"github.com/loraflexsim/core/internal/types"
)

// TrafficModel selects how a node's inter-transmission interval is drawn.
type TrafficModel string

const (
	TrafficRandom   TrafficModel = "random"
	TrafficPeriodic TrafficModel = "periodic"
)

// NodeGroup describes one homogeneous group of nodes in a scenario.
type NodeGroup struct {
	Count           int          `yaml:"count"`
	Class           string       `yaml:"class"` // "A", "B", or "C"
	Traffic         TrafficModel `yaml:"traffic"`
	IntervalSeconds float64      `yaml:"interval_seconds"`
	ADR             bool         `yaml:"adr"`
	SpreadFactor    int          `yaml:"spreading_factor"`
	TxPowerDBm      float64      `yaml:"tx_power_dbm"`
	PacketBudget    int          `yaml:"packet_budget"`
	AreaWidthM      float64      `yaml:"area_width_m"`
	AreaHeightM     float64      `yaml:"area_height_m"`
	Mobile          bool         `yaml:"mobile"`

	// Position, when non-nil, pins every member of this group to a fixed
	// location instead of drawing one at random within AreaWidthM x
	// AreaHeightM. Not a YAML field: it exists for ScenarioFromIni, which
	// carries over each reference .ini node's explicit initial placement
	// (spec.md §6) rather than re-randomizing it.
	Position *types.Position `yaml:"-"`
}

// GatewaySpec places one gateway in the scenario.
type GatewaySpec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// ChannelSpec is one entry of a YAML-declared channel plan.
type ChannelSpec struct {
	FreqHz float64 `yaml:"freq_hz"`
	BWHz   float64 `yaml:"bw_hz"`
	Band   string  `yaml:"band"`
}

// Scenario is the top-level declarative configuration spec.md §6 names:
// node/gateway counts and positions, channel plan, traffic model, class,
// ADR flags, mobility, environment preset, seed, packet budget, duration.
type Scenario struct {
	Region           string        `yaml:"region"`
	Preset           string        `yaml:"preset"` // e.g. "rural_long_range", "very_long_range"
	Seed             int64         `yaml:"seed"`
	MaxSimTimeSec    float64       `yaml:"max_sim_time_seconds"`
	ADRServer        bool          `yaml:"adr_server"`
	ADRMethod        string        `yaml:"adr_method"` // "avg" or "max"
	ChannelAssign    string        `yaml:"channel_assign_policy"` // "round-robin" | "random"
	Channels         []ChannelSpec `yaml:"channels"`
	Gateways         []GatewaySpec `yaml:"gateways"`
	NodeGroups       []NodeGroup   `yaml:"node_groups"`
	PathLossModel    string        `yaml:"path_loss_model"` // "log_normal" | "hata_okumura" | "oulu"
	PERModel         string        `yaml:"per_model"`       // "logistic" | "croce"
	ReferenceMode    bool          `yaml:"reference_mode"`
	EnergyProfile    string        `yaml:"energy_profile"`
	BeaconPeriodSec  float64       `yaml:"beacon_period_seconds"`
	PingSlotPeriodSec float64      `yaml:"ping_slot_period_seconds"`
	ClassCPollSec    float64       `yaml:"class_c_poll_seconds"`
}

// Load reads and parses a YAML scenario file, returning a ConfigError on
// any I/O or unmarshal failure.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, simerrors.NewConfigError("reading scenario file", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, simerrors.NewConfigError("parsing scenario YAML", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate rejects scenarios with no usable channel plan or an unknown
// ADR method, per the configuration-error taxonomy of spec.md §7.
func (s *Scenario) Validate() error {
	if len(s.Channels) == 0 {
		return simerrors.ConfigErrorf("scenario: channel plan must not be empty")
	}
	if s.ADRServer && s.ADRMethod != "avg" && s.ADRMethod != "max" {
		return simerrors.ConfigErrorf("scenario: adr_method must be 'avg' or 'max', got %q", s.ADRMethod)
	}
	return nil
}

// ChannelPlan converts the YAML channel list into a types.ChannelPlan.
func (s *Scenario) ChannelPlan() types.ChannelPlan {
	plan := types.ChannelPlan{Policy: types.AssignRoundRobin}
	if s.ChannelAssign == "random" {
		plan.Policy = types.AssignRandom
	}
	for _, c := range s.Channels {
		plan.Channels = append(plan.Channels, types.Channel{FreqHz: c.FreqHz, BWHz: c.BWHz, Band: c.Band})
	}
	return plan
}
