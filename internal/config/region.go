package config

import (
	"github.com/loraflexsim/core/internal/phy"
	"github.com/loraflexsim/core/internal/types"
)

// Region holds the default channel plan, RX2 parameters, and duty-cycle
// band rules for one of the regulatory presets spec.md §6 names
// (EU868/US915/AU915/AS923/IN865/KR920).
type Region struct {
	Name        string
	Channels    []types.Channel
	RX2FreqHz   float64
	RX2SF       phy.SF
	RX2BWHz     float64
	DutyCycle   float64 // fraction, 0 disables enforcement (e.g. US915 has none)
	MaxEIRPDBm  float64
}

// Regions is the set of built-in presets. EU868 and AS923 carry a 1%
// duty-cycle cap on the default sub-band; US915, AU915, IN865 and KR920
// are modeled with DutyCycle: 0 (no cap).
var Regions = map[string]Region{
	"EU868": {
		Name: "EU868",
		Channels: []types.Channel{
			{FreqHz: 868100000, BWHz: 125000, Band: "g"},
			{FreqHz: 868300000, BWHz: 125000, Band: "g"},
			{FreqHz: 868500000, BWHz: 125000, Band: "g"},
		},
		RX2FreqHz: 869525000, RX2SF: 12, RX2BWHz: 125000,
		DutyCycle: 0.01, MaxEIRPDBm: 14,
	},
	"US915": {
		Name: "US915",
		Channels: []types.Channel{
			{FreqHz: 902300000, BWHz: 125000, Band: "us915"},
			{FreqHz: 902500000, BWHz: 125000, Band: "us915"},
			{FreqHz: 902700000, BWHz: 125000, Band: "us915"},
		},
		RX2FreqHz: 923300000, RX2SF: 12, RX2BWHz: 500000,
		DutyCycle: 0, MaxEIRPDBm: 30,
	},
	"AU915": {
		Name: "AU915",
		Channels: []types.Channel{
			{FreqHz: 915200000, BWHz: 125000, Band: "au915"},
			{FreqHz: 915400000, BWHz: 125000, Band: "au915"},
			{FreqHz: 915600000, BWHz: 125000, Band: "au915"},
		},
		RX2FreqHz: 923300000, RX2SF: 12, RX2BWHz: 500000,
		DutyCycle: 0, MaxEIRPDBm: 30,
	},
	"AS923": {
		Name: "AS923",
		Channels: []types.Channel{
			{FreqHz: 923200000, BWHz: 125000, Band: "as923"},
			{FreqHz: 923400000, BWHz: 125000, Band: "as923"},
		},
		RX2FreqHz: 923200000, RX2SF: 10, RX2BWHz: 125000,
		DutyCycle: 0.01, MaxEIRPDBm: 16,
	},
	"IN865": {
		Name: "IN865",
		Channels: []types.Channel{
			{FreqHz: 865062500, BWHz: 125000, Band: "in865"},
			{FreqHz: 865402500, BWHz: 125000, Band: "in865"},
			{FreqHz: 865985000, BWHz: 125000, Band: "in865"},
		},
		RX2FreqHz: 866550000, RX2SF: 10, RX2BWHz: 125000,
		DutyCycle: 0, MaxEIRPDBm: 30,
	},
	"KR920": {
		Name: "KR920",
		Channels: []types.Channel{
			{FreqHz: 922100000, BWHz: 125000, Band: "kr920"},
			{FreqHz: 922300000, BWHz: 125000, Band: "kr920"},
			{FreqHz: 922500000, BWHz: 125000, Band: "kr920"},
		},
		RX2FreqHz: 921900000, RX2SF: 12, RX2BWHz: 125000,
		DutyCycle: 0, MaxEIRPDBm: 14,
	},
}

// RegionByName returns the named preset, falling back to EU868 for an
// unknown name (mirroring xzhiot-lorawan_server/pkg/lorawan.GetRegionConfiguration's
// own default-to-EU868 fallback).
func RegionByName(name string) Region {
	if r, ok := Regions[name]; ok {
		return r
	}
	return Regions["EU868"]
}

// ChannelPlan returns the region's default channel plan under policy.
func (r Region) ChannelPlan(policy types.AssignPolicy) types.ChannelPlan {
	return types.ChannelPlan{Channels: r.Channels, Policy: policy}
}
