package types

// Channel is one (frequency, bandwidth, duty-cycle band) tuple from a
// scenario's channel plan.
type Channel struct {
	FreqHz float64
	BWHz   float64
	Band   string // duty-cycle sub-band key, e.g. "g", "g1", "g2" (EU868)
}

// Key returns the (freq, bw) identity used to decide whether two
// transmissions can interfere. Packets on distinct Keys MUST contribute
// zero interference to each other, per the engine's corrected contract.
func (c Channel) Key() ChannelKey { return ChannelKey{FreqHz: c.FreqHz, BWHz: c.BWHz} }

// ChannelKey is the exact (freq, bw) pair gateways filter concurrent
// receptions by.
type ChannelKey struct {
	FreqHz float64
	BWHz   float64
}

// ChannelPlan lists the channels a region/scenario makes available to
// nodes, plus the policy nodes use to pick one per transmission.
type ChannelPlan struct {
	Channels []Channel
	Policy   AssignPolicy
}

// Select returns the channel assigned to the i-th transmission under the
// plan's policy. rng is consulted only for AssignRandom.
func (p ChannelPlan) Select(i int, rngIntn func(int) int) Channel {
	if len(p.Channels) == 0 {
		return Channel{FreqHz: 868100000, BWHz: 125000, Band: "g"}
	}
	switch p.Policy {
	case AssignRandom:
		return p.Channels[rngIntn(len(p.Channels))]
	default:
		return p.Channels[i%len(p.Channels)]
	}
}
