package node

import (
	"math/rand"

	"github.com/loraflexsim/core/internal/phy"
)

// ClassBState holds the beacon/ping-slot bookkeeping spec.md §4.4's class
// B behavior needs: periodicity relative to the most recent beacon, beacon
// loss probability, and clock drift.
type ClassBState struct {
	PingSlotPeriod   phy.Time // interval between ping-slot opportunities
	BeaconPeriod     phy.Time
	BeaconLossProb   float64
	ClockDriftPpm    float64
}

// NextPingSlot computes the next ping-slot instant after lastBeacon, given
// the configured periodicity and a per-node clock drift sample (ppm,
// applied as a fixed offset for the whole beacon period once drawn).
func (c ClassBState) NextPingSlot(lastBeacon phy.Time, slotIndex int) phy.Time {
	base := lastBeacon + phy.Time(slotIndex+1)*c.PingSlotPeriod
	driftSec := base.Seconds() * c.ClockDriftPpm / 1e6
	return base + phy.FromSeconds(driftSec)
}

// BeaconMissed draws whether the upcoming beacon is lost, per
// BeaconLossProb, using the node's own RNG stream (kept separate from
// arrivals/shadowing so beacon-loss sampling cannot perturb them).
func (c ClassBState) BeaconMissed(rng *rand.Rand) bool {
	if c.BeaconLossProb <= 0 {
		return false
	}
	return rng.Float64() < c.BeaconLossProb
}

// ClassCState holds the fixed recurring-poll interval spec.md §4.4's
// class C behavior schedules CLASS_C_POLL events at.
type ClassCState struct {
	PollInterval phy.Time
}

// NextPoll returns the next CLASS_C_POLL instant after now.
func (c ClassCState) NextPoll(now phy.Time) phy.Time {
	return now + c.PollInterval
}
