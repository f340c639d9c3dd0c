// Package node implements the per-device state machine: MAC counters,
// duty-cycle accounting, ADR client behavior, and class A/B/C radio
// scheduling (spec.md §4.4). Structurally it follows the teacher's
// simulation.Node in spirit (a struct of per-device state plus small
// behavior methods called by the owning engine loop) but the state and
// operations themselves are this engine's domain, not OT-NS's UART/CLI
// node process model.
package node

import (
	"math/rand"

	"github.com/loraflexsim/core/internal/energy"
	"github.com/loraflexsim/core/internal/lorawan"
	"github.com/loraflexsim/core/internal/phy"
	"github.com/loraflexsim/core/internal/types"
)

// RadioState is one state of the node's radio state machine:
// sleep <-> startup <-> tx <-> preamble <-> idle <-> rx1 <-> rx2 for class
// A, plus ping-slot windows for B and continuous polling for C.
type RadioState uint8

const (
	RadioSleep RadioState = iota
	RadioStartupTX
	RadioTX
	RadioPreamble
	RadioIdle
	RadioRX1
	RadioRX2
	RadioPingSlot
	RadioClassCListen
)

// Node is one simulated end-device.
type Node struct {
	ID       types.NodeID
	Position types.Position
	Class    types.Class

	SF         phy.SF
	TxPowerDBm float64
	ChannelMask uint32

	FCntUp   uint32
	FCntDown uint32

	ADR        ADRClientState
	NbTrans    int
	DutyCycle  *DutyCycleAccountant
	Keys       lorawan.SessionKeys
	DevAddr    uint32

	BatteryJoules float64 // < 0 means unlimited
	EnergyAccum   *energy.Accumulator
	EnergyProfile energy.Profile

	Radio RadioState

	LastTxTime phy.Time
	InFlight   bool

	// IntervalLog retains every drawn Exp() sample, even when the actual
	// TX it produced was deferred by backpressure/duty-cycle — this is the
	// Poisson-preserving contract spec.md §9 requires: the sample is never
	// discarded, only the dispatch is postponed.
	IntervalLog []float64

	PacketsSent     int
	PacketBudget    int // <=0 means unlimited
	PayloadBytes    int
	IntervalMeanSec float64

	LastBeaconTime   phy.Time
	LastPingSlotTime phy.Time
	BeaconLost       bool
	PingSlotIndex    int

	ClassB ClassBState
	ClassC ClassCState
}

// New returns a Node with sane zero-state defaults: SF12, radio asleep, full
// battery (unlimited unless Config sets one), empty MAC counters.
func New(id types.NodeID, pos types.Position, class types.Class) *Node {
	return &Node{
		ID:            id,
		Position:      pos,
		Class:         class,
		SF:            12,
		TxPowerDBm:    14,
		ChannelMask:   0xFFFF,
		DutyCycle:     NewDutyCycleAccountant(),
		BatteryJoules: -1,
		EnergyAccum:   energy.NewAccumulator(),
		Radio:         RadioSleep,
	}
}

// HasEnergy reports whether the node still has energy to transmit. A
// negative BatteryJoules means the battery model is disabled (unlimited).
func (n *Node) HasEnergy() bool {
	return n.BatteryJoules < 0 || n.BatteryJoules > 0
}

// SpendEnergy deducts joules spent in state from the node's battery (when
// finite), attributes it to the per-state accumulator for export, and
// returns the joules spent so callers can forward it to the run's
// aggregate metrics (spec.md §6, "energy per node broken down by state").
func (n *Node) SpendEnergy(state energy.State, durationS float64) float64 {
	e := n.EnergyProfile.EnergyFor(state, durationS, n.TxPowerDBm)
	n.EnergyAccum.Add(state, e)
	if n.BatteryJoules >= 0 {
		n.BatteryJoules -= e
		if n.BatteryJoules < 0 {
			n.BatteryJoules = 0
		}
	}
	return e
}

// NextTxInterval draws Delta ~ Exp(1/mean) from rng and appends it to
// IntervalLog, unconditionally. Callers apply duty-cycle/backpressure
// deferral to the resulting *time*, never to the drawn sample itself.
func (n *Node) NextTxInterval(rng *rand.Rand, mean float64) float64 {
	delta := rng.ExpFloat64() * mean
	n.IntervalLog = append(n.IntervalLog, delta)
	return delta
}

// ScheduleNextTx computes the actual next TX_START time given a freshly
// drawn interval sample: if the previous transmission is still in flight
// at drawnTime, the start is postponed only to last_tx_time + airtime + eps
// -- the draw itself is preserved in IntervalLog by NextTxInterval,
// satisfying the Poisson-independence property spec.md §8/§9 requires.
func (n *Node) ScheduleNextTx(drawnTime phy.Time, lastAirtime phy.Time) phy.Time {
	const eps = phy.Time(1) // 1ns, smallest representable nudge
	if n.InFlight {
		earliest := n.LastTxTime + lastAirtime + eps
		if drawnTime < earliest {
			return earliest
		}
	}
	return drawnTime
}

// BudgetExhausted reports whether the node has sent its configured packet
// budget (<=0 means unlimited).
func (n *Node) BudgetExhausted() bool {
	return n.PacketBudget > 0 && n.PacketsSent >= n.PacketBudget
}
