// Package gateway implements the per-gateway reception state machine
// (spec.md §4.3): concurrent reception slots, capture decisions filtered
// to exact (freq, bw) matches, and per-packet SNIR accounting. Grounded on
// the same non-orthogonal capture and channel-filtering rules
// internal/phy exposes as pure functions; this package is the stateful
// layer that applies them to concurrent in-flight receptions.
package gateway

import (
	"math"

	"github.com/loraflexsim/core/internal/phy"
	"github.com/loraflexsim/core/internal/simerrors"
	"github.com/loraflexsim/core/internal/types"
)

const defaultPreambleSymbols = 8

// Packet is the subset of an in-flight transmission's parameters a
// gateway needs to decide reception.
type Packet struct {
	NodeID  types.NodeID
	Channel types.ChannelKey
	SF      phy.SF
	Start   phy.Time
	End     phy.Time
	RSSI    float64 // dBm, computed by the caller via internal/phy.RSSI
	NoiseDBm float64 // last_noise_dBm, sampled once for this packet
}

// Slot is one tracked reception: retained until its End time even if
// already decided lost, per spec ("the channel remains occupied").
type Slot struct {
	Packet
	Lost       bool
	Reason     simerrors.Outcome
	interferers []*Slot
	handle      int
}

// Gateway is one simulated receiver.
type Gateway struct {
	ID               types.GatewayID
	Position         types.Position
	EnergyDetectDBm  float64
	PreambleSymbols  int
	CaptureMatrix    phy.CaptureMatrix

	slots    []*Slot
	nextSlot int
}

// New returns a Gateway with the default energy-detection threshold and
// capture matrix.
func New(id types.GatewayID, pos types.Position) *Gateway {
	return &Gateway{
		ID:              id,
		Position:        pos,
		EnergyDetectDBm: phy.DefaultEnergyDetectionDBm(),
		PreambleSymbols: defaultPreambleSymbols,
		CaptureMatrix:   phy.DefaultCaptureMatrix(),
	}
}

// StartReception decides whether pkt is even worth tracking, and if so
// allocates a slot and applies the capture rule against every other live
// slot sharing exactly pkt's (freq, bw). Returns the slot and true when a
// reception was started (possibly already decided lost due to capture);
// returns (nil, outcome, false) when rejected outright below energy
// detection or sensitivity.
func (g *Gateway) StartReception(pkt Packet) (*Slot, simerrors.Outcome, bool) {
	if pkt.RSSI < g.EnergyDetectDBm {
		return nil, simerrors.OutcomeBelowEnergyDetection, false
	}
	if pkt.RSSI < phy.Sensitivity(pkt.SF, pkt.Channel.BWHz) {
		return nil, simerrors.OutcomeBelowSensitivity, false
	}

	g.nextSlot++
	s := &Slot{Packet: pkt, handle: g.nextSlot}
	g.slots = append(g.slots, s)

	for _, other := range g.slots {
		if other == s || other.Channel != pkt.Channel {
			continue
		}
		if !overlaps(s.Start, s.End, other.Start, other.End) {
			continue
		}
		s.interferers = append(s.interferers, other)
		other.interferers = append(other.interferers, s)

		newDefeated := g.interfererDefeats(s, other)
		oldDefeated := g.interfererDefeats(other, s)
		if newDefeated {
			s.Lost, s.Reason = true, simerrors.OutcomeCaptureLost
		}
		if oldDefeated {
			other.Lost, other.Reason = true, simerrors.OutcomeCaptureLost
		}
		if newDefeated && oldDefeated {
			s.Reason, other.Reason = simerrors.OutcomeCollisionLost, simerrors.OutcomeCollisionLost
		}
	}
	return s, simerrors.OutcomeSuccess, true
}

// interfererDefeats reports whether interferer defeats signal, applying
// the capture-window rule first: an interferer whose overlap with signal
// ends before csBegin cannot defeat it regardless of power.
func (g *Gateway) interfererDefeats(signal, interferer *Slot) bool {
	overlapStart := maxTime(signal.Start, interferer.Start)
	overlapEnd := minTime(signal.End, interferer.End)
	if overlapStart >= overlapEnd {
		return false
	}
	csBegin := phy.CaptureWindowStart(signal.Start, signal.SF, signal.Channel.BWHz, g.PreambleSymbols)
	if overlapEnd < csBegin {
		return false
	}
	gap := signal.RSSI - interferer.RSSI
	return !g.CaptureMatrix.Captures(signal.SF, interferer.SF, gap)
}

// ComputeSNIR accumulates interferer power from only same-(freq,bw)
// overlapping slots recorded against s, in the linear domain, and returns
// the resulting SNIR in dB.
func (g *Gateway) ComputeSNIR(s *Slot) float64 {
	noiseLin := dbmToLinear(s.NoiseDBm)
	interferenceLin := 0.0
	for _, intf := range s.interferers {
		interferenceLin += dbmToLinear(intf.RSSI)
	}
	signalLin := dbmToLinear(s.RSSI)
	denom := noiseLin + interferenceLin
	if denom <= 0 {
		return 1000 // degenerate: no measurable noise/interference
	}
	return 10 * math.Log10(signalLin/denom)
}

// EndReception finalizes s at "now" (expected to be s.End) and returns the
// decided outcome. The slot is not removed from the gateway's tracking
// list — callers that want to reclaim memory across a long run should
// periodically call Prune.
func (g *Gateway) EndReception(s *Slot) Reception {
	return Reception{
		NodeID:  s.NodeID,
		RSSI:    s.RSSI,
		SNIR:    g.ComputeSNIR(s),
		SF:      s.SF,
		Channel: s.Channel,
		Success: !s.Lost,
		Reason:  s.Reason,
	}
}

// Reception is the outcome reported once a tracked packet's airtime ends.
type Reception struct {
	NodeID  types.NodeID
	RSSI    float64
	SNIR    float64
	SF      phy.SF
	Channel types.ChannelKey
	Success bool
	Reason  simerrors.Outcome
}

// Prune discards slots that ended at or before cutoff, reclaiming memory
// for long runs. Not required for correctness — StartReception only ever
// compares against slots whose End is in the future relative to the
// packet it is deciding, so stale slots are otherwise harmless noise.
func (g *Gateway) Prune(cutoff phy.Time) {
	kept := g.slots[:0]
	for _, s := range g.slots {
		if s.End > cutoff {
			kept = append(kept, s)
		}
	}
	g.slots = kept
}

func overlaps(aStart, aEnd, bStart, bEnd phy.Time) bool {
	return maxTime(aStart, bStart) < minTime(aEnd, bEnd)
}

func maxTime(a, b phy.Time) phy.Time {
	if a > b {
		return a
	}
	return b
}

func minTime(a, b phy.Time) phy.Time {
	if a < b {
		return a
	}
	return b
}
