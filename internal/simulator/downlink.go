package simulator

import (
	"github.com/loraflexsim/core/internal/energy"
	"github.com/loraflexsim/core/internal/node"
	"github.com/loraflexsim/core/internal/phy"
	"github.com/loraflexsim/core/internal/scheduler"
	"github.com/loraflexsim/core/internal/server"
	"github.com/loraflexsim/core/internal/simerrors"
	"github.com/loraflexsim/core/internal/trace"
	"github.com/loraflexsim/core/internal/types"
)

const downlinkMACPayloadBytes = 13 // one LinkADRReq MAC command, roughly sized

// pendingDownlink is the scheduler payload carried between a downlink's
// DOWNLINK_START and DOWNLINK_END events.
type pendingDownlink struct {
	NodeID      types.NodeID
	Gateway     types.GatewayID
	SF          phy.SF
	FreqHz      float64
	Decision    server.ADRDecision
	HasDecision bool
}

// onUplinkAccepted is the server-side half of spec.md §4.6's downlink
// decision: it runs once per uplink event (the first gateway copy),
// computing an ADR decision and, only when the node actually needs to
// hear from the server (ADRACKReq set, or the ADR decision changes SF or
// power), placing a class-appropriate downlink.
func (s *Simulator) onUplinkAccepted(n *node.Node, gwID types.GatewayID, tx *inFlightTx) {
	decision, hasDecision := s.Server.DecideADR(n)
	needsDownlink := n.ADR.ACKReqFlag || (hasDecision && decision.Changed)
	if !needsDownlink {
		return
	}

	txEnd := tx.End
	switch n.Class {
	case types.ClassA:
		s.scheduleClassADownlink(n, gwID, tx, txEnd, decision, hasDecision)
	case types.ClassB:
		s.scheduleClassBDownlink(n, gwID, tx, decision, hasDecision)
	default:
		s.scheduleClassCDownlink(n, gwID, tx, txEnd, decision, hasDecision)
	}
}

func (s *Simulator) scheduleClassADownlink(n *node.Node, gwID types.GatewayID, tx *inFlightTx, txEnd phy.Time, decision server.ADRDecision, hasDecision bool) {
	rx1Start := s.Server.RX1Window(txEnd)
	rx1Airtime := phy.Airtime(n.SF, tx.Channel.BWHz, downlinkMACPayloadBytes, defaultCodingRate, defaultPreambleSymbols, false)
	rx2Start := s.Server.RX2Window(txEnd)
	rx2Airtime := phy.Airtime(s.Region.RX2SF, s.Region.RX2BWHz, downlinkMACPayloadBytes, defaultCodingRate, defaultPreambleSymbols, false)

	rx1 := server.Downlink{Start: rx1Start, Deadline: rx1Start + rx1Airtime, Airtime: rx1Airtime, SF: n.SF, FreqHz: tx.Channel.FreqHz}
	rx2 := server.Downlink{Start: rx2Start, Deadline: rx2Start + rx2Airtime, Airtime: rx2Airtime, SF: s.Region.RX2SF, FreqHz: s.Region.RX2FreqHz}

	placed, ok := s.Server.Downlink.ScheduleClassA(n.ID, gwID, rx1, rx2)
	if !ok {
		s.reportMissedDownlink(n.ID, gwID)
		return
	}
	s.placeDownlink(placed, decision, hasDecision)
}

func (s *Simulator) scheduleClassBDownlink(n *node.Node, gwID types.GatewayID, tx *inFlightTx, decision server.ADRDecision, hasDecision bool) {
	airtime := phy.Airtime(n.SF, tx.Channel.BWHz, downlinkMACPayloadBytes, defaultCodingRate, defaultPreambleSymbols, false)
	const lookahead = 4
	candidates := make([]phy.Time, 0, lookahead)
	for i := 0; i < lookahead; i++ {
		candidates = append(candidates, n.ClassB.NextPingSlot(n.LastBeaconTime, n.PingSlotIndex+i))
	}
	placed, ok := s.Server.Downlink.ScheduleClassB(n.ID, gwID, candidates, airtime, n.SF, tx.Channel.FreqHz)
	if !ok {
		s.reportMissedDownlink(n.ID, gwID)
		return
	}
	s.placeDownlink(placed, decision, hasDecision)
}

func (s *Simulator) scheduleClassCDownlink(n *node.Node, gwID types.GatewayID, tx *inFlightTx, txEnd phy.Time, decision server.ADRDecision, hasDecision bool) {
	airtime := phy.Airtime(n.SF, tx.Channel.BWHz, downlinkMACPayloadBytes, defaultCodingRate, defaultPreambleSymbols, false)
	earliest := s.Server.ProcessingComplete(txEnd)
	placed := s.Server.Downlink.ScheduleClassC(n.ID, gwID, earliest, airtime, n.SF, tx.Channel.FreqHz)
	s.placeDownlink(placed, decision, hasDecision)
}

func (s *Simulator) placeDownlink(placed server.Downlink, decision server.ADRDecision, hasDecision bool) {
	pd := pendingDownlink{NodeID: placed.NodeID, Gateway: placed.Gateway, SF: placed.SF, FreqHz: placed.FreqHz, Decision: decision, HasDecision: hasDecision}
	s.Scheduler.Insert(placed.Start, scheduler.KindDownlinkStart, pd)
	s.Scheduler.Insert(placed.Start+placed.Airtime, scheduler.KindDownlinkEnd, pd)
}

func (s *Simulator) reportMissedDownlink(nodeID types.NodeID, gwID types.GatewayID) {
	s.Metrics.ObserveMissedDownlink()
	s.Trace.Emit(trace.Record{Time: s.now, Kind: scheduler.KindDownlinkStart, NodeID: nodeID, GatewayID: gwID, HasGW: true, Success: false, Outcome: simerrors.OutcomeDownlinkMissed})
}

// onDownlinkStart applies the carried ADR decision (if any) to the node
// and records the transmission in the trace.
func (s *Simulator) onDownlinkStart(pd pendingDownlink) {
	n := s.Nodes[pd.NodeID]
	if n == nil {
		return
	}
	if pd.HasDecision && pd.Decision.Changed {
		n.ApplyLinkADRReq(node.LinkADRReq{SF: pd.Decision.SF, TxPowerDBm: pd.Decision.TxPowerDBm, ChMask: n.ChannelMask, NbTrans: n.NbTrans})
	} else {
		n.ADR.OnDownlinkReceived()
	}
	s.Trace.Emit(trace.Record{Time: s.now, Kind: scheduler.KindDownlinkStart, NodeID: pd.NodeID, GatewayID: pd.Gateway, HasGW: true, SF: pd.SF, FreqHz: pd.FreqHz, HasRadio: true, Success: true, Outcome: simerrors.OutcomeSuccess})
}

// onDownlinkEnd only records the trace boundary; the node-side effect
// already happened at DOWNLINK_START.
func (s *Simulator) onDownlinkEnd(pd pendingDownlink) {
	s.Trace.Emit(trace.Record{Time: s.now, Kind: scheduler.KindDownlinkEnd, NodeID: pd.NodeID, GatewayID: pd.Gateway, HasGW: true, SF: pd.SF, FreqHz: pd.FreqHz, Success: true})
}

// onBeacon fires at the start of each beacon period: every class B node
// either loses the beacon (sampled from the fading stream, reused here
// since no dedicated beacon-loss stream is warranted for a single Bernoulli
// draw per node per period) or re-anchors its ping-slot schedule to it and
// gets its upcoming ping slots for this period queued.
func (s *Simulator) onBeacon(gwID types.GatewayID) {
	for _, id := range s.NodeIDs() {
		n := s.Nodes[id]
		if n.Class != types.ClassB {
			continue
		}
		if n.ClassB.BeaconMissed(s.Streams.Fading()) {
			n.BeaconLost = true
			continue
		}
		n.BeaconLost = false
		n.LastBeaconTime = s.now
		n.PingSlotIndex = 0

		slotsPerPeriod := int(n.ClassB.BeaconPeriod / n.ClassB.PingSlotPeriod)
		for i := 0; i < slotsPerPeriod; i++ {
			slot := n.ClassB.NextPingSlot(n.LastBeaconTime, i)
			s.Scheduler.Insert(slot, scheduler.KindPingSlot, id)
		}
	}
	s.Scheduler.Insert(s.now+s.BeaconPeriod, scheduler.KindBeacon, gwID)
}

// onPingSlot accounts for the RX energy a class B node spends listening
// at one ping-slot opportunity, whether or not a downlink was actually
// waiting (the server's gateway-occupancy bookkeeping, not the node,
// decides that).
func (s *Simulator) onPingSlot(nodeID types.NodeID) {
	n := s.Nodes[nodeID]
	if n == nil {
		return
	}
	n.PingSlotIndex++
	s.Metrics.ObserveEnergy(string(energy.StateListen), n.SpendEnergy(energy.StateListen, pingSlotListenSeconds))
	s.Trace.Emit(trace.Record{Time: s.now, Kind: scheduler.KindPingSlot, NodeID: nodeID, Success: true})
}

const pingSlotListenSeconds = 0.1

// onClassCPoll accounts for a class C node's continuous-listen interval
// as effective RX time (spec.md §4.4) and reschedules the next poll.
func (s *Simulator) onClassCPoll(nodeID types.NodeID) {
	n := s.Nodes[nodeID]
	if n == nil || n.Class != types.ClassC {
		return
	}
	s.Metrics.ObserveEnergy(string(energy.StateListen), n.SpendEnergy(energy.StateListen, n.ClassC.PollInterval.Seconds()))
	s.Trace.Emit(trace.Record{Time: s.now, Kind: scheduler.KindClassCPoll, NodeID: nodeID, Success: true})
	s.Scheduler.Insert(n.ClassC.NextPoll(s.now), scheduler.KindClassCPoll, nodeID)
}
