package simulator

import (
	"github.com/loraflexsim/core/internal/energy"
	"github.com/loraflexsim/core/internal/gateway"
	"github.com/loraflexsim/core/internal/node"
	"github.com/loraflexsim/core/internal/phy"
	"github.com/loraflexsim/core/internal/scheduler"
	"github.com/loraflexsim/core/internal/server"
	"github.com/loraflexsim/core/internal/simerrors"
	"github.com/loraflexsim/core/internal/trace"
	"github.com/loraflexsim/core/internal/types"
)

const minDistanceM = 0.001 // floor to keep PathLoss's d>0 domain check satisfied

// onTxStart dispatches a TX_START event for nodeID: duty-cycle
// enforcement first (a capacity-exceeded outcome defers the event itself,
// per spec.md §7), then, if clear, the transmission proceeds: airtime is
// computed once (spec.md §3's invariant) and never recomputed, every
// gateway in range runs StartReception, and the node's next TX_START is
// planned from a freshly drawn Exp() sample without discarding it even
// under backpressure (spec.md §9). OnUplinkSent's adr_ack_cnt feeds
// ADR.Escalate at the end of this handler, taking effect from the next
// uplink: a node that keeps transmitting without ever
// hearing back from the server raises its own power then SF, since no
// LinkADRReq will ever arrive to do it on the node's behalf.
func (s *Simulator) onTxStart(nodeID types.NodeID) {
	n := s.Nodes[nodeID]
	if n == nil {
		return
	}
	if n.BudgetExhausted() || !n.HasEnergy() {
		return
	}

	idx := n.PacketsSent
	channel := s.ChannelPlan.Select(idx, func(m int) int { return s.Streams.Mobility().Intn(m) })
	airtime := phy.Airtime(n.SF, channel.BWHz, n.PayloadBytes, defaultCodingRate, defaultPreambleSymbols, false)

	if channel.Band != "" {
		allowed := n.DutyCycle.EnforceTicks(channel.Band, s.now, airtime)
		if allowed > s.now {
			s.Trace.Emit(trace.Record{Time: s.now, Kind: scheduler.KindTxStart, NodeID: nodeID, Outcome: simerrors.OutcomeDutyCycleDeferred})
			s.Scheduler.Insert(allowed, scheduler.KindTxStart, nodeID)
			return
		}
		n.DutyCycle.UpdateAfterTxTicks(channel.Band, s.now, airtime)
	}

	n.InFlight = true
	n.LastTxTime = s.now
	s.Metrics.ObserveEnergy(string(energy.StateTX), n.SpendEnergy(energy.StateTX, airtime.Seconds()))
	n.FCntUp++
	n.ADR.OnUplinkSent()
	if n.ADR.Enabled {
		n.SF, n.TxPowerDBm = n.ADR.Escalate(n.SF, n.TxPowerDBm)
	}
	n.PacketsSent++

	tx := &inFlightTx{
		Channel:    channel,
		SF:         n.SF,
		Start:      s.now,
		End:        s.now + airtime,
		Airtime:    airtime,
		FCntUp:     n.FCntUp,
		FrameHash:  frameHash(nodeID, n.FCntUp),
		NoiseDBm:   phy.NoiseFloor(channel.BWHz),
		Receptions: map[types.GatewayID]*gateway.Slot{},
	}
	s.inFlight[nodeID] = tx

	for _, gwID := range s.gatewayIDs() {
		gw := s.Gateways[gwID]
		dist := n.Position.Distance(gw.Position)
		if dist <= 0 {
			dist = minDistanceM
		}
		shadow := 0.0
		if s.PHY.PathLossModel == phy.PathLossLogNormal && s.PHY.LogNormal.SigmaDB > 0 {
			shadow = s.Streams.NextGaussian(s.PHY.LogNormal.SigmaDB)
		}
		rssi, err := phy.RSSI(n.TxPowerDBm, dist, s.PHY.AntennaGainDB, s.PHY.CableLossDB, s.PHY.ObstacleLossDB,
			s.PHY.PathLossModel, s.PHY.LogNormal, s.PHY.Hata, s.PHY.Oulu, shadow)
		if err != nil {
			// Domain error: the caller gave us a degenerate distance.
			// Not expected given the minDistanceM floor above, but fatal
			// at the point of use per spec.md §7 if it ever happens.
			panic(err)
		}

		pkt := gateway.Packet{NodeID: nodeID, Channel: channel.Key(), SF: n.SF, Start: tx.Start, End: tx.End, RSSI: rssi, NoiseDBm: tx.NoiseDBm}
		slot, reason, ok := gw.StartReception(pkt)
		if !ok {
			s.Trace.Emit(trace.Record{Time: s.now, Kind: scheduler.KindTxStart, NodeID: nodeID, GatewayID: gwID, HasGW: true, SF: n.SF, FreqHz: channel.FreqHz, RSSI: rssi, HasRadio: true, Success: false, Outcome: reason})
			continue
		}
		tx.Receptions[gwID] = slot
	}

	s.Metrics.ObserveTransmit(n.SF)
	s.Trace.Emit(trace.Record{Time: s.now, Kind: scheduler.KindTxStart, NodeID: nodeID, SF: n.SF, FreqHz: channel.FreqHz, HasRadio: true, Success: true, Outcome: simerrors.OutcomeSuccess})

	s.Scheduler.Insert(tx.End, scheduler.KindTxEnd, nodeID)
	s.scheduleNextTx(n, airtime)

	// Escalation runs after this frame is built, so its SF, power and
	// airtime stay consistent; any change applies from the next uplink.
	if n.ADR.Enabled {
		n.SF, n.TxPowerDBm = n.ADR.Escalate(n.SF, n.TxPowerDBm)
	}
}

// scheduleNextTx draws the node's next inter-arrival sample and plans its
// TX_START, applying the Poisson-preserving backpressure rule: the drawn
// sample is kept in n.IntervalLog regardless of whether the resulting
// start is postponed.
func (s *Simulator) scheduleNextTx(n *node.Node, thisAirtime phy.Time) {
	delta := n.NextTxInterval(s.Streams.Arrivals(), n.IntervalMeanSec)
	drawn := s.now + phy.FromSeconds(delta)
	start := n.ScheduleNextTx(drawn, thisAirtime)
	s.Scheduler.Insert(start, scheduler.KindTxStart, n.ID)
}

// onTxEnd finalizes every gateway reception tracked for nodeID's
// in-flight transmission, forwards successful copies to the network
// server for deduplication, and -- for the first gateway to report a
// given uplink event -- triggers the server's downlink decision.
func (s *Simulator) onTxEnd(nodeID types.NodeID) {
	n := s.Nodes[nodeID]
	tx := s.inFlight[nodeID]
	if n == nil || tx == nil {
		return
	}
	delete(s.inFlight, nodeID)
	n.InFlight = false

	for _, gwID := range sortedGatewayKeys(tx.Receptions) {
		slot := tx.Receptions[gwID]
		gw := s.Gateways[gwID]
		rec := gw.EndReception(slot)

		s.Trace.Emit(trace.Record{
			Time: s.now, Kind: scheduler.KindTxEnd, NodeID: nodeID, GatewayID: gwID, HasGW: true,
			SF: rec.SF, FreqHz: rec.Channel.FreqHz, RSSI: rec.RSSI, SNIR: rec.SNIR, HasRadio: true,
			Success: rec.Success, Outcome: rec.Reason,
		})

		if !rec.Success {
			s.Metrics.ObserveCollision()
			continue
		}

		key := server.UplinkKey{Node: nodeID, FCntUp: tx.FCntUp, FrameID: tx.FrameHash}
		result := s.Server.RecordUplink(key, gwID, rec.RSSI, rec.SNIR)
		if result.FirstSeen {
			s.Metrics.ObserveDelivered(rec.SF, gwID, (s.now - tx.Start).Seconds(), rec.SNIR)
			s.onUplinkAccepted(n, gwID, tx)
		}
	}
}

func sortedGatewayKeys(m map[types.GatewayID]*gateway.Slot) []types.GatewayID {
	ids := make([]types.GatewayID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}

// frameHash is a cheap, deterministic stand-in for the frame/MIC hash
// spec.md §4.6 keys deduplication on: the engine does not need collision
// resistance, only stability across the gateway copies of one uplink.
func frameHash(nodeID types.NodeID, fcntUp uint32) uint64 {
	return uint64(nodeID)<<32 | uint64(fcntUp)
}
