// Package server's downlink scheduler ports the reference's
// downlink_scheduler.py (SPEC_FULL.md supplement 5): beyond spec.md
// §4.6's one-line RX1/RX2/ping-slot/class-C description, the reference
// tracks a busy-until time per gateway and re-times lower-priority queued
// entries when a higher-priority one needs the same slot.
package server

import (
	"sort"

	"github.com/loraflexsim/core/internal/phy"
	"github.com/loraflexsim/core/internal/types"
)

// DownlinkPriority orders competing downlink placements on one gateway:
// class A's RX1/RX2 windows are time-critical and always win over class B
// ping slots and class C's merely-opportunistic polling.
type DownlinkPriority int

const (
	PriorityClassA DownlinkPriority = iota
	PriorityClassB
	PriorityClassC
)

// Downlink is one queued or scheduled downlink transmission.
type Downlink struct {
	NodeID   types.NodeID
	Gateway  types.GatewayID
	Priority DownlinkPriority
	Start    phy.Time
	Deadline phy.Time // window close; zero means no deadline (class C)
	Airtime  phy.Time
	SF       phy.SF
	FreqHz   float64
}

// gatewayBusy tracks, per gateway, the time it is occupied with
// previously scheduled downlink transmissions.
type gatewayBusy struct {
	intervals []busyInterval
}

type busyInterval struct {
	start, end phy.Time
	priority   DownlinkPriority
	dl         *Downlink
}

// DownlinkScheduler places class A/B/C downlinks against gateway busy
// time, re-timing lower-priority entries that conflict with a
// higher-priority placement, mirroring the reference's own behavior.
type DownlinkScheduler struct {
	busy map[types.GatewayID]*gatewayBusy
}

// NewDownlinkScheduler returns an empty scheduler.
func NewDownlinkScheduler() *DownlinkScheduler {
	return &DownlinkScheduler{busy: map[types.GatewayID]*gatewayBusy{}}
}

// ScheduleClassA tries rx1 first, then rx2; each is "first available
// wins" per spec.md §4.6. Returns the placed Downlink and true, or
// (_, false) if neither window was free before its deadline.
func (s *DownlinkScheduler) ScheduleClassA(nodeID types.NodeID, gw types.GatewayID, rx1, rx2 Downlink) (Downlink, bool) {
	rx1.Priority, rx2.Priority = PriorityClassA, PriorityClassA
	rx1.NodeID, rx2.NodeID = nodeID, nodeID
	rx1.Gateway, rx2.Gateway = gw, gw

	if s.place(gw, &rx1) {
		return rx1, true
	}
	if s.place(gw, &rx2) {
		return rx2, true
	}
	return Downlink{}, false
}

// ScheduleClassB tries candidateSlots in the order given and enqueues the
// downlink on the first one whose airtime fits the gateway's occupancy,
// respecting class A's priority over it. Which slots are candidates is up
// to the caller; no earliest-start filter is applied here.
func (s *DownlinkScheduler) ScheduleClassB(nodeID types.NodeID, gw types.GatewayID, candidateSlots []phy.Time, airtime phy.Time, sf phy.SF, freqHz float64) (Downlink, bool) {
	for _, slot := range candidateSlots {
		dl := Downlink{
			NodeID: nodeID, Gateway: gw, Priority: PriorityClassB,
			Start: slot, Deadline: slot + airtime, Airtime: airtime, SF: sf, FreqHz: freqHz,
		}
		if s.place(gw, &dl) {
			return dl, true
		}
	}
	return Downlink{}, false
}

// ScheduleClassC places dl at the earliest instant the gateway is free at
// or after earliest, since class C has no fixed deadline -- it waits for
// the next idle opportunity.
func (s *DownlinkScheduler) ScheduleClassC(nodeID types.NodeID, gw types.GatewayID, earliest, airtime phy.Time, sf phy.SF, freqHz float64) Downlink {
	start := s.nextFreeFrom(gw, earliest, airtime, PriorityClassC)
	dl := Downlink{
		NodeID: nodeID, Gateway: gw, Priority: PriorityClassC,
		Start: start, Airtime: airtime, SF: sf, FreqHz: freqHz,
	}
	s.forcePlace(gw, &dl)
	return dl
}

// place attempts to fit dl into gw's schedule without disturbing any
// equal-or-higher priority entry. A lower-priority entry overlapping dl's
// window is evicted and re-timed (pushed to start after dl), mirroring
// the reference's re-time-on-conflict behavior. Returns false only when
// dl has a deadline it cannot meet because of an equal-or-higher priority
// occupant.
func (s *DownlinkScheduler) place(gw types.GatewayID, dl *Downlink) bool {
	b := s.gatewayState(gw)

	for _, iv := range b.intervals {
		if !overlaps(dl.Start, dl.Start+dl.Airtime, iv.start, iv.end) {
			continue
		}
		if iv.priority <= dl.Priority {
			if dl.Deadline == 0 {
				continue
			}
			return false
		}
	}

	var displaced []*Downlink
	kept := b.intervals[:0]
	for _, iv := range b.intervals {
		if overlaps(dl.Start, dl.Start+dl.Airtime, iv.start, iv.end) && iv.priority > dl.Priority {
			displaced = append(displaced, iv.dl)
			continue
		}
		kept = append(kept, iv)
	}
	b.intervals = kept
	b.intervals = append(b.intervals, busyInterval{start: dl.Start, end: dl.Start + dl.Airtime, priority: dl.Priority, dl: dl})
	sortIntervals(b.intervals)

	for _, d := range displaced {
		d.Start = dl.Start + dl.Airtime
		s.forcePlace(gw, d)
	}
	return true
}

// forcePlace inserts dl unconditionally at its current Start, growing the
// start time forward past any conflicting occupant of equal-or-higher
// priority until it fits. Used for class C, which has no deadline, and
// for re-timing entries displaced by place.
func (s *DownlinkScheduler) forcePlace(gw types.GatewayID, dl *Downlink) {
	b := s.gatewayState(gw)
	dl.Start = s.nextFreeFrom(gw, dl.Start, dl.Airtime, dl.Priority)
	b.intervals = append(b.intervals, busyInterval{start: dl.Start, end: dl.Start + dl.Airtime, priority: dl.Priority, dl: dl})
	sortIntervals(b.intervals)
}

// nextFreeFrom returns the earliest start time >= earliest at which
// airtime fits without overlapping an equal-or-higher priority occupant.
func (s *DownlinkScheduler) nextFreeFrom(gw types.GatewayID, earliest, airtime phy.Time, priority DownlinkPriority) phy.Time {
	b := s.gatewayState(gw)
	start := earliest
	for {
		conflict := false
		for _, iv := range b.intervals {
			if iv.priority <= priority && overlaps(start, start+airtime, iv.start, iv.end) {
				start = iv.end
				conflict = true
				break
			}
		}
		if !conflict {
			return start
		}
	}
}

func (s *DownlinkScheduler) gatewayState(gw types.GatewayID) *gatewayBusy {
	b, ok := s.busy[gw]
	if !ok {
		b = &gatewayBusy{}
		s.busy[gw] = b
	}
	return b
}

// Prune discards busy intervals that ended at or before cutoff.
func (s *DownlinkScheduler) Prune(cutoff phy.Time) {
	for _, b := range s.busy {
		kept := b.intervals[:0]
		for _, iv := range b.intervals {
			if iv.end > cutoff {
				kept = append(kept, iv)
			}
		}
		b.intervals = kept
	}
}

func sortIntervals(ivs []busyInterval) {
	sort.Slice(ivs, func(i, j int) bool { return ivs[i].start < ivs[j].start })
}

func overlaps(aStart, aEnd, bStart, bEnd phy.Time) bool {
	return aStart < bEnd && bStart < aEnd
}
