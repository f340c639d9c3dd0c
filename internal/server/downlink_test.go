package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loraflexsim/core/internal/phy"
	"github.com/loraflexsim/core/internal/types"
)

const (
	gw1 = types.GatewayID(1)
	n1  = types.NodeID(1)
	n2  = types.NodeID(2)
)

func dl(start, airtime phy.Time, sf phy.SF) Downlink {
	return Downlink{Start: start, Deadline: start + airtime, Airtime: airtime, SF: sf, FreqHz: 868100000}
}

func TestScheduleClassAPrefersRX1(t *testing.T) {
	s := NewDownlinkScheduler()
	rx1 := dl(1000, 50, 7)
	rx2 := dl(2000, 50, 12)
	placed, ok := s.ScheduleClassA(n1, gw1, rx1, rx2)
	require.True(t, ok)
	assert.Equal(t, rx1.Start, placed.Start)
}

func TestScheduleClassAFallsBackToRX2WhenRX1Busy(t *testing.T) {
	s := NewDownlinkScheduler()
	// Occupy RX1's window with an equal-priority class A placement first.
	_, ok := s.ScheduleClassA(n1, gw1, dl(1000, 50, 7), dl(5000, 50, 12))
	require.True(t, ok)

	rx1 := dl(1010, 50, 7) // overlaps the first node's RX1 window
	rx2 := dl(2000, 50, 12)
	placed, ok := s.ScheduleClassA(n2, gw1, rx1, rx2)
	require.True(t, ok)
	assert.Equal(t, rx2.Start, placed.Start)
}

func TestScheduleClassAPreemptsClassCOccupant(t *testing.T) {
	s := NewDownlinkScheduler()
	classC := s.ScheduleClassC(n2, gw1, 1000, 50, 12, 868100000)
	require.Equal(t, phy.Time(1000), classC.Start)

	rx1 := dl(1000, 50, 7)
	rx2 := dl(5000, 50, 12)
	placed, ok := s.ScheduleClassA(n1, gw1, rx1, rx2)
	require.True(t, ok)
	assert.Equal(t, rx1.Start, placed.Start, "class A must win the slot class C already occupied")
}

func TestScheduleClassBTriesEachCandidateInOrder(t *testing.T) {
	s := NewDownlinkScheduler()
	_, ok := s.ScheduleClassA(n2, gw1, dl(1000, 50, 7), dl(5000, 50, 12))
	require.True(t, ok)

	candidates := []phy.Time{1000, 2000, 3000}
	placed, ok := s.ScheduleClassB(n1, gw1, candidates, 50, 9, 868300000)
	require.True(t, ok)
	assert.Equal(t, phy.Time(2000), placed.Start, "first candidate overlaps the class A occupant and must be skipped")
}

func TestScheduleClassBReturnsFalseWhenNoCandidateFits(t *testing.T) {
	s := NewDownlinkScheduler()
	for _, start := range []phy.Time{1000, 2000, 3000} {
		_, ok := s.ScheduleClassA(n2, gw1, dl(start, 50, 7), dl(start+10000, 50, 12))
		require.True(t, ok)
	}
	_, ok := s.ScheduleClassB(n1, gw1, []phy.Time{1000, 2000, 3000}, 50, 9, 868300000)
	assert.False(t, ok)
}

func TestScheduleClassCWaitsForGatewayToFreeUp(t *testing.T) {
	s := NewDownlinkScheduler()
	_, ok := s.ScheduleClassA(n2, gw1, dl(1000, 100, 7), dl(5000, 100, 12))
	require.True(t, ok)

	placed := s.ScheduleClassC(n1, gw1, 1000, 50, 12, 868100000)
	assert.GreaterOrEqual(t, placed.Start, phy.Time(1100), "class C must not overlap the class A occupant")
}

func TestPruneDropsExpiredIntervals(t *testing.T) {
	s := NewDownlinkScheduler()
	_, ok := s.ScheduleClassA(n1, gw1, dl(1000, 50, 7), dl(5000, 50, 12))
	require.True(t, ok)
	s.Prune(1100)
	b := s.gatewayState(gw1)
	assert.Empty(t, b.intervals)
}
