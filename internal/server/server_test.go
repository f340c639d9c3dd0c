package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loraflexsim/core/internal/node"
	"github.com/loraflexsim/core/internal/phy"
	"github.com/loraflexsim/core/internal/types"
)

func TestRecordUplinkFirstSeenOnlyForFirstGatewayCopy(t *testing.T) {
	s := New(ADRAvg, 16)
	key := UplinkKey{Node: 1, FCntUp: 1, FrameID: 42}

	first := s.RecordUplink(key, gw1, -90, 8)
	assert.True(t, first.FirstSeen)

	second := s.RecordUplink(key, types.GatewayID(2), -95, 6)
	assert.False(t, second.FirstSeen, "a second gateway's copy of the same event is not first-seen")

	window := s.History.Window(key.Node, gw1)
	require.Len(t, window, 1)
	assert.Equal(t, 8.0, window[0].SNIR)
}

func TestDecideADRReturnsFalseWithoutHistory(t *testing.T) {
	s := New(ADRAvg, 16)
	n := node.New(1, types.Position{}, types.ClassA)
	_, ok := s.DecideADR(n)
	assert.False(t, ok)
}

func TestRX1AndRX2WindowsRespectConfiguredDelays(t *testing.T) {
	s := New(ADRAvg, 16)
	txEnd := phy.FromSeconds(10)
	assert.Equal(t, txEnd+s.RXDelay, s.RX1Window(txEnd))
	assert.Equal(t, txEnd+s.RXDelay+s.RX2Offset, s.RX2Window(txEnd))
}

func TestProcessingCompleteAddsLatencyAndProcessingDelay(t *testing.T) {
	s := New(ADRAvg, 16)
	txEnd := phy.FromSeconds(1)
	assert.Equal(t, txEnd+s.NetworkLatency+s.ProcessingDelay, s.ProcessingComplete(txEnd))
}

func TestComputeADRAvgMethodRaisesSNRMarginAcrossSteps(t *testing.T) {
	n := node.New(1, types.Position{}, types.ClassA)
	n.SF = 12
	n.TxPowerDBm = 14

	h := NewSNIRHistory()
	// A generous SNIR well above SF12's requirement plus device margin
	// drives multiple positive Nstep, first lowering SF, not power (power
	// is already at max).
	for i := 0; i < 5; i++ {
		h.Append(n.ID, gw1, Sample{RSSI: -80, SNIR: 20})
	}

	decision, ok := ComputeADR(ADRAvg, h, n, defaultDeviceMarginDB)
	require.True(t, ok)
	assert.True(t, decision.Changed)
	assert.Less(t, int(decision.SF), 12)
}

func TestComputeADRMaxMethodUsesPeakSample(t *testing.T) {
	n := node.New(1, types.Position{}, types.ClassA)
	n.SF = 7
	n.TxPowerDBm = minTxPowerDBm

	h := NewSNIRHistory()
	// MaxMargin picks the single best sample (30), not the average with
	// the bad one (-40); SF/power are already floored so the resulting
	// positive Nstep has nothing left to apply.
	h.Append(n.ID, gw1, Sample{RSSI: -80, SNIR: -40})
	h.Append(n.ID, gw1, Sample{RSSI: -80, SNIR: 30})

	decision, ok := ComputeADR(ADRMax, h, n, defaultDeviceMarginDB)
	require.True(t, ok)
	assert.False(t, decision.Changed, "SF7/min-power is already the floor in both dimensions")
	assert.Equal(t, phy.SF(7), decision.SF)
}

func TestRoundHalfAwayFromZeroMatchesReferenceBoundary(t *testing.T) {
	assert.Equal(t, 1, roundHalfAwayFromZero(0.5))
	assert.Equal(t, -1, roundHalfAwayFromZero(-0.5))
	assert.Equal(t, 0, roundHalfAwayFromZero(0.49))
	assert.Equal(t, 2, roundHalfAwayFromZero(1.5))
}
