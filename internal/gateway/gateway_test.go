package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loraflexsim/core/internal/phy"
	"github.com/loraflexsim/core/internal/simerrors"
	"github.com/loraflexsim/core/internal/types"
)

func ch(freq, bw float64) types.ChannelKey { return types.ChannelKey{FreqHz: freq, BWHz: bw} }

func TestSF7SurvivesSF9InterfererAtDocumentedGap(t *testing.T) {
	g := New(1, types.Position{})

	signal := Packet{NodeID: 1, Channel: ch(868100000, 125000), SF: 7, Start: 0, End: phy.FromSeconds(1), RSSI: -97, NoiseDBm: -126.5}
	interferer := Packet{NodeID: 2, Channel: ch(868100000, 125000), SF: 9, Start: 0, End: phy.FromSeconds(1), RSSI: -90, NoiseDBm: -126.5}

	sSlot, _, ok := g.StartReception(signal)
	require.True(t, ok)
	_, _, ok = g.StartReception(interferer)
	require.True(t, ok)

	assert.False(t, sSlot.Lost, "SF7 at -97 with SF9 interferer at -90 must decode (-7 >= -9)")
}

func TestDistinctChannelsDoNotInterfere(t *testing.T) {
	g := New(1, types.Position{})

	strong := Packet{NodeID: 1, Channel: ch(868100000, 125000), SF: 12, Start: 0, End: phy.FromSeconds(2), RSSI: -60, NoiseDBm: -126.5}
	weak := Packet{NodeID: 2, Channel: ch(868300000, 125000), SF: 12, Start: 0, End: phy.FromSeconds(2), RSSI: -130, NoiseDBm: -126.5}

	_, _, ok := g.StartReception(strong)
	require.True(t, ok)
	weakSlot, reason, ok := g.StartReception(weak)
	require.True(t, ok)
	assert.Equal(t, simerrors.OutcomeSuccess, reason)
	assert.False(t, weakSlot.Lost, "different (freq,bw) pairs must not interfere")
}

func TestRejectsBelowEnergyDetection(t *testing.T) {
	g := New(1, types.Position{})
	pkt := Packet{NodeID: 1, Channel: ch(868100000, 125000), SF: 7, Start: 0, End: phy.FromSeconds(1), RSSI: -150, NoiseDBm: -126.5}
	_, reason, ok := g.StartReception(pkt)
	assert.False(t, ok)
	assert.Equal(t, simerrors.OutcomeBelowEnergyDetection, reason)
}

func TestRejectsBelowSensitivity(t *testing.T) {
	g := New(1, types.Position{})
	// -100 dBm clears the -90 dBm energy-detection floor but sits below
	// SF7/125kHz sensitivity (-123 dBm from internal/phy's table).
	pkt := Packet{NodeID: 1, Channel: ch(868100000, 125000), SF: 7, Start: 0, End: phy.FromSeconds(1), RSSI: -100, NoiseDBm: -126.5}
	_, reason, ok := g.StartReception(pkt)
	assert.False(t, ok)
	assert.Equal(t, simerrors.OutcomeBelowSensitivity, reason)
}

func TestCaptureWindowInterfererEndingBeforeCsBeginCannotDefeatSignal(t *testing.T) {
	g := New(1, types.Position{})
	sf := phy.SF(7)
	bw := 125000.0
	signalEnd := phy.FromSeconds(phy.SymbolDuration(sf, bw) * 50)
	csBegin := phy.CaptureWindowStart(0, sf, bw, 8)

	signal := Packet{NodeID: 1, Channel: ch(868100000, bw), SF: sf, Start: 0, End: signalEnd, RSSI: -110, NoiseDBm: -126.5}
	sSlot, _, ok := g.StartReception(signal)
	require.True(t, ok)

	lateInterferer := Packet{
		NodeID: 2, Channel: ch(868100000, bw), SF: sf,
		Start: csBegin - phy.FromSeconds(0.001), End: csBegin - phy.Time(1),
		RSSI: 0, NoiseDBm: -126.5,
	}
	_, _, ok = g.StartReception(lateInterferer)
	require.True(t, ok)

	assert.False(t, sSlot.Lost, "interferer ending before csBegin must not defeat the signal")
}

func TestComputeSNIRAccumulatesOnlySameChannelInterference(t *testing.T) {
	g := New(1, types.Position{})
	signal := Packet{NodeID: 1, Channel: ch(868100000, 125000), SF: 7, Start: 0, End: phy.FromSeconds(1), RSSI: -90, NoiseDBm: -126.5}
	sSlot, _, ok := g.StartReception(signal)
	require.True(t, ok)

	snirNoInterference := g.ComputeSNIR(sSlot)
	assert.InDelta(t, -90-(-126.5), snirNoInterference, 0.01)
}
