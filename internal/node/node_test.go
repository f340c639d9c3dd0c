package node

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/loraflexsim/core/internal/phy"
	"github.com/loraflexsim/core/internal/types"
)

func TestScheduleNextTxKeepsDrawnSampleUnderBackpressure(t *testing.T) {
	n := New(1, types.Position{}, types.ClassA)
	n.InFlight = true
	n.LastTxTime = phy.Time(1000)

	drawn := phy.Time(1001) // earlier than last_tx_time+airtime would allow
	airtime := phy.Time(500)
	start := n.ScheduleNextTx(drawn, airtime)

	assert.Equal(t, phy.Time(1501), start, "postponed start = last_tx_time + airtime + eps")
}

func TestScheduleNextTxHonorsDrawnSampleWhenIdle(t *testing.T) {
	n := New(1, types.Position{}, types.ClassA)
	n.InFlight = false

	drawn := phy.Time(5000)
	start := n.ScheduleNextTx(drawn, phy.Time(500))
	assert.Equal(t, drawn, start)
}

func TestNextTxIntervalAlwaysLogsDrawnSample(t *testing.T) {
	n := New(1, types.Position{}, types.ClassA)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		n.NextTxInterval(rng, 100)
	}
	assert.Len(t, n.IntervalLog, 50)
}

func TestADREscalationRaisesPowerBeforeSF(t *testing.T) {
	a := DefaultADRClientState(true)
	a.AckCnt = a.AckLimit + a.AckDelay

	sf, power := a.Escalate(7, 2)
	assert.Equal(t, phy.SF(7), sf)
	assert.Equal(t, a.MaxTxPowerDBm, power)

	sf2, power2 := a.Escalate(7, a.MaxTxPowerDBm)
	assert.Equal(t, phy.SF(8), sf2)
	assert.Equal(t, a.MaxTxPowerDBm, power2)
}

func TestADRDownlinkResetsAckCnt(t *testing.T) {
	a := DefaultADRClientState(true)
	a.AckCnt = 10
	a.ACKReqFlag = true
	a.OnDownlinkReceived()
	assert.Equal(t, 0, a.AckCnt)
	assert.False(t, a.ACKReqFlag)
}

func TestDutyCycleAccountantDefersOverCap(t *testing.T) {
	d := NewDutyCycleAccountant()
	d.SetBand("g", 0.01, 3600) // 1% of 1h = 36s allowed

	start := d.Enforce("g", 0, 10)
	assert.Equal(t, 0.0, start)
	d.UpdateAfterTx("g", 0, 10)

	start2 := d.Enforce("g", 1, 30) // would exceed 36s cap if granted immediately
	assert.Greater(t, start2, 1.0)
}

func TestBatteryDepletionStopsTransmission(t *testing.T) {
	n := New(1, types.Position{}, types.ClassA)
	n.BatteryJoules = 0
	assert.False(t, n.HasEnergy())

	n.BatteryJoules = -1
	assert.True(t, n.HasEnergy(), "negative battery means unlimited")
}
