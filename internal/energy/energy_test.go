package energy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnforceEnergyCorrectsDivergentValue(t *testing.T) {
	p := FloraProfile()
	corrected := p.EnforceEnergy(StateTX, 1.0, 999.0, 14.0, 1e-9, 1e-12)
	expected := p.EnergyFor(StateTX, 1.0, 14.0)
	assert.InDelta(t, expected, corrected, 1e-12)
}

func TestEnforceEnergyLeavesCloseValueUnchanged(t *testing.T) {
	p := FloraProfile()
	expected := p.EnergyFor(StateTX, 0.5, 14.0)
	corrected := p.EnforceEnergy(StateTX, 0.5, expected, 14.0, 1e-9, 1e-12)
	assert.Equal(t, expected, corrected)
}

func TestGetTxCurrentUsesClosestCalibratedPower(t *testing.T) {
	p := FloraProfile()
	assert.Equal(t, DefaultTxCurrentMapA[14.0], p.GetTxCurrent(13.0))
}

func TestRegistryUnknownProfile(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("does-not-exist")
	require.Error(t, err)
}

func TestRegistryRegisterOverride(t *testing.T) {
	r := NewRegistry()
	custom := FloraProfile()
	custom.Name = "custom"
	r.Register("custom", custom)
	got, err := r.Get("custom")
	require.NoError(t, err)
	assert.Equal(t, "custom", got.Name)
}

func TestAccumulator(t *testing.T) {
	a := NewAccumulator()
	a.Add(StateTX, 1.5)
	a.Add(StateTX, 0.5)
	a.Add(StateSleep, 0.1)
	assert.InDelta(t, 2.0, a.Get(StateTX), 1e-12)
	assert.InDelta(t, 2.1, a.Total(), 1e-12)
}
