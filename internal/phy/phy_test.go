package phy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAirtimeDeterministic(t *testing.T) {
	a1 := Airtime(7, 125000, 20, 1, 8, false)
	a2 := Airtime(7, 125000, 20, 1, 8, false)
	assert.Equal(t, a1, a2)
	assert.Greater(t, int64(a1), int64(0))
}

func TestAirtimeLowDataRateOptimizeForcesDE(t *testing.T) {
	withOpt := Airtime(7, 125000, 50, 1, 8, true)
	without := Airtime(7, 125000, 50, 1, 8, false)
	assert.NotEqual(t, withOpt, without)
}

func TestPathLossRejectsNonPositiveDistance(t *testing.T) {
	_, err := PathLoss(0, PathLossLogNormal, DefaultLogNormalParams(), DefaultHataOkumuraParams(), DefaultOuluParams(), nil)
	require.Error(t, err)

	_, err = PathLoss(-5, PathLossLogNormal, DefaultLogNormalParams(), DefaultHataOkumuraParams(), DefaultOuluParams(), nil)
	require.Error(t, err)
}

func TestPathLossLogNormalFormula(t *testing.T) {
	pl, err := PathLoss(40, PathLossLogNormal, DefaultLogNormalParams(), DefaultHataOkumuraParams(), DefaultOuluParams(), nil)
	require.NoError(t, err)
	// at d == d0, log10(d/d0) == 0, so PL == PL0 exactly (no shadowing sample).
	assert.InDelta(t, 127.41, pl, 1e-9)
}

func TestSensitivityUnknownFallsBackToDefault(t *testing.T) {
	assert.Equal(t, -110.0, Sensitivity(7, 999999))
}

func TestCaptureMatrixBoundaryExample(t *testing.T) {
	m := DefaultCaptureMatrix()
	// SF7 signal at -97 dBm with SF9 interferer at -90 dBm: gap = -7 dB,
	// threshold NON_ORTH_DELTA[SF7][SF9] == -9, and -7 >= -9 so it decodes.
	assert.True(t, m.Captures(7, 9, -97-(-90)))
}

func TestCaptureWindowRule(t *testing.T) {
	start := Time(0)
	csBegin := CaptureWindowStart(start, 7, 125000, 8)
	assert.Greater(t, int64(csBegin), int64(0))
}

func TestPERLogisticMonotonic(t *testing.T) {
	low := PER(-25, 12, 20, PERLogistic, true)
	high := PER(0, 12, 20, PERLogistic, true)
	assert.Greater(t, low, high)
}

func TestLoadCaptureMatrixFallsBackOnMissingFile(t *testing.T) {
	m := LoadCaptureMatrix("/nonexistent/path.json")
	assert.Equal(t, DefaultCaptureMatrix(), m)
}
