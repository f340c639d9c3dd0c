package server

import (
	"math"

	"github.com/loraflexsim/core/internal/node"
	"github.com/loraflexsim/core/internal/phy"
)

// ADRMethod selects how the server reduces a node's sliding SNIR window to
// a single margin input, per spec.md §4.6.
type ADRMethod string

const (
	ADRAvg ADRMethod = "avg"
	ADRMax ADRMethod = "max"
)

const (
	defaultDeviceMarginDB = 10.0
	minTxPowerDBm         = 2.0
	maxTxPowerDBm         = 14.0
	powerStepDB           = 3.0
)

// ADRDecision is the server's proposed adjustment, emitted as a
// LinkADRReq only when SF or power actually changes.
type ADRDecision struct {
	SF         phy.SF
	TxPowerDBm float64
	Changed    bool
}

// ComputeADR implements the margin-to-step algorithm from spec.md §4.6:
//
//	SNRmargin = SNRm - requiredSNR(SF) - deviceMargin
//	Nstep = round_half_away_from_zero(SNRmargin / 3)
//
// Nstep>0 first decreases SF (SF12->SF7), then decreases TX power in 3 dB
// steps to the minimum; Nstep<0 first raises TX power to the maximum,
// then raises SF. deviceMargin defaults to 10 dB, matching the reference.
func ComputeADR(method ADRMethod, history *SNIRHistory, n *node.Node, deviceMarginDB float64) (ADRDecision, bool) {
	var snrM float64
	var ok bool
	switch method {
	case ADRMax:
		snrM, ok = history.MaxMargin(n.ID)
	default:
		snrM, ok = history.AvgMargin(n.ID)
	}
	if !ok {
		return ADRDecision{}, false
	}

	margin := snrM - phy.RequiredSNR(n.SF) - deviceMarginDB
	nstep := roundHalfAwayFromZero(margin / 3.0)

	sf := n.SF
	power := n.TxPowerDBm

	for nstep > 0 {
		if sf > 7 {
			sf--
		} else if power > minTxPowerDBm {
			power -= powerStepDB
			if power < minTxPowerDBm {
				power = minTxPowerDBm
			}
		} else {
			break
		}
		nstep--
	}
	for nstep < 0 {
		if power < maxTxPowerDBm {
			power += powerStepDB
			if power > maxTxPowerDBm {
				power = maxTxPowerDBm
			}
		} else if sf < 12 {
			sf++
		} else {
			break
		}
		nstep++
	}

	changed := sf != n.SF || power != n.TxPowerDBm
	return ADRDecision{SF: sf, TxPowerDBm: power, Changed: changed}, true
}

// roundHalfAwayFromZero implements the reference's own rounding rule
// (SPEC_FULL.md supplement 3): unlike Go's math.Round (already
// half-away-from-zero for positive values) this makes the negative case
// explicit so the .5 boundary matches the Python reference bit-for-bit.
func roundHalfAwayFromZero(v float64) int {
	if v >= 0 {
		return int(math.Floor(v + 0.5))
	}
	return -int(math.Floor(-v + 0.5))
}
