package phy

import (
	"math"
	"math/rand"

	"github.com/loraflexsim/core/internal/simerrors"
)

// PathLossModel tags which propagation model to apply. Variants are
// modeled as a tagged enum with a small dispatch function rather than a
// class hierarchy, per the engine's re-architecture guidance.
type PathLossModel int

const (
	// PathLossLogNormal is the reference model: log-distance with
	// optional log-normal shadowing.
	PathLossLogNormal PathLossModel = iota
	// PathLossHataOkumura is the Hata-Okumura urban macro model.
	PathLossHataOkumura
	// PathLossOulu is the Oulu measurement-campaign model.
	PathLossOulu
)

// LogNormalParams holds the reference model's default constants.
type LogNormalParams struct {
	PL0       float64 // dB at reference distance d0
	D0        float64 // meters
	Gamma     float64 // path loss exponent
	SigmaDB   float64 // shadowing std-dev, dB; 0 disables shadowing
}

// DefaultLogNormalParams returns the reference preset (PL0=127.41, d0=40m,
// gamma=2.08, sigma=3.57), matching the OMNeT++ reference simulator.
func DefaultLogNormalParams() LogNormalParams {
	return LogNormalParams{PL0: 127.41, D0: 40, Gamma: 2.08, SigmaDB: 3.57}
}

// HataOkumuraParams holds the K1/K2 constants for PL = K1 + K2*log10(d_km).
type HataOkumuraParams struct {
	K1 float64
	K2 float64
}

// DefaultHataOkumuraParams returns K1=127.5, K2=35.2.
func DefaultHataOkumuraParams() HataOkumuraParams {
	return HataOkumuraParams{K1: 127.5, K2: 35.2}
}

// OuluParams holds the B/n/d0 constants for the Oulu model.
type OuluParams struct {
	B            float64
	N            float64
	D0           float64 // meters
	AntennaGainDB float64
}

// DefaultOuluParams returns B=128.95, n=2.32, d0=1000m, antenna gain 0 dB.
func DefaultOuluParams() OuluParams {
	return OuluParams{B: 128.95, N: 2.32, D0: 1000, AntennaGainDB: 0}
}

// PathLoss computes the propagation loss in dB for the given model. distance
// is in meters and MUST be positive; shadowing, when non-nil, is consulted
// only by the log-normal model to draw N(0, sigma^2) via rng (typically the
// run's shadowing PRNG stream).
func PathLoss(distance float64, model PathLossModel, logNormal LogNormalParams, hata HataOkumuraParams, oulu OuluParams, rng *rand.Rand) (float64, error) {
	if distance <= 0 {
		return 0, simerrors.DomainErrorf("path_loss: distance must be positive, got %v", distance)
	}

	switch model {
	case PathLossHataOkumura:
		dKm := distance / 1000.0
		return hata.K1 + hata.K2*math.Log10(dKm), nil
	case PathLossOulu:
		return oulu.B + 10*oulu.N*math.Log10(distance/oulu.D0) - oulu.AntennaGainDB, nil
	case PathLossLogNormal:
		fallthrough
	default:
		pl := logNormal.PL0 + 10*logNormal.Gamma*math.Log10(distance/logNormal.D0)
		if logNormal.SigmaDB > 0 && rng != nil {
			pl += rng.NormFloat64() * logNormal.SigmaDB
		}
		return pl, nil
	}
}
