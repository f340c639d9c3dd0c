// Package phy implements the pure propagation, noise, and packet-error
// functions shared by every gateway and node: path loss, sensitivity,
// RSSI/SNR/SNIR, PER curves, airtime, and the inter-SF capture matrix.
// Every function here is side-effect free so it can be called from any
// goroutine without synchronization, per the engine's concurrency model.
package phy

import "math"

// SF is a LoRa spreading factor, 7..12.
type SF int

// Time is an absolute or relative simulated instant, in nanoseconds. Integer
// nanoseconds are used instead of floating-point seconds so that
// end_time - start_time == airtime holds exactly, with no accumulation
// drift across a run.
type Time int64

// Seconds converts a Time to a float64 number of seconds, for use only in
// formulas (dB math, exponential draws) where nanosecond precision on the
// output is not required.
func (t Time) Seconds() float64 { return float64(t) / 1e9 }

// FromSeconds converts a float64 seconds value to a Time, rounding to the
// nearest nanosecond.
func FromSeconds(s float64) Time { return Time(math.Round(s * 1e9)) }

const defaultPreambleSymbols = 8

// Airtime computes the on-air duration of a LoRa frame, to the formula
// mandated bit-for-bit:
//
//	Ts = 2^SF / BW
//	DE = 1 if SF in {11,12} (or forced)
//	N_payload = 8 + max(ceil((8L - 4*SF + 28 + 16) / (4*(SF-2*DE))), 0) * (CR+4)
//	T_preamble = (preambleSymbols + 4.25) * Ts
//	airtime = T_preamble + N_payload * Ts
//
// codingRate is the CR numerator (1..4, for 4/5..4/8). preambleSymbols
// defaults to 8 when 0 is passed. lowDataRateOptimize forces DE=1
// regardless of SF, matching the region parameter of the same name.
func Airtime(sf SF, bwHz float64, payloadBytes int, codingRate int, preambleSymbols int, lowDataRateOptimize bool) Time {
	if preambleSymbols <= 0 {
		preambleSymbols = defaultPreambleSymbols
	}
	ts := math.Pow(2, float64(sf)) / bwHz

	de := 0
	if sf >= 11 || lowDataRateOptimize {
		de = 1
	}

	numerator := 8*float64(payloadBytes) - 4*float64(sf) + 28 + 16
	denominator := 4 * (float64(sf) - 2*float64(de))
	nPayloadSymbols := math.Max(math.Ceil(numerator/denominator), 0) * float64(codingRate+4)
	nPayload := 8 + nPayloadSymbols

	tPreamble := (float64(preambleSymbols) + 4.25) * ts
	total := tPreamble + nPayload*ts
	return FromSeconds(total)
}

// SymbolDuration returns Ts = 2^SF / BW, the duration of a single LoRa
// symbol, used both in Airtime and in the capture-window rule.
func SymbolDuration(sf SF, bwHz float64) float64 {
	return math.Pow(2, float64(sf)) / bwHz
}
