package phy

import "math"

// sensitivityTable holds dBm sensitivity thresholds per (SF, BW). Missing
// cells fall back to -110 dBm, per spec. Values follow the semtech SX1272/76
// datasheet numbers used by the reference simulator at 125 kHz; other
// bandwidths are derived by the usual 3 dB-per-octave scaling and are
// approximate for BWs the table does not carry explicitly.
var sensitivityTable = map[SF]map[float64]float64{
	7:  {125000: -123, 250000: -120, 500000: -116},
	8:  {125000: -126, 250000: -123, 500000: -119},
	9:  {125000: -129, 250000: -126, 500000: -122},
	10: {125000: -132, 250000: -129, 500000: -125},
	11: {125000: -134.5, 250000: -131.5, 500000: -128},
	12: {125000: -137, 250000: -134, 500000: -130},
}

// defaultSensitivityDBm is returned for any (SF, BW) not present above.
const defaultSensitivityDBm = -110

// defaultEnergyDetectionDBm is the default energy-detection threshold: a
// coarser, modulation-agnostic power check applied before the sensitivity
// check.
const defaultEnergyDetectionDBm = -90

// Sensitivity returns the receiver sensitivity threshold in dBm for the
// given SF/BW, defaulting to -110 dBm for unknown combinations.
func Sensitivity(sf SF, bwHz float64) float64 {
	if row, ok := sensitivityTable[sf]; ok {
		if v, ok := row[bwHz]; ok {
			return v
		}
	}
	return defaultSensitivityDBm
}

// DefaultEnergyDetectionDBm returns the default energy-detection threshold,
// distinct from Sensitivity: a receiver rejects a signal below this power
// before even attempting demodulation.
func DefaultEnergyDetectionDBm() float64 { return defaultEnergyDetectionDBm }

// noiseFloorTable holds the reference thermal+receiver noise floor in dBm
// per bandwidth.
var noiseFloorTable = map[float64]float64{
	125000: -126.5,
	250000: -123.5,
	500000: -120.5,
}

// NoiseFloor returns the noise floor in dBm for the given bandwidth. The
// caller is expected to memoize the result as last_noise_dBm for the
// duration of one packet's reception decision, per the engine invariant
// that the same noise sample feeds sensitivity, interference, and capture
// checks.
func NoiseFloor(bwHz float64) float64 {
	if v, ok := noiseFloorTable[bwHz]; ok {
		return v
	}
	// Fall back to the 125 kHz floor scaled by bandwidth ratio in dB.
	return noiseFloorTable[125000] + 10*math.Log10(bwHz/125000)
}

// RSSI computes the received signal strength in dBm.
func RSSI(txPowerDBm, distance float64, antennaGainsDB, cableLossDB, obstacleLossDB float64, model PathLossModel, logNormal LogNormalParams, hata HataOkumuraParams, oulu OuluParams, shadowingSample float64) (float64, error) {
	pl, err := PathLoss(distance, model, logNormal, hata, oulu, nil)
	if err != nil {
		return 0, err
	}
	return txPowerDBm + antennaGainsDB - cableLossDB - obstacleLossDB - pl + shadowingSample, nil
}

// SNR computes the signal-to-noise ratio in dB. processingGain applies the
// LoRa spreading gain 10*log10(2^SF); it is OFF by default per spec.
func SNR(rssiDBm, noiseDBm float64, sf SF, processingGain bool) float64 {
	snr := rssiDBm - noiseDBm
	if processingGain {
		snr += 10 * math.Log10(math.Pow(2, float64(sf)))
	}
	return snr
}
