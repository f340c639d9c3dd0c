package node

import "github.com/loraflexsim/core/internal/phy"

// DutyCycleAccountant enforces the per-sub-band duty-cycle cap (spec.md
// §3/§4.4) as its own component, keyed by band, rather than inlined into
// Node: Enforce reports the earliest time a transmission of the given
// airtime may start without exceeding the cap, and UpdateAfterTx records
// the transmission once it actually happens. This mirrors the reference's
// separate duty_cycle.py accountant (SPEC_FULL.md supplement 6), including
// LinkADRReq-driven cap updates expressed as 2^-exponent fractions.
type DutyCycleAccountant struct {
	bands map[string]*bandState
}

type bandState struct {
	fraction   float64 // allowed fraction of window, e.g. 0.01 for 1%
	windowSec  float64
	emissions  []emission
}

type emission struct {
	startSec   float64
	airtimeSec float64
}

// NewDutyCycleAccountant returns an accountant with no bands registered;
// bands are configured lazily via SetBand as the region/channel plan is
// applied.
func NewDutyCycleAccountant() *DutyCycleAccountant {
	return &DutyCycleAccountant{bands: map[string]*bandState{}}
}

// SetBand configures (or reconfigures) the cap for a sub-band: fraction of
// windowSec that may be spent transmitting. fraction<=0 disables
// enforcement for that band (e.g. US915/AU915, which use dwell time
// instead of duty cycle).
func (d *DutyCycleAccountant) SetBand(band string, fraction, windowSec float64) {
	b, ok := d.bands[band]
	if !ok {
		b = &bandState{}
		d.bands[band] = b
	}
	b.fraction = fraction
	b.windowSec = windowSec
}

// SetBandFromExponent applies a LinkADRReq-style duty-cycle update
// expressed as 2^-exponent (exponent 0 means unrestricted, i.e. fraction
// 1.0; larger exponents shrink the allowed fraction).
func (d *DutyCycleAccountant) SetBandFromExponent(band string, exponent int, windowSec float64) {
	fraction := 1.0
	for i := 0; i < exponent; i++ {
		fraction /= 2
	}
	d.SetBand(band, fraction, windowSec)
}

// Enforce returns the earliest time (seconds, relative to the accountant's
// own clock) at which a transmission of airtimeSec may start on band
// without exceeding the cap, given the request would otherwise start at
// requestedSec. If the band is unconfigured or fraction<=0, enforcement is
// a no-op and requestedSec is returned unchanged.
func (d *DutyCycleAccountant) Enforce(band string, requestedSec, airtimeSec float64) float64 {
	b, ok := d.bands[band]
	if !ok || b.fraction <= 0 || b.windowSec <= 0 {
		return requestedSec
	}
	b.prune(requestedSec)

	used := b.usedSeconds(requestedSec)
	capSec := b.fraction * b.windowSec
	if used+airtimeSec <= capSec {
		return requestedSec
	}
	// Defer to just after enough of the oldest emissions age out of the
	// window to make room, re-checking iteratively.
	earliest := requestedSec
	for _, e := range b.emissions {
		earliest = e.startSec + b.windowSec
		b.prune(earliest)
		if b.usedSeconds(earliest)+airtimeSec <= capSec {
			return earliest
		}
	}
	return earliest
}

// UpdateAfterTx records a transmission of airtimeSec starting at startSec
// on band, so future Enforce calls see it in the sliding window.
func (d *DutyCycleAccountant) UpdateAfterTx(band string, startSec, airtimeSec float64) {
	b, ok := d.bands[band]
	if !ok {
		b = &bandState{fraction: 0, windowSec: 3600}
		d.bands[band] = b
	}
	b.emissions = append(b.emissions, emission{startSec: startSec, airtimeSec: airtimeSec})
}

func (b *bandState) prune(nowSec float64) {
	cutoff := nowSec - b.windowSec
	i := 0
	for i < len(b.emissions) && b.emissions[i].startSec < cutoff {
		i++
	}
	b.emissions = b.emissions[i:]
}

func (b *bandState) usedSeconds(nowSec float64) float64 {
	b.prune(nowSec)
	var total float64
	for _, e := range b.emissions {
		total += e.airtimeSec
	}
	return total
}

// EnforceTicks is a phy.Time-typed convenience wrapper over Enforce, for
// callers working in nanosecond ticks rather than float seconds.
func (d *DutyCycleAccountant) EnforceTicks(band string, requested, airtime phy.Time) phy.Time {
	sec := d.Enforce(band, requested.Seconds(), airtime.Seconds())
	return phy.FromSeconds(sec)
}

// UpdateAfterTxTicks is the phy.Time-typed counterpart to UpdateAfterTx.
func (d *DutyCycleAccountant) UpdateAfterTxTicks(band string, start, airtime phy.Time) {
	d.UpdateAfterTx(band, start.Seconds(), airtime.Seconds())
}
