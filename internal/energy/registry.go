package energy

import (
	"sync"

	"github.com/loraflexsim/core/internal/simerrors"
)

// DefaultTxCurrentMapA is the FLoRa reference's TX power -> current table.
var DefaultTxCurrentMapA = map[float64]float64{
	2.0:  0.02,
	5.0:  0.027,
	8.0:  0.035,
	11.0: 0.045,
	14.0: 0.060,
	17.0: 0.10,
	20.0: 0.12,
}

var lowPowerTxCurrentMapA = map[float64]float64{
	2.0:  0.015,
	5.0:  0.022,
	8.0:  0.029,
	11.0: 0.040,
	14.0: 0.055,
}

// FloraProfile is the default profile based on the FLoRa (OMNeT++) model.
func FloraProfile() Profile {
	return Profile{
		Name:             "flora",
		VoltageV:         3.3,
		SleepCurrentA:    1e-6,
		RXCurrentA:       11e-3,
		StartupCurrentA:  1.6e-3,
		StartupTimeS:     1e-3,
		PreambleCurrentA: 5e-3,
		PreambleTimeS:    1e-3,
		RampUpS:          1e-3,
		RampDownS:        1e-3,
		TxCurrentMapA:    DefaultTxCurrentMapA,
	}
}

// LowPowerProfile models a lower-power transceiver.
func LowPowerProfile() Profile {
	return Profile{
		Name:          "low_power",
		VoltageV:      3.3,
		SleepCurrentA: 1e-6,
		RXCurrentA:    7e-3,
		TxCurrentMapA: lowPowerTxCurrentMapA,
	}
}

// Registry is a named lookup of energy profiles, letting scenario config
// select a profile by string key instead of hardcoding one, mirroring the
// reference's module-level PROFILES registry.
type Registry struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

// NewRegistry returns a registry pre-seeded with the flora and low_power
// profiles.
func NewRegistry() *Registry {
	r := &Registry{profiles: map[string]Profile{}}
	r.Register("flora", FloraProfile())
	r.Register("low_power", LowPowerProfile())
	return r
}

// Register adds or replaces a named profile.
func (r *Registry) Register(name string, p Profile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[name] = p
}

// Get retrieves a profile by name, returning a ConfigError if unknown.
func (r *Registry) Get(name string) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[name]
	if !ok {
		return Profile{}, simerrors.ConfigErrorf("unknown energy profile: %s", name)
	}
	return p, nil
}

// Accumulator totals energy spent per state, used for per-node/per-run
// energy-by-state export.
type Accumulator struct {
	byState map[State]float64
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{byState: map[State]float64{}}
}

// Add accumulates energyJoules into state's running total.
func (a *Accumulator) Add(state State, energyJoules float64) {
	a.byState[state] += energyJoules
}

// Get returns the running total for state.
func (a *Accumulator) Get(state State) float64 {
	return a.byState[state]
}

// Total returns the sum across all states.
func (a *Accumulator) Total() float64 {
	var total float64
	for _, v := range a.byState {
		total += v
	}
	return total
}

// ByState returns a defensive copy of the per-state totals.
func (a *Accumulator) ByState() map[State]float64 {
	out := make(map[State]float64, len(a.byState))
	for k, v := range a.byState {
		out[k] = v
	}
	return out
}
