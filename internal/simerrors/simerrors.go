// Package simerrors implements the error taxonomy from the engine's error
// handling design: configuration and domain errors are Go errors that
// propagate to the caller, while capacity/reception/scheduling failures are
// outcomes recorded on events and metrics, never returned as errors.
package simerrors

import "github.com/pkg/errors"

// ConfigError wraps a scenario configuration problem (bad region, invalid
// frequency plan, malformed INI file). It is fatal at startup.
type ConfigError struct {
	cause error
}

func (e *ConfigError) Error() string { return "configuration error: " + e.cause.Error() }
func (e *ConfigError) Unwrap() error { return e.cause }

// NewConfigError wraps cause as a ConfigError, adding msg as context.
func NewConfigError(msg string, cause error) error {
	return &ConfigError{cause: errors.Wrap(cause, msg)}
}

// ConfigErrorf formats a ConfigError without an underlying cause.
func ConfigErrorf(format string, args ...interface{}) error {
	return &ConfigError{cause: errors.Errorf(format, args...)}
}

// DomainError wraps an invalid argument to a pure PHY/engine function
// (negative distance, unknown SF). It is fatal at the point of use: callers
// MUST validate inputs before calling into phy/energy functions that can
// return one.
type DomainError struct {
	cause error
}

func (e *DomainError) Error() string { return "domain error: " + e.cause.Error() }
func (e *DomainError) Unwrap() error { return e.cause }

// DomainErrorf formats a new DomainError.
func DomainErrorf(format string, args ...interface{}) error {
	return &DomainError{cause: errors.Errorf(format, args...)}
}

// IsConfig reports whether err is (or wraps) a ConfigError.
func IsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsDomain reports whether err is (or wraps) a DomainError.
func IsDomain(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// Outcome classifies a non-fatal event outcome: capacity exceeded, reception
// failure, or a missed scheduling opportunity. Outcomes are never returned
// as Go errors — they are recorded on trace/metrics records via Reason.
type Outcome uint8

const (
	OutcomeSuccess Outcome = iota
	OutcomeCapacityExceeded
	OutcomeBelowSensitivity
	OutcomeBelowEnergyDetection
	OutcomeCollisionLost
	OutcomeCaptureLost
	OutcomeDownlinkMissed
	OutcomeDutyCycleDeferred
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeCapacityExceeded:
		return "capacity_exceeded"
	case OutcomeBelowSensitivity:
		return "below_sensitivity"
	case OutcomeBelowEnergyDetection:
		return "below_energy_detection"
	case OutcomeCollisionLost:
		return "collision_lost"
	case OutcomeCaptureLost:
		return "capture_lost"
	case OutcomeDownlinkMissed:
		return "downlink_missed"
	case OutcomeDutyCycleDeferred:
		return "duty_cycle_deferred"
	default:
		return "unknown"
	}
}
