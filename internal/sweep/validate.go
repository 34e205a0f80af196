package sweep

import (
	"github.com/bodelab/bodesweep/internal/instrument"
)

// Validator classifies raw readings. Two failure modes are recognized;
// anything else passes. No cross-checking against expected circuit behavior
// is done here.
type Validator struct {
	// OverflowSentinel: readings at or above this are the instrument's
	// out-of-range report, not physics.
	OverflowSentinel float64
}

// NewValidator returns a validator with the given overflow threshold.
func NewValidator(overflowSentinel float64) Validator {
	return Validator{OverflowSentinel: overflowSentinel}
}

// Validate returns nil for a usable reading, or a *MeasurementError naming
// why it must be rejected. Overflow is checked first: a sentinel value on
// channel 2 also distorts the frequency comparison, and overflow is the
// classification that halts the sweep.
func (v Validator) Validate(r instrument.RawReading) *MeasurementError {
	if r.OutputFrequency >= v.OverflowSentinel || r.OutputAmplitude >= v.OverflowSentinel {
		return &MeasurementError{Reason: OverflowReading, Reading: r}
	}
	// In a clean capture both counters read the drive frequency. An output
	// counter running more than 1.5x ahead of the input means the scope
	// locked onto an alias, which shows up at the bottom of the sweep range.
	if r.OutputFrequency > 1.5*r.InputFrequency {
		return &MeasurementError{Reason: AliasingSuspected, Reading: r}
	}
	return nil
}
