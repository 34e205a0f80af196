package sweep

import (
	"fmt"

	"github.com/bodelab/bodesweep/internal/instrument"
)

// ErrorReason classifies why a capture was rejected.
type ErrorReason string

const (
	// AliasingSuspected: the channel-2 frequency counter ran well ahead of
	// channel 1, which at low drive frequencies is an aliasing artifact of
	// the scope's frequency counter, not a property of the circuit.
	AliasingSuspected ErrorReason = "aliasing_suspected"
	// OverflowReading: the instrument reported its out-of-range sentinel on
	// the output channel.
	OverflowReading ErrorReason = "overflow_reading"
	// DivideByZero: the input amplitude measured zero, so no gain can be
	// derived from the reading.
	DivideByZero ErrorReason = "divide_by_zero"
)

// MeasurementError marks a single capture as unusable. It is never fatal to
// the session; the retry controller decides what happens next.
type MeasurementError struct {
	Reason  ErrorReason
	Reading instrument.RawReading
}

func (e *MeasurementError) Error() string {
	return fmt.Sprintf("erroneous reading (%s): ch1 %.3f Hz / %.3f Vpp, ch2 %.3f Hz / %.3f Vpp",
		e.Reason, e.Reading.InputFrequency, e.Reading.InputAmplitude,
		e.Reading.OutputFrequency, e.Reading.OutputAmplitude)
}

// ConfigError reports sweep bounds that were rejected and replaced by the
// defaults. It is returned alongside a usable schedule, never instead of one.
type ConfigError struct {
	Start  float64
	Stop   float64
	Steps  int
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid sweep bounds (start=%g Hz, stop=%g Hz, steps=%d): %s; using defaults %g-%g Hz, %d steps",
		e.Start, e.Stop, e.Steps, e.Reason, DefaultStartHz, DefaultStopHz, DefaultSteps)
}
