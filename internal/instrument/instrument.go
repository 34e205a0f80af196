// Package instrument defines the adapter contract the sweep engine drives:
// a signal source plus a two-channel oscilloscope behind one connection.
package instrument

import (
	"context"
	"fmt"
)

// Channel selects a scope input channel.
type Channel int

const (
	Channel1 Channel = 1 // circuit input, fed from the generator
	Channel2 Channel = 2 // circuit output
)

// ChannelReading is one frequency/amplitude measurement from a single channel.
type ChannelReading struct {
	Frequency float64 // Hz
	Amplitude float64 // Vpp
}

// RawReading is the snapshot of both channels for one capture attempt. It is
// transient: the engine validates it and either derives a record or drops it.
type RawReading struct {
	InputFrequency  float64
	InputAmplitude  float64
	OutputFrequency float64
	OutputAmplitude float64
	PhaseDiff       float64 // degrees, CH2 relative to CH1
}

// Adapter is the capability contract for the instrument. Implementations own
// the transport; the engine never sees raw commands. All methods that touch
// the wire can fail with an *AdapterError, which is distinct from a
// measurement-validation failure and aborts the sweep.
type Adapter interface {
	// Identify returns the instrument identification string.
	Identify(ctx context.Context) (string, error)
	// ConfigureDefaults clears status and loads the default setup.
	ConfigureDefaults(ctx context.Context) error
	// ConfigureGenerator enables the built-in generator with a sine wave at
	// the given frequency (Hz), amplitude (Vpp) and DC offset (V).
	ConfigureGenerator(ctx context.Context, freq, amplitude, offset float64) error
	// SetGeneratorFrequency retunes the generator without touching amplitude
	// or offset.
	SetGeneratorFrequency(ctx context.Context, freq float64) error
	// Autoscale adjusts the scope display to the current waveform.
	Autoscale(ctx context.Context) error
	// Arm digitizes both channels so the Read* calls below measure the same
	// acquisition.
	Arm(ctx context.Context) error
	// ReadChannelMeasurement measures frequency and peak-to-peak amplitude on
	// one channel of the armed acquisition.
	ReadChannelMeasurement(ctx context.Context, ch Channel) (ChannelReading, error)
	// ReadPhaseDifference measures the CH2-CH1 phase shift in degrees.
	ReadPhaseDifference(ctx context.Context) (float64, error)
	// Close releases the connection.
	Close() error
}

// AdapterError wraps transport- or instrument-level failures (connection
// loss, rejected command, instrument fault). The engine treats these as
// unrecoverable, unlike measurement errors which go through the retry policy.
type AdapterError struct {
	Op  string // the operation or command that failed
	Err error
}

func (e *AdapterError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("instrument: %s failed", e.Op)
	}
	return fmt.Sprintf("instrument: %s: %v", e.Op, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// Errf builds an *AdapterError wrapping err for operation op.
func Errf(op string, err error) *AdapterError {
	return &AdapterError{Op: op, Err: err}
}
