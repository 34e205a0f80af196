// Package instrumenttest provides an in-memory instrument double: a
// first-order RC low-pass circuit behind a perfect scope. It backs the
// --transport sim dry-run mode and engine tests that want believable numbers
// without a bench.
package instrumenttest

import (
	"context"
	"math"
	"sync"

	"github.com/bodelab/bodesweep/internal/instrument"
)

// Simulator implements instrument.Adapter against a modelled RC low-pass.
type Simulator struct {
	// CutoffHz is the -3 dB corner of the simulated circuit.
	CutoffHz float64
	// Amplitude is the generator output the simulator assumes on channel 1 (Vpp).
	Amplitude float64
	// OverflowAbove, when > 0, makes channel 2 return the instrument overflow
	// sentinel for any generator frequency above it.
	OverflowAbove float64
	// OverflowSentinel is the out-of-range value reported when OverflowAbove
	// trips. Mirrors the 9.9E+37 the real scope emits.
	OverflowSentinel float64

	mu   sync.Mutex
	freq float64
}

// NewSimulator returns a simulator with a 1 kHz corner and 1 Vpp drive.
func NewSimulator() *Simulator {
	return &Simulator{
		CutoffHz:         1000,
		Amplitude:        1.0,
		OverflowSentinel: 9.9e37,
	}
}

func (s *Simulator) Identify(ctx context.Context) (string, error) {
	return "BODELAB,SIM-RC1,0,1.00", nil
}

func (s *Simulator) ConfigureDefaults(ctx context.Context) error {
	return nil
}

func (s *Simulator) ConfigureGenerator(ctx context.Context, freq, amplitude, offset float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.freq = freq
	s.Amplitude = amplitude
	return nil
}

func (s *Simulator) SetGeneratorFrequency(ctx context.Context, freq float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.freq = freq
	return nil
}

func (s *Simulator) Autoscale(ctx context.Context) error {
	return nil
}

func (s *Simulator) Arm(ctx context.Context) error {
	return nil
}

func (s *Simulator) ReadChannelMeasurement(ctx context.Context, ch instrument.Channel) (instrument.ChannelReading, error) {
	s.mu.Lock()
	f := s.freq
	a := s.Amplitude
	s.mu.Unlock()

	if ch == instrument.Channel1 {
		return instrument.ChannelReading{Frequency: f, Amplitude: a}, nil
	}
	if s.OverflowAbove > 0 && f > s.OverflowAbove {
		return instrument.ChannelReading{Frequency: s.OverflowSentinel, Amplitude: s.OverflowSentinel}, nil
	}
	// |H(f)| = 1 / sqrt(1 + (f/fc)^2) for a first-order low-pass.
	mag := 1 / math.Sqrt(1+(f/s.CutoffHz)*(f/s.CutoffHz))
	return instrument.ChannelReading{Frequency: f, Amplitude: a * mag}, nil
}

func (s *Simulator) ReadPhaseDifference(ctx context.Context) (float64, error) {
	s.mu.Lock()
	f := s.freq
	s.mu.Unlock()
	return -math.Atan(f/s.CutoffHz) * 180 / math.Pi, nil
}

func (s *Simulator) Close() error {
	return nil
}
