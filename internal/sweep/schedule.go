package sweep

import (
	"math"
)

// Defaults substituted when the requested sweep bounds are unusable.
const (
	DefaultStartHz = 100.0
	DefaultStopHz  = 10000.0
	DefaultSteps   = 25
)

// Schedule is the ordered, finite set of nominal test frequencies. Linear
// spacing, matching the instrument tool this replaces; the step is
// (stop-start)/(steps-1) so the sequence spans the bounds exactly.
type Schedule struct {
	Start float64
	Stop  float64
	Steps int
}

// NewSchedule validates the requested bounds. Invalid input (non-positive or
// non-finite frequencies, stop <= start, steps < 1) falls back to the
// defaults; the substitution is reported through the returned *ConfigError so
// the operator sees it, while the Schedule itself is always usable.
func NewSchedule(start, stop float64, steps int) (Schedule, *ConfigError) {
	reason := ""
	switch {
	case math.IsNaN(start) || math.IsInf(start, 0) || math.IsNaN(stop) || math.IsInf(stop, 0):
		reason = "frequencies must be finite"
	case start <= 0:
		reason = "start frequency must be positive"
	case stop <= start:
		reason = "stop frequency must exceed start"
	case steps < 1:
		reason = "step count must be at least 1"
	}
	if reason != "" {
		return Schedule{Start: DefaultStartHz, Stop: DefaultStopHz, Steps: DefaultSteps},
			&ConfigError{Start: start, Stop: stop, Steps: steps, Reason: reason}
	}
	return Schedule{Start: start, Stop: stop, Steps: steps}, nil
}

// StepSize returns the linear increment between points. Zero for a
// single-point schedule.
func (s Schedule) StepSize() float64 {
	if s.Steps <= 1 {
		return 0
	}
	return (s.Stop - s.Start) / float64(s.Steps-1)
}

// Frequencies materializes the schedule in ascending order. The last point is
// pinned to Stop so float accumulation cannot push it out of bounds.
func (s Schedule) Frequencies() []float64 {
	freqs := make([]float64, s.Steps)
	step := s.StepSize()
	for i := range freqs {
		freqs[i] = s.Start + float64(i)*step
	}
	if s.Steps > 1 {
		freqs[s.Steps-1] = s.Stop
	}
	return freqs
}
