package sweep

import (
	"time"
)

// Policy collects the tunable heuristics of the sweep. The nudge and
// overflow behaviors track quirks of a specific instrument, so they are
// parameters rather than constants and can be retargeted per bench.
type Policy struct {
	// MaxAttempts is the number of consecutive erroneous captures at one
	// effective frequency before the point is skipped.
	MaxAttempts int
	// NudgeStepHz is how far the effective frequency moves up when a
	// low-frequency aliasing artifact is detected.
	NudgeStepHz float64
	// LowBandWidthHz defines the low-frequency region as
	// [start, start+LowBandWidthHz]; only there does aliasing trigger a
	// nudge instead of a plain retry.
	LowBandWidthHz float64
	// OverflowSentinel is the threshold above which a reading is treated as
	// the instrument's out-of-range report.
	OverflowSentinel float64
	// SettleInitial is the wait before the very first capture, giving the
	// generator and circuit time to stabilize after bring-up.
	SettleInitial time.Duration
	// SettleBetween is the wait before every other capture.
	SettleBetween time.Duration
	// GeneratorAmplitude is the sine drive level in Vpp.
	GeneratorAmplitude float64
	// GeneratorOffset is the DC offset of the drive in volts.
	GeneratorOffset float64
}

// DefaultPolicy returns the values tuned against the InfiniiVision bench
// setup this tool was written for.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:        5,
		NudgeStepHz:        2,
		LowBandWidthHz:     50,
		OverflowSentinel:   1e10,
		SettleInitial:      3 * time.Second,
		SettleBetween:      750 * time.Millisecond,
		GeneratorAmplitude: 1.0,
		GeneratorOffset:    0,
	}
}
