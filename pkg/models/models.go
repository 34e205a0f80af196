package models

import (
	"time"
)

// SweepStatus describes the lifecycle state of a sweep session.
type SweepStatus string

const (
	StatusRunning           SweepStatus = "running"
	StatusCompleted         SweepStatus = "completed"
	StatusAbortedOnOverflow SweepStatus = "aborted_overflow"
	StatusAbortedOnError    SweepStatus = "aborted_error"
)

// Record is one accepted measurement point: raw channel readings plus the
// derived gain. Records are append-only; a session never rewrites one.
type Record struct {
	Ch1Freq   float64 `json:"ch1_freq" doc:"Channel 1 (input) frequency in Hz"`
	Ch1Ampl   float64 `json:"ch1_ampl" doc:"Channel 1 peak-to-peak amplitude in Vpp"`
	Ch2Freq   float64 `json:"ch2_freq" doc:"Channel 2 (output) frequency in Hz"`
	Ch2Ampl   float64 `json:"ch2_ampl" doc:"Channel 2 peak-to-peak amplitude in Vpp"`
	PhaseDiff float64 `json:"phase_diff" doc:"Phase difference CH2-CH1 in degrees"`
	GainDb    float64 `json:"gain_db" doc:"Gain 20*log10(CH2/CH1) in dB"`
}

// SkippedPoint records a scheduled frequency that was abandoned after the
// retry limit, so the gap in the dataset is explained rather than silent.
type SkippedPoint struct {
	Frequency float64 `json:"frequency" doc:"Effective test frequency in Hz"`
	Attempts  int     `json:"attempts" doc:"Number of failed capture attempts"`
}

// SweepSession is the unit of work for one frequency sweep: the requested
// range, the accumulated records in capture order, and how the sweep ended.
type SweepSession struct {
	ID              string         `json:"id"`
	StartHz         float64        `json:"start_hz"`
	StopHz          float64        `json:"stop_hz"`
	Steps           int            `json:"steps"`
	DefaultsApplied bool           `json:"defaults_applied"`
	Status          SweepStatus    `json:"status"`
	CursorFrequency float64        `json:"cursor_frequency"`
	Records         []Record       `json:"records"`
	Skipped         []SkippedPoint `json:"skipped,omitempty"`
	// LastGoodUpperFrequency is set when the sweep halts on an overflow
	// reading: the highest frequency that still produced a valid record.
	LastGoodUpperFrequency *float64   `json:"last_good_upper_frequency,omitempty"`
	ErrorMsg               *string    `json:"error_message,omitempty"`
	StartedAt              time.Time  `json:"started_at"`
	CompletedAt            *time.Time `json:"completed_at,omitempty"`
}
