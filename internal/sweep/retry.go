package sweep

// PointState is the per-point capture state machine.
type PointState int

const (
	Capturing PointState = iota
	Accepted
	NudgedLow
	SkippedAfterRetries
	HaltedOnOverflow
)

func (s PointState) String() string {
	switch s {
	case Capturing:
		return "capturing"
	case Accepted:
		return "accepted"
	case NudgedLow:
		return "nudged_low"
	case SkippedAfterRetries:
		return "skipped_after_retries"
	case HaltedOnOverflow:
		return "halted_on_overflow"
	}
	return "unknown"
}

// Decision tells the engine what to do after an erroneous capture.
type Decision int

const (
	// DecisionRetry: recapture at the same effective frequency.
	DecisionRetry Decision = iota
	// DecisionNudge: recapture at a slightly higher effective frequency.
	DecisionNudge
	// DecisionSkip: abandon this point, advance to the next scheduled one.
	DecisionSkip
	// DecisionHalt: stop the sweep, higher frequencies are out of range.
	DecisionHalt
)

// RetryController owns the per-point capture/retry protocol: bounded retries,
// the low-frequency nudge, and overflow halt. One controller serves a whole
// session because the nudge offset carries across points until the first
// valid capture.
type RetryController struct {
	policy     Policy
	lowCeiling float64

	// nudgeArmed is true until the session's first valid capture. While
	// armed, aliasing inside the low band moves the frequency instead of
	// burning a retry.
	nudgeArmed  bool
	nudgeOffset float64

	freq     float64
	failures int
	state    PointState
}

// NewRetryController builds a controller for a session starting at
// scheduleStart Hz.
func NewRetryController(policy Policy, scheduleStart float64) *RetryController {
	return &RetryController{
		policy:     policy,
		lowCeiling: scheduleStart + policy.LowBandWidthHz,
		nudgeArmed: true,
	}
}

// BeginPoint resets per-point state for the given scheduled frequency. Any
// accumulated nudge offset still applies while the nudge is armed, so the
// effective frequency can differ from the nominal schedule.
func (c *RetryController) BeginPoint(scheduled float64) {
	c.freq = scheduled
	if c.nudgeArmed {
		c.freq += c.nudgeOffset
	}
	c.failures = 0
	c.state = Capturing
}

// Frequency returns the current effective test frequency.
func (c *RetryController) Frequency() float64 {
	return c.freq
}

// Failures returns the consecutive failed attempts at the current effective
// frequency.
func (c *RetryController) Failures() int {
	return c.failures
}

// State returns the current per-point state.
func (c *RetryController) State() PointState {
	return c.state
}

// OnValid records a successful capture. The first one disarms the
// low-frequency nudge for the rest of the session.
func (c *RetryController) OnValid() {
	c.state = Accepted
	c.nudgeArmed = false
}

// OnError applies the retry policy to one erroneous capture and returns the
// engine's next move.
func (c *RetryController) OnError(merr *MeasurementError) Decision {
	switch {
	case merr.Reason == OverflowReading:
		// Evidence the sweep passed the circuit's usable upper range. The
		// remaining higher points are abandoned wholesale, not retried.
		c.state = HaltedOnOverflow
		return DecisionHalt

	case merr.Reason == AliasingSuspected && c.nudgeArmed && c.freq <= c.lowCeiling:
		// Retrying at the same low frequency reproduces the same artifact,
		// so move up instead. Nudges change the frequency rather than
		// counting against the retry limit.
		c.freq += c.policy.NudgeStepHz
		c.nudgeOffset += c.policy.NudgeStepHz
		c.state = NudgedLow
		return DecisionNudge

	default:
		c.failures++
		if c.failures >= c.policy.MaxAttempts {
			c.state = SkippedAfterRetries
			return DecisionSkip
		}
		c.state = Capturing
		return DecisionRetry
	}
}
