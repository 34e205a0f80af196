// Package sweep implements the frequency-response sweep engine: scheduling,
// per-point capture with validation and retries, gain derivation, and session
// assembly. The instrument behind the adapter interface is the only external
// dependency, which keeps the whole state machine testable on a desk.
package sweep

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/bodelab/bodesweep/internal/instrument"
	"github.com/bodelab/bodesweep/pkg/models"
)

// Observer receives session snapshots as the sweep progresses. Snapshots are
// copies; the observer may retain them.
type Observer interface {
	SessionUpdated(s models.SweepSession)
}

// Engine drives one sweep session at a time against a single exclusively
// owned instrument connection. Strictly sequential: every capture depends on
// the generator state set immediately before it.
type Engine struct {
	adapter   instrument.Adapter
	policy    Policy
	validator Validator
	observer  Observer
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver attaches a progress observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// NewEngine creates a sweep engine over the given adapter.
func NewEngine(adapter instrument.Adapter, policy Policy, opts ...Option) *Engine {
	e := &Engine{
		adapter:   adapter,
		policy:    policy,
		validator: NewValidator(policy.OverflowSentinel),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes a full sweep over [start, stop] with the given step count and
// returns the finalized session. The session is returned on every path,
// including aborts: partial results are preserved, never discarded. The
// returned error is non-nil only for adapter-level faults (including context
// cancellation); measurement faults are absorbed by the retry policy.
func (e *Engine) Run(ctx context.Context, start, stop float64, steps int) (*models.SweepSession, error) {
	sched, cfgErr := NewSchedule(start, stop, steps)
	if cfgErr != nil {
		log.Warn().Err(cfgErr).Msg("Sweep bounds rejected, defaults substituted")
	}

	session := &models.SweepSession{
		ID:              uuid.New().String(),
		StartHz:         sched.Start,
		StopHz:          sched.Stop,
		Steps:           sched.Steps,
		DefaultsApplied: cfgErr != nil,
		Status:          models.StatusRunning,
		StartedAt:       time.Now(),
	}
	e.publish(session)

	log.Info().
		Str("sessionID", session.ID).
		Float64("startHz", sched.Start).
		Float64("stopHz", sched.Stop).
		Int("steps", sched.Steps).
		Msg("Starting sweep")

	if err := e.adapter.ConfigureGenerator(ctx, sched.Start, e.policy.GeneratorAmplitude, e.policy.GeneratorOffset); err != nil {
		return e.abort(session, err)
	}

	retry := NewRetryController(e.policy, sched.Start)
	var (
		lastGood     float64
		hasGood      bool
		autoscaled   bool
		firstCapture = true
		frequencies  = sched.Frequencies()
	)

	for i, nominal := range frequencies {
		retry.BeginPoint(nominal)

	attempts:
		for {
			eff := retry.Frequency()
			session.CursorFrequency = eff

			if err := e.adapter.SetGeneratorFrequency(ctx, eff); err != nil {
				return e.abort(session, err)
			}

			settle := e.policy.SettleBetween
			if firstCapture {
				settle = e.policy.SettleInitial
			}
			if err := e.waitSettle(ctx, settle); err != nil {
				return e.abort(session, err)
			}
			firstCapture = false

			// One autoscale establishes the viewing window; repeating it per
			// point would discard the window mid-sweep.
			if !autoscaled {
				if err := e.adapter.Autoscale(ctx); err != nil {
					return e.abort(session, err)
				}
				autoscaled = true
			}

			reading, err := e.capture(ctx)
			if err != nil {
				return e.abort(session, err)
			}

			merr := e.validator.Validate(reading)
			if merr == nil {
				var rec models.Record
				rec, merr = ComputeRecord(reading)
				if merr == nil {
					retry.OnValid()
					session.Records = append(session.Records, rec)
					lastGood = eff
					hasGood = true
					log.Info().
						Int("point", i+1).
						Int("of", sched.Steps).
						Float64("freqHz", eff).
						Float64("gainDb", rec.GainDb).
						Float64("phaseDeg", rec.PhaseDiff).
						Msg("Point accepted")
					break attempts
				}
			}

			switch retry.OnError(merr) {
			case DecisionNudge:
				log.Warn().
					Str("reason", string(merr.Reason)).
					Float64("nudgedToHz", retry.Frequency()).
					Msg("Erroneous signal in low band, nudging frequency")

			case DecisionRetry:
				log.Warn().
					Str("reason", string(merr.Reason)).
					Float64("freqHz", eff).
					Int("failures", retry.Failures()).
					Msg("Erroneous signal, retrying")

			case DecisionSkip:
				session.Skipped = append(session.Skipped, models.SkippedPoint{
					Frequency: eff,
					Attempts:  retry.Failures(),
				})
				log.Warn().
					Float64("freqHz", eff).
					Int("attempts", retry.Failures()).
					Msg("Unable to read signal, skipping point")
				break attempts

			case DecisionHalt:
				if hasGood {
					session.LastGoodUpperFrequency = &lastGood
					log.Warn().
						Float64("freqHz", eff).
						Float64("lastGoodHz", lastGood).
						Msgf("Overflow reading, halting sweep; suggested range %g Hz - %g Hz", sched.Start, lastGood)
				} else {
					log.Warn().Float64("freqHz", eff).Msg("Overflow reading before any valid point, halting sweep")
				}
				session.Status = models.StatusAbortedOnOverflow
				e.finalize(session)
				return session, nil
			}
		}
		e.publish(session)
	}

	session.Status = models.StatusCompleted
	e.finalize(session)
	return session, nil
}

// capture arms one acquisition and reads both channels plus the phase shift.
func (e *Engine) capture(ctx context.Context) (instrument.RawReading, error) {
	if err := e.adapter.Arm(ctx); err != nil {
		return instrument.RawReading{}, err
	}
	ch1, err := e.adapter.ReadChannelMeasurement(ctx, instrument.Channel1)
	if err != nil {
		return instrument.RawReading{}, err
	}
	ch2, err := e.adapter.ReadChannelMeasurement(ctx, instrument.Channel2)
	if err != nil {
		return instrument.RawReading{}, err
	}
	phase, err := e.adapter.ReadPhaseDifference(ctx)
	if err != nil {
		return instrument.RawReading{}, err
	}
	return instrument.RawReading{
		InputFrequency:  ch1.Frequency,
		InputAmplitude:  ch1.Amplitude,
		OutputFrequency: ch2.Frequency,
		OutputAmplitude: ch2.Amplitude,
		PhaseDiff:       phase,
	}, nil
}

// waitSettle blocks for the settle duration, or returns early if the context
// is cancelled.
func (e *Engine) waitSettle(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// abort finalizes the session after an adapter-level fault. Whatever records
// were gathered stay on the session.
func (e *Engine) abort(session *models.SweepSession, err error) (*models.SweepSession, error) {
	msg := err.Error()
	session.Status = models.StatusAbortedOnError
	session.ErrorMsg = &msg
	log.Error().Err(err).Str("sessionID", session.ID).Int("records", len(session.Records)).
		Msg("Sweep aborted on instrument error, partial dataset preserved")
	e.finalize(session)
	return session, err
}

func (e *Engine) finalize(session *models.SweepSession) {
	now := time.Now()
	session.CompletedAt = &now
	e.publish(session)
	log.Info().
		Str("sessionID", session.ID).
		Str("status", string(session.Status)).
		Int("records", len(session.Records)).
		Int("skipped", len(session.Skipped)).
		Msg("Sweep finalized")
}

// publish hands a deep copy of the session to the observer, if any.
func (e *Engine) publish(session *models.SweepSession) {
	if e.observer == nil {
		return
	}
	snapshot := *session
	snapshot.Records = append([]models.Record(nil), session.Records...)
	snapshot.Skipped = append([]models.SkippedPoint(nil), session.Skipped...)
	e.observer.SessionUpdated(snapshot)
}
