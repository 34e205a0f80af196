package sweep

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bodelab/bodesweep/internal/instrument"
	"github.com/bodelab/bodesweep/pkg/models"
)

// scriptedAdapter serves a fixed sequence of readings, one per armed
// capture, and records the commands the engine issued.
type scriptedAdapter struct {
	readings []instrument.RawReading
	current  instrument.RawReading
	captures int

	setFreqs   []float64
	autoscales int
	configured bool

	configureErr error
	armErrAt     int // 1-based capture index that fails; 0 means never
}

func (a *scriptedAdapter) Identify(ctx context.Context) (string, error) {
	return "SCRIPTED,TEST,0,0", nil
}

func (a *scriptedAdapter) ConfigureDefaults(ctx context.Context) error {
	return nil
}

func (a *scriptedAdapter) ConfigureGenerator(ctx context.Context, freq, amplitude, offset float64) error {
	if a.configureErr != nil {
		return a.configureErr
	}
	a.configured = true
	return nil
}

func (a *scriptedAdapter) SetGeneratorFrequency(ctx context.Context, freq float64) error {
	a.setFreqs = append(a.setFreqs, freq)
	return nil
}

func (a *scriptedAdapter) Autoscale(ctx context.Context) error {
	a.autoscales++
	return nil
}

func (a *scriptedAdapter) Arm(ctx context.Context) error {
	a.captures++
	if a.armErrAt > 0 && a.captures == a.armErrAt {
		return instrument.Errf(":DIGitize", errors.New("connection reset"))
	}
	if a.captures > len(a.readings) {
		return instrument.Errf(":DIGitize", errors.New("script exhausted"))
	}
	a.current = a.readings[a.captures-1]
	return nil
}

func (a *scriptedAdapter) ReadChannelMeasurement(ctx context.Context, ch instrument.Channel) (instrument.ChannelReading, error) {
	if ch == instrument.Channel1 {
		return instrument.ChannelReading{Frequency: a.current.InputFrequency, Amplitude: a.current.InputAmplitude}, nil
	}
	return instrument.ChannelReading{Frequency: a.current.OutputFrequency, Amplitude: a.current.OutputAmplitude}, nil
}

func (a *scriptedAdapter) ReadPhaseDifference(ctx context.Context) (float64, error) {
	return a.current.PhaseDiff, nil
}

func (a *scriptedAdapter) Close() error {
	return nil
}

// valid builds a clean reading at frequency f with -6 dB through the circuit.
func valid(f float64) instrument.RawReading {
	return instrument.RawReading{
		InputFrequency:  f,
		InputAmplitude:  1.0,
		OutputFrequency: f,
		OutputAmplitude: 0.5,
		PhaseDiff:       -45,
	}
}

// aliased builds a reading whose output counter ran far ahead of the input.
func aliased(f float64) instrument.RawReading {
	return instrument.RawReading{
		InputFrequency:  f,
		InputAmplitude:  1.0,
		OutputFrequency: 3 * f,
		OutputAmplitude: 0.5,
	}
}

// overflowed builds a reading with the instrument's out-of-range sentinel.
func overflowed(f float64) instrument.RawReading {
	return instrument.RawReading{
		InputFrequency:  f,
		InputAmplitude:  1.0,
		OutputFrequency: f,
		OutputAmplitude: 9.9e37,
	}
}

func validN(freqs ...float64) []instrument.RawReading {
	readings := make([]instrument.RawReading, len(freqs))
	for i, f := range freqs {
		readings[i] = valid(f)
	}
	return readings
}

func TestEngineCompletesCleanSweep(t *testing.T) {
	adapter := &scriptedAdapter{readings: validN(100, 150, 200)}
	engine := NewEngine(adapter, testPolicy())

	session, err := engine.Run(context.Background(), 100, 200, 3)
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, session.Status)
	assert.False(t, session.DefaultsApplied)
	require.Len(t, session.Records, 3)
	assert.Empty(t, session.Skipped)
	assert.NotNil(t, session.CompletedAt)

	assert.Equal(t, []float64{100, 150, 200}, adapter.setFreqs)
	assert.True(t, adapter.configured)

	// Gain derived per record: 20*log10(0.5/1.0) ~ -6.02 dB.
	for _, rec := range session.Records {
		assert.InDelta(t, -6.0206, rec.GainDb, 1e-3)
		assert.Equal(t, -45.0, rec.PhaseDiff)
	}
}

func TestEngineAutoscalesOnlyOnFirstPoint(t *testing.T) {
	adapter := &scriptedAdapter{readings: validN(100, 150, 200)}
	engine := NewEngine(adapter, testPolicy())

	_, err := engine.Run(context.Background(), 100, 200, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, adapter.autoscales)
}

func TestEngineSkipsPointAfterExhaustedRetries(t *testing.T) {
	// Point at 5000 Hz (outside the low band) fails five times, then the
	// sweep moves on.
	readings := []instrument.RawReading{valid(100)}
	for i := 0; i < 5; i++ {
		readings = append(readings, aliased(5000))
	}
	readings = append(readings, valid(10000))

	adapter := &scriptedAdapter{readings: readings}
	engine := NewEngine(adapter, testPolicy())

	session, err := engine.Run(context.Background(), 100, 10000, 3)
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, session.Status)
	require.Len(t, session.Records, 2)
	require.Len(t, session.Skipped, 1)
	assert.Equal(t, 5050.0, session.Skipped[0].Frequency)
	assert.Equal(t, 5, session.Skipped[0].Attempts)
	// No record exists for the skipped frequency.
	for _, rec := range session.Records {
		assert.NotEqual(t, 5050.0, rec.Ch1Freq)
	}
}

func TestEngineHaltsOnOverflow(t *testing.T) {
	adapter := &scriptedAdapter{readings: []instrument.RawReading{
		valid(100),
		valid(5050),
		overflowed(10000),
	}}
	engine := NewEngine(adapter, testPolicy())

	session, err := engine.Run(context.Background(), 100, 10000, 3)
	require.NoError(t, err)

	assert.Equal(t, models.StatusAbortedOnOverflow, session.Status)
	require.Len(t, session.Records, 2)
	require.NotNil(t, session.LastGoodUpperFrequency)
	assert.Equal(t, 5050.0, *session.LastGoodUpperFrequency)

	// No frequency above the overflow point was commanded.
	assert.Equal(t, []float64{100, 5050, 10000}, adapter.setFreqs)
}

func TestEngineNudgesThroughLowFrequencyAliasing(t *testing.T) {
	adapter := &scriptedAdapter{readings: []instrument.RawReading{
		aliased(100),
		aliased(102),
		valid(104),
		valid(150),
	}}
	engine := NewEngine(adapter, testPolicy())

	session, err := engine.Run(context.Background(), 100, 150, 2)
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, session.Status)
	require.Len(t, session.Records, 2)
	assert.Empty(t, session.Skipped)

	// The first point was nudged 100 -> 102 -> 104; once a valid capture
	// landed, the second point ran at its nominal frequency.
	assert.Equal(t, []float64{100, 102, 104, 150}, adapter.setFreqs)
	assert.Equal(t, 104.0, session.Records[0].Ch1Freq)
	assert.Equal(t, 150.0, session.Records[1].Ch1Freq)
}

func TestEngineAbortsOnAdapterErrorPreservingPartialData(t *testing.T) {
	adapter := &scriptedAdapter{
		readings: validN(100, 150, 200),
		armErrAt: 2,
	}
	engine := NewEngine(adapter, testPolicy())

	session, err := engine.Run(context.Background(), 100, 200, 3)
	require.Error(t, err)

	var adapterErr *instrument.AdapterError
	assert.ErrorAs(t, err, &adapterErr)

	assert.Equal(t, models.StatusAbortedOnError, session.Status)
	require.NotNil(t, session.ErrorMsg)
	assert.Contains(t, *session.ErrorMsg, "connection reset")
	// The first point survived the abort.
	require.Len(t, session.Records, 1)
	assert.NotNil(t, session.CompletedAt)
}

func TestEngineAbortsWhenGeneratorSetupFails(t *testing.T) {
	adapter := &scriptedAdapter{
		configureErr: instrument.Errf(":WGEN", errors.New("no instrument")),
	}
	engine := NewEngine(adapter, testPolicy())

	session, err := engine.Run(context.Background(), 100, 200, 3)
	require.Error(t, err)
	assert.Equal(t, models.StatusAbortedOnError, session.Status)
	assert.Empty(t, session.Records)
}

func TestEngineSubstitutesDefaultsForInvalidBounds(t *testing.T) {
	freqs := Schedule{Start: DefaultStartHz, Stop: DefaultStopHz, Steps: DefaultSteps}.Frequencies()
	adapter := &scriptedAdapter{readings: validN(freqs...)}
	engine := NewEngine(adapter, testPolicy())

	session, err := engine.Run(context.Background(), -5, 10, 0)
	require.NoError(t, err)

	assert.True(t, session.DefaultsApplied)
	assert.Equal(t, DefaultStartHz, session.StartHz)
	assert.Equal(t, DefaultStopHz, session.StopHz)
	assert.Equal(t, DefaultSteps, session.Steps)
	assert.Equal(t, models.StatusCompleted, session.Status)
	assert.Len(t, session.Records, DefaultSteps)
}

// recordingObserver keeps the snapshots the engine publishes.
type recordingObserver struct {
	snapshots []models.SweepSession
}

func (o *recordingObserver) SessionUpdated(s models.SweepSession) {
	o.snapshots = append(o.snapshots, s)
}

func TestEnginePublishesSessionSnapshots(t *testing.T) {
	observer := &recordingObserver{}
	adapter := &scriptedAdapter{readings: validN(100, 150, 200)}
	engine := NewEngine(adapter, testPolicy(), WithObserver(observer))

	session, err := engine.Run(context.Background(), 100, 200, 3)
	require.NoError(t, err)

	require.NotEmpty(t, observer.snapshots)
	first := observer.snapshots[0]
	assert.Equal(t, models.StatusRunning, first.Status)

	last := observer.snapshots[len(observer.snapshots)-1]
	assert.Equal(t, models.StatusCompleted, last.Status)
	assert.Len(t, last.Records, 3)

	// Snapshots are copies: mutating the live session must not reach them.
	session.Records[0].GainDb = 99
	assert.NotEqual(t, 99.0, last.Records[0].GainDb)
}

func TestEngineStopsOnCancelledContext(t *testing.T) {
	adapter := &scriptedAdapter{readings: validN(100, 150, 200)}
	policy := testPolicy()
	policy.SettleInitial = 1 // force a settle wait so cancellation has a window
	engine := NewEngine(adapter, policy)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	session, err := engine.Run(ctx, 100, 200, 3)
	require.Error(t, err)
	assert.Equal(t, models.StatusAbortedOnError, session.Status)
}
