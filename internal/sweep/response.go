package sweep

import (
	"math"

	"github.com/bodelab/bodesweep/internal/instrument"
	"github.com/bodelab/bodesweep/pkg/models"
)

// ComputeRecord derives the stored record from a validated reading:
// gain = 20*log10(Vout/Vin) with both amplitudes in Vpp, phase passed through
// in degrees. Pure function of the reading.
//
// A zero input amplitude cannot produce a gain; that is reported as a
// DivideByZero measurement error and must go through the retry path, never
// into the dataset as a fake zero-gain point.
func ComputeRecord(r instrument.RawReading) (models.Record, *MeasurementError) {
	if r.InputAmplitude == 0 {
		return models.Record{}, &MeasurementError{Reason: DivideByZero, Reading: r}
	}
	return models.Record{
		Ch1Freq:   r.InputFrequency,
		Ch1Ampl:   r.InputAmplitude,
		Ch2Freq:   r.OutputFrequency,
		Ch2Ampl:   r.OutputAmplitude,
		PhaseDiff: r.PhaseDiff,
		GainDb:    20 * math.Log10(r.OutputAmplitude/r.InputAmplitude),
	}, nil
}
