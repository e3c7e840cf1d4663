package audio

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// MeasureLevels computes the RMS and peak amplitude of normalized samples.
// Both are 0 for an empty slice.
func MeasureLevels(samples []float32) (rms, peak float64) {
	if len(samples) == 0 {
		return 0, 0
	}

	buf := make([]float64, len(samples))
	for i, s := range samples {
		buf[i] = float64(s)
	}

	rms = math.Sqrt(floats.Dot(buf, buf) / float64(len(buf)))
	peak = math.Max(floats.Max(buf), -floats.Min(buf))
	return rms, peak
}
