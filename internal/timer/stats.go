package timer

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summarize returns the arithmetic mean and the population standard
// deviation (divided by N) of samples. Empty input yields NaN for both.
func Summarize(samples []float64) (mean, stdev float64) {
	if len(samples) == 0 {
		return math.NaN(), math.NaN()
	}
	if constant(samples) {
		// Summing identical values can leave rounding residue in the mean.
		return samples[0], 0
	}
	return stat.PopMeanStdDev(samples, nil)
}

// Bounds returns the smallest and largest sample. Empty input yields NaN.
func Bounds(samples []float64) (lo, hi float64) {
	if len(samples) == 0 {
		return math.NaN(), math.NaN()
	}
	return floats.Min(samples), floats.Max(samples)
}

func constant(samples []float64) bool {
	for _, s := range samples[1:] {
		if s != samples[0] {
			return false
		}
	}
	return true
}
