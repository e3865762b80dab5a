package stats

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary holds the statistics of one group of durations, in seconds.
type Summary struct {
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	Median float64
	P90    float64
}

// Summarize computes the statistics of values. The boolean is false for an empty series, in
// which case the summary is zero.
func Summarize(values []float64) (Summary, bool) {
	if len(values) == 0 {
		return Summary{}, false
	}
	return Summary{
		Count:  len(values),
		Min:    floats.Min(values),
		Max:    floats.Max(values),
		Mean:   stat.Mean(values, nil),
		Median: Median(values),
		P90:    Percentile(values, 0.9),
	}, true
}
