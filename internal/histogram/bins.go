// Package histogram renders duration distributions as PNG charts.
package histogram

import (
	"math"

	"github.com/nasa/opera-sds-bach-api/internal/stats"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot/plotter"
)

const (
	// coarseThreshold is the sample size from which only Sturges' rule is used.
	coarseThreshold = 1000
	maxBins         = 100
)

// Bins picks a bin count for values: the larger of Sturges and Freedman-Diaconis below
// coarseThreshold values, Sturges alone at or above it. Empty input yields 0 bins and a
// constant series yields 1.
func Bins(values []float64) int {
	n := len(values)
	if n == 0 {
		return 0
	}
	span := floats.Max(values) - floats.Min(values)
	if span == 0 {
		return 1
	}

	bins := int(math.Ceil(math.Log2(float64(n)))) + 1
	if n < coarseThreshold {
		iqr := stats.Percentile(values, 0.75) - stats.Percentile(values, 0.25)
		if iqr > 0 {
			width := 2 * iqr / math.Cbrt(float64(n))
			bins = max(bins, int(math.Ceil(span/width)))
		}
	}
	return min(max(bins, 1), maxBins)
}

// binValues counts values into n equal-width bins spanning their range. The last bin is
// closed on the right. A constant series gets one unit-wide bin centred on the value.
func binValues(values []float64, n int) []plotter.HistogramBin {
	if len(values) == 0 || n <= 0 {
		return nil
	}
	lo, hi := floats.Min(values), floats.Max(values)
	if lo == hi {
		return []plotter.HistogramBin{{Min: lo - 0.5, Max: hi + 0.5, Weight: float64(len(values))}}
	}

	width := (hi - lo) / float64(n)
	out := make([]plotter.HistogramBin, n)
	for i := range out {
		out[i].Min = lo + float64(i)*width
		out[i].Max = lo + float64(i+1)*width
	}
	out[n-1].Max = hi
	for _, v := range values {
		i := int((v - lo) / width)
		if i >= n {
			i = n - 1
		}
		out[i].Weight++
	}
	return out
}
