// Package stats computes duration statistics and groups duration records into summary rows.
package stats

import "slices"

// Median finds the exact median of values. It returns 0 for an empty slice.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	temp := slices.Clone(values)
	slices.Sort(temp)

	n := len(temp)
	if n%2 == 1 {
		return temp[n/2]
	}
	return (temp[n/2-1] + temp[n/2]) / 2.0
}

// Percentile returns the p-th quantile (0 <= p <= 1) of values by linear interpolation
// between closest ranks, with rank (n-1)*p. It returns 0 for an empty slice.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	temp := slices.Clone(values)
	slices.Sort(temp)

	switch {
	case p <= 0:
		return temp[0]
	case p >= 1:
		return temp[len(temp)-1]
	}

	rank := float64(len(temp)-1) * p
	lo := int(rank)
	if lo+1 >= len(temp) {
		return temp[lo]
	}
	frac := rank - float64(lo)
	return temp[lo] + (temp[lo+1]-temp[lo])*frac
}
