// Package stats holds the small numeric helpers shared by the scoring,
// clustering and cleaning stages.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Quantile returns the p-quantile of sorted using linear interpolation between
// order statistics (Hyndman-Fan type 7). sorted must be ascending and non-empty.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// Quantiles sorts a copy of values and evaluates every probability in ps.
func Quantiles(values []float64, ps ...float64) []float64 {
	sorted := SortedCopy(values)
	out := make([]float64, len(ps))
	for i, p := range ps {
		out[i] = Quantile(sorted, p)
	}
	return out
}

// Median returns the middle value of values, averaging the two central
// values for even lengths. values is not modified.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return Quantile(SortedCopy(values), 0.5)
}

// Mean returns the arithmetic mean of values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return stat.Mean(values, nil)
}

// PopMeanStd returns the mean and the population (ddof=0) standard deviation.
func PopMeanStd(values []float64) (mean, std float64) {
	return stat.PopMeanStdDev(values, nil)
}

// Distinct counts the distinct values in values.
func Distinct(values []float64) int {
	sorted := SortedCopy(values)
	count := 0
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			count++
		}
	}
	return count
}

// SortedCopy returns an ascending copy of values.
func SortedCopy(values []float64) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return sorted
}
