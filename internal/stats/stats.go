// Package stats holds the descriptive statistics shared by the portfolio
// aggregator and the Monte Carlo engine.
package stats

import (
	"math"
	"sort"
)

// Mean calculates the arithmetic mean. Returns 0 for empty input.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Stddev calculates sample standard deviation (n-1 denominator).
func Stddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// Quantile uses linear interpolation between order statistics.
// sorted must be pre-sorted ASC. p is in [0,1]; index h = p*(n-1).
// This matches R type 7 and the numpy default.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 || p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// TailMean returns the mean of all values >= threshold.
// sorted must be pre-sorted ASC. Returns threshold when no value qualifies.
func TailMean(sorted []float64, threshold float64) float64 {
	start := sort.SearchFloat64s(sorted, threshold)
	if start >= len(sorted) {
		return threshold
	}
	return Mean(sorted[start:])
}

// Median returns the 0.5 quantile of unsorted values without modifying them.
func Median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return Quantile(sorted, 0.5)
}
