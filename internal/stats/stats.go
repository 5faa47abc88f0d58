// Package stats holds the small summary statistics shared by the detectors
// and the consensus engine. Results stay finite for finite input, even near
// the limits of float64.
package stats

import (
	"math"
	"sort"
)

// Mean returns the arithmetic mean of values, 0 for no values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	n := float64(len(values))
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	if !math.IsInf(sum, 0) {
		return sum / n
	}

	// The sum overflowed: average the scaled values instead
	m := 0.0
	for _, v := range values {
		m += v / n
	}
	return m
}

// Median returns the middle value, averaging the two middle values of an even
// count. values is not modified. Returns 0 for no values.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return Midpoint(sorted[mid-1], sorted[mid])
}

// Midpoint returns the value halfway between a and b.
func Midpoint(a, b float64) float64 {
	if m := (a + b) / 2; !math.IsInf(m, 0) {
		return m
	}
	return a/2 + b/2
}

// CoefficientOfVariation returns the population standard deviation divided
// by the mean, 0 for fewer than two values or a zero mean.
func CoefficientOfVariation(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	m := Mean(values)
	if m == 0 {
		return 0
	}

	v := 0.0
	for _, val := range values {
		diff := val - m
		v += diff * diff
	}
	v /= float64(len(values))

	return math.Sqrt(v) / m
}
