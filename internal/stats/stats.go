// Package stats holds the small set of descriptive statistics used to grade plans.
package stats

import (
	"math"
	"sort"
)

// Sum adds the values
func Sum(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum
}

// Mean calculates the arithmetic mean, 0 for no values
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return Sum(values) / float64(len(values))
}

// Variance calculates the population variance
func Variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return sq / float64(len(values))
}

// StdDev calculates the population standard deviation
func StdDev(values []float64) float64 {
	return math.Sqrt(Variance(values))
}

// CoefficientOfVariation calculates stddev / mean, 0 when the mean is 0
func CoefficientOfVariation(values []float64) float64 {
	mean := Mean(values)
	if mean == 0 {
		return 0
	}
	return StdDev(values) / mean
}

// ShannonEntropy calculates the entropy in bits of a frequency distribution
func ShannonEntropy(counts []float64) float64 {
	total := Sum(counts)
	if total <= 0 {
		return 0
	}
	var h float64
	for _, c := range counts {
		if c > 0 {
			p := c / total
			h -= p * math.Log2(p)
		}
	}
	return h
}

// NormalizedEntropy scales ShannonEntropy to 0..1 by log2 of the category count
func NormalizedEntropy(counts []float64) float64 {
	if len(counts) <= 1 {
		return 0
	}
	return ShannonEntropy(counts) / math.Log2(float64(len(counts)))
}

// Gini calculates the Gini coefficient of non-negative values: 0 is perfect
// equality, values near 1 mean one holder has everything
func Gini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	total := Sum(sorted)
	if total <= 0 {
		return 0
	}
	var weighted float64
	for i, v := range sorted {
		weighted += float64(i+1) * v
	}
	return (2*weighted)/(float64(n)*total) - float64(n+1)/float64(n)
}
