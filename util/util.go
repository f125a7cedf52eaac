package util

import (
	"math"
)

// TimeFormat stores a correctly formatted timestamp
const TimeFormat string = "2006-01-02-T15:04:05-0700"

// Round returns rounded int64
func Round(f float64) int64 {
	return int64(math.Floor(f + .5))
}

// Min returns the smaller of two integers
func Min(a int, b int) int {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of two integers
func Max(a int, b int) int {
	if a > b {
		return a
	}
	return b
}

// Mean returns the arithmetic mean of the sample, zero for an empty sample
func Mean(sample []float64) float64 {
	if len(sample) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range sample {
		sum += v
	}
	return sum / float64(len(sample))
}

// SampleVariance returns the unbiased (n-1) variance of the sample.
// Samples with fewer than two values have zero variance.
func SampleVariance(sample []float64) float64 {
	if len(sample) < 2 {
		return 0
	}
	mean := Mean(sample)
	sum := 0.0
	for _, v := range sample {
		sum += (v - mean) * (v - mean)
	}
	return sum / float64(len(sample)-1)
}

// SquaredCV returns variance / mean^2 of the sample, the squared
// coefficient of variation. A non-positive mean yields +Inf.
func SquaredCV(sample []float64) float64 {
	mean := Mean(sample)
	if mean <= 0 {
		return math.Inf(1)
	}
	return SampleVariance(sample) / (mean * mean)
}
