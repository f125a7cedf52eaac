package score

import "math"

// Byte magnitudes used by the volume factors
const (
	MiB int64 = 1024 * 1024
	GiB int64 = 1024 * MiB
)

// Factor is one weighted signal in [0,1]
type Factor struct {
	Weight float64
	Value  float64
}

// Combine sums the weighted factors and clamps the result to [0,1]
func Combine(factors ...Factor) float64 {
	total := 0.0
	for _, f := range factors {
		total += f.Weight * f.Value
	}
	return Clamp(total)
}

// Saturate returns value/limit capped at 1. A non-positive limit
// saturates immediately.
func Saturate(value, limit float64) float64 {
	if limit <= 0 {
		return 1
	}
	return math.Min(1, value/limit)
}

// Cap bounds a confidence from above
func Cap(value, limit float64) float64 {
	return math.Min(limit, value)
}

// Clamp bounds a confidence to [0,1]. NaN clamps to 0.
func Clamp(value float64) float64 {
	if math.IsNaN(value) || value < 0 {
		return 0
	}
	return math.Min(1, value)
}

// Rate divides a count by a span in hours, flooring the span so that
// bursts do not divide by near zero
func Rate(count, hours, floor float64) float64 {
	return count / math.Max(hours, floor)
}
