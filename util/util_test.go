package util

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	negDown := -16.6
	negDownExp := int64(-17)
	negUp := -16.1
	negUpExp := int64(-16)
	posDown := 16.1
	posDownExp := int64(16)
	posUp := 16.6
	posUpExp := int64(17)
	assert.Equal(t, negDownExp, Round(negDown))
	assert.Equal(t, negUpExp, Round(negUp))
	assert.Equal(t, posDownExp, Round(posDown))
	assert.Equal(t, posUpExp, Round(posUp))
	assert.Equal(t, int64(73), Round(72.5))
}

func TestMinMax(t *testing.T) {
	large := 100
	small := -100
	assert.Equal(t, large, Max(large, small))
	assert.Equal(t, large, Max(small, large))
	assert.Equal(t, small, Min(large, small))
	assert.Equal(t, small, Min(small, large))
}

func TestMeanAndVariance(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, SampleVariance([]float64{42}))

	sample := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, 5.0, Mean(sample), 1e-9)
	assert.InDelta(t, 32.0/7.0, SampleVariance(sample), 1e-9)
}

func TestSquaredCV(t *testing.T) {
	assert.Equal(t, 0.0, SquaredCV([]float64{300, 300, 300}))
	assert.True(t, math.IsInf(SquaredCV([]float64{0, 0, 0}), 1))
	assert.True(t, math.IsInf(SquaredCV(nil), 1))
	assert.InDelta(t, (32.0/7.0)/25.0, SquaredCV([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-9)
}
