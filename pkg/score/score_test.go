package score

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombine(t *testing.T) {
	assert.InDelta(t, 0.5, Combine(Factor{0.5, 1}, Factor{0.5, 0}), 1e-9)
	assert.Equal(t, 1.0, Combine(Factor{1, 1}, Factor{1, 1}), "clamped above")
	assert.Equal(t, 0.0, Combine(Factor{1, -1}), "clamped below")
	assert.Equal(t, 0.0, Combine(), "no factors")
}

func TestSaturate(t *testing.T) {
	assert.Equal(t, 0.5, Saturate(50, 100))
	assert.Equal(t, 1.0, Saturate(500, 100))
	assert.Equal(t, 1.0, Saturate(1, 0))
	assert.Equal(t, 0.9, Cap(1.4, 0.9))
	assert.Equal(t, 0.0, Clamp(math.NaN()))
}

func TestRate(t *testing.T) {
	assert.Equal(t, 100.0, Rate(50, 0.5, 0.1))
	assert.Equal(t, 500.0, Rate(50, 0, 0.1), "span floored")
}

func TestClassify(t *testing.T) {
	ladder := func(confidence float64, big bool) Severity {
		return Classify(confidence,
			Tier{Severity: Critical, Above: 0.8, Holds: big},
			Tier{Severity: High, Above: 0.6, Holds: true},
			Tier{Severity: Medium, Above: 0.4, Holds: true},
		)
	}

	testCases := []struct {
		confidence float64
		big        bool
		out        Severity
		msg        string
	}{
		{0.9, true, Critical, "top tier"},
		{0.9, false, High, "magnitude not met"},
		{0.8, true, High, "boundary is exclusive"},
		{0.5, true, Medium, "middle"},
		{0.4, true, Low, "fall through"},
	}

	for _, testCase := range testCases {
		assert.Equal(t, testCase.out, ladder(testCase.confidence, testCase.big), testCase.msg)
	}

	assert.Equal(t, Medium, Classify(0, Tier{Severity: High, Above: 0.7, Holds: true}, Otherwise(Medium)))
}

func TestSeverityRank(t *testing.T) {
	assert.True(t, Critical.Rank() > High.Rank())
	assert.True(t, High.Rank() > Medium.Rank())
	assert.True(t, Medium.Rank() > Low.Rank())
	assert.Equal(t, 0, Severity("bogus").Rank())

	s, ok := ParseSeverity("high")
	assert.True(t, ok)
	assert.Equal(t, High, s)
	_, ok = ParseSeverity("severe")
	assert.False(t, ok)
}

func TestPortPolicy(t *testing.T) {
	common := map[int]struct{}{80: {}, 443: {}}
	policy := NewPortPolicy(common)
	delete(common, 80)

	assert.False(t, policy.IsSuspicious(80), "policy is a copy")
	assert.False(t, policy.IsSuspicious(443))
	assert.True(t, policy.IsSuspicious(4444))
	assert.Equal(t, 0.8, policy.Pick(4444, 0.8, 0.3))
	assert.Equal(t, 0.3, policy.Pick(443, 0.8, 0.3))
	assert.Equal(t, 2, policy.SuspiciousCount([]int{80, 22, 4444}))
	assert.True(t, PolicyFromList([]int{53}).IsSuspicious(80))
}
