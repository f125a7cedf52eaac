package score

import "math"

// Severity is the coarse classification attached to every finding
type Severity string

const (
	//Low severity findings are informational
	Low Severity = "low"
	//Medium severity findings warrant review
	Medium Severity = "medium"
	//High severity findings warrant prompt review
	High Severity = "high"
	//Critical severity findings warrant immediate response
	Critical Severity = "critical"
)

// Severities lists every tier from most to least severe
var Severities = []Severity{Critical, High, Medium, Low}

// Rank orders severities so that Critical > High > Medium > Low.
// Unrecognized values rank below Low.
func (s Severity) Rank() int {
	switch s {
	case Critical:
		return 4
	case High:
		return 3
	case Medium:
		return 2
	case Low:
		return 1
	default:
		return 0
	}
}

// ParseSeverity matches a severity name, reporting false for unknown names
func ParseSeverity(name string) (Severity, bool) {
	for _, s := range Severities {
		if string(s) == name {
			return s, true
		}
	}
	return "", false
}

// Tier is one rung of a severity ladder. It applies when the confidence
// is strictly above Above and the magnitude condition Holds.
type Tier struct {
	Severity Severity
	Above    float64
	Holds    bool
}

// Otherwise is a tier which always applies
func Otherwise(s Severity) Tier {
	return Tier{Severity: s, Above: math.Inf(-1), Holds: true}
}

// Classify walks the ladder from the top and returns the first tier that
// applies. Low is returned when none does.
func Classify(confidence float64, ladder ...Tier) Severity {
	for _, tier := range ladder {
		if tier.Holds && confidence > tier.Above {
			return tier.Severity
		}
	}
	return Low
}
