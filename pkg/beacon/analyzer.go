package beacon

import (
	"github.com/activecm/rita-flow/config"
	"github.com/activecm/rita-flow/pkg/flow"
	"github.com/activecm/rita-flow/pkg/score"
	"github.com/activecm/rita-flow/pkg/threat"
	"github.com/activecm/rita-flow/util"
)

type (
	//Analyzer finds regular, repeated connections between hosts
	Analyzer struct {
		conf  config.BeaconStaticCfg
		ports score.PortPolicy
	}
)

// NewAnalyzer creates a beacon analyzer from a copy of the config
func NewAnalyzer(conf *config.Config) *Analyzer {
	return &Analyzer{
		conf:  conf.S.Beacon,
		ports: score.NewPortPolicy(conf.R.Ports.Common),
	}
}

// Type returns the detection type reported by the analyzer
func (a *Analyzer) Type() threat.Type {
	return threat.Beacon
}

// Threats runs the analysis and converts the candidates into threats
func (a *Analyzer) Threats(records []flow.Record) []threat.Threat {
	candidates := a.Analyze(records)
	threats := make([]threat.Threat, 0, len(candidates))
	for _, c := range candidates {
		threats = append(threats, c.ToThreat())
	}
	return threats
}

// Analyze returns a candidate for every group of accepted flows which
// repeats often and regularly enough
func (a *Analyzer) Analyze(records []flow.Record) []Candidate {
	order, groups := dissect(records)

	var candidates []Candidate
	for _, key := range order {
		group := groups[key]
		if len(group) < a.conf.MinConnections || len(group) < 2 {
			continue
		}

		sortByTime(group)
		diff := intervals(group)

		avgInterval := util.Mean(diff)
		variance := util.SampleVariance(diff)
		// a zero mean interval makes the cv infinite and the consistency 0
		consistency := 1 / (1 + util.SquaredCV(diff))

		var totalBytes int64
		for _, record := range group {
			totalBytes += record.BytesSent
		}

		count := len(group)
		suspicious := a.ports.IsSuspicious(key.port)
		confidence := score.Combine(
			score.Factor{Weight: 0.3, Value: score.Saturate(float64(count), float64(a.conf.ConnectionSaturation))},
			score.Factor{Weight: 0.4, Value: consistency},
			score.Factor{Weight: 0.2, Value: intervalScore(avgInterval)},
			score.Factor{Weight: 0.1, Value: a.ports.Pick(key.port, 0.8, 0.3)},
		)
		if confidence <= a.conf.MinConfidence {
			continue
		}

		firstSeen := group[0].Timestamp
		lastSeen := group[count-1].Timestamp

		candidates = append(candidates, Candidate{
			SourceIP:              key.src,
			DestIP:                key.dst,
			DestPort:              key.port,
			ConnectionCount:       count,
			TotalBytes:            totalBytes,
			AvgBytesPerConnection: float64(totalBytes) / float64(count),
			Intervals:             diff,
			AvgInterval:           avgInterval,
			IntervalVariance:      variance,
			ConsistencyScore:      consistency,
			FirstSeen:             firstSeen,
			LastSeen:              lastSeen,
			DurationHours:         lastSeen.Sub(firstSeen).Hours(),
			Confidence:            confidence,
			Severity: score.Classify(confidence,
				score.Tier{Severity: score.Critical, Above: 0.8, Holds: count > 50},
				score.Tier{Severity: score.High, Above: 0.6, Holds: count > 25 || suspicious},
				score.Tier{Severity: score.Medium, Above: 0.4, Holds: true},
			),
		})
	}
	return candidates
}

// intervalScore favors check in periods between a minute and an hour
func intervalScore(avg float64) float64 {
	switch {
	case avg >= 60 && avg <= 3600:
		return 1.0
	case (avg >= 30 && avg < 60) || (avg > 3600 && avg <= 7200):
		return 0.7
	case avg < 30:
		return 0.3
	default:
		return 0.1
	}
}
