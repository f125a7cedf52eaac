package threat

import (
	"fmt"
	"sort"

	"github.com/activecm/rita-flow/pkg/score"
	"github.com/activecm/rita-flow/util"
)

type (
	//Stats summarizes the threats in a report
	Stats struct {
		TotalThreats      int    `json:"total_threats"`
		CriticalThreats   int    `json:"critical_threats"`
		HighThreats       int    `json:"high_threats"`
		MediumThreats     int    `json:"medium_threats"`
		LowThreats        int    `json:"low_threats"`
		BeaconsDetected   int    `json:"beacons_detected"`
		LongConnections   int    `json:"long_connections"`
		DataExfiltration  int    `json:"data_exfiltration"`
		PortScans         int    `json:"port_scans"`
		DNSTunneling      int    `json:"dns_tunneling"`
		AnalysisTimeRange string `json:"analysis_time_range"`
	}

	//Aggregator merges the candidates of every detector into one ordered
	//threat list
	Aggregator struct {
		threats []Threat
		counts  map[Type]int
	}
)

// ScoreOf converts a confidence in [0,1] into an integer score
func ScoreOf(confidence float64) int64 {
	return util.Round(confidence * 100)
}

// TimeRange describes the analyzed window
func TimeRange(minutes int) string {
	return fmt.Sprintf("Last %d minutes", minutes)
}

// NewAggregator returns an empty Aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{counts: make(map[Type]int)}
}

// Add appends the findings of one detector. Calling Add in a fixed
// detector order keeps the final ordering deterministic.
func (a *Aggregator) Add(t Type, threats []Threat) {
	a.counts[t] += len(threats)
	a.threats = append(a.threats, threats...)
}

// Count returns how many findings a detector contributed
func (a *Aggregator) Count(t Type) int {
	return a.counts[t]
}

// Threats returns the merged findings ordered by score, highest first.
// Ties keep the order in which they were added. The result is never nil.
func (a *Aggregator) Threats() []Threat {
	sorted := make([]Threat, len(a.threats))
	copy(sorted, a.threats)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	return sorted
}

// Stats tallies the findings by severity and detection type
func (a *Aggregator) Stats(minutes int) Stats {
	stats := Stats{
		TotalThreats:      len(a.threats),
		BeaconsDetected:   a.counts[Beacon],
		LongConnections:   a.counts[LongConnection],
		DataExfiltration:  a.counts[DataExfiltration],
		PortScans:         a.counts[PortScan],
		DNSTunneling:      a.counts[DNSTunneling],
		AnalysisTimeRange: TimeRange(minutes),
	}
	for _, t := range a.threats {
		switch t.Severity {
		case score.Critical:
			stats.CriticalThreats++
		case score.High:
			stats.HighThreats++
		case score.Medium:
			stats.MediumThreats++
		case score.Low:
			stats.LowThreats++
		}
	}
	return stats
}
