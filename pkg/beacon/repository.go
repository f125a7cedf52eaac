package beacon

import (
	"time"

	"github.com/activecm/rita-flow/pkg/score"
	"github.com/activecm/rita-flow/pkg/threat"
)

type (
	//tuple identifies a beacon group
	tuple struct {
		src  string
		dst  string
		port int
	}

	//Candidate describes a periodic connection pattern between a pair of hosts
	Candidate struct {
		SourceIP              string
		DestIP                string
		DestPort              int
		ConnectionCount       int
		TotalBytes            int64
		AvgBytesPerConnection float64
		Intervals             []float64
		AvgInterval           float64
		IntervalVariance      float64
		ConsistencyScore      float64
		FirstSeen             time.Time
		LastSeen              time.Time
		DurationHours         float64
		Confidence            float64
		Severity              score.Severity
	}
)

// ToThreat converts the candidate into the uniform report shape
func (c Candidate) ToThreat() threat.Threat {
	return threat.Threat{
		ID:               threat.NewID(threat.Beacon, c.SourceIP, c.DestIP, c.DestPort),
		Type:             threat.Beacon,
		Severity:         c.Severity,
		Score:            threat.ScoreOf(c.Confidence),
		SourceIP:         c.SourceIP,
		DestIP:           c.DestIP,
		DestPort:         c.DestPort,
		FirstSeen:        c.FirstSeen,
		LastSeen:         c.LastSeen,
		ConnectionCount:  c.ConnectionCount,
		BytesTransferred: c.TotalBytes,
		DurationHours:    c.DurationHours,
		Confidence:       c.Confidence,
		Details: map[string]interface{}{
			"avg_interval_seconds":     c.AvgInterval,
			"interval_variance":        c.IntervalVariance,
			"consistency_score":        c.ConsistencyScore,
			"avg_bytes_per_connection": c.AvgBytesPerConnection,
		},
	}
}
