package longconn

import (
	"time"

	"github.com/activecm/rita-flow/config"
	"github.com/activecm/rita-flow/pkg/flow"
	"github.com/activecm/rita-flow/pkg/score"
	"github.com/activecm/rita-flow/pkg/threat"
)

type (
	tuple struct {
		src  string
		dst  string
		port int
	}

	// group accumulates the flows of one tuple
	group struct {
		flows         int
		totalDuration float64
		totalBytes    int64
		totalPackets  int64
		start         time.Time
		end           time.Time
	}

	//Connection describes a tuple whose flows were open for a long time
	Connection struct {
		SourceIP          string
		DestIP            string
		DestPort          int
		FlowCount         int
		TotalDuration     float64
		TotalBytes        int64
		TotalPackets      int64
		StartTime         time.Time
		EndTime           time.Time
		AvgBytesPerSecond float64
		Confidence        float64
		Severity          score.Severity
	}

	//Analyzer finds connections which stay open abnormally long
	Analyzer struct {
		conf  config.LongConnectionStaticCfg
		ports score.PortPolicy
	}
)

// NewAnalyzer creates a long connection analyzer from a copy of the config
func NewAnalyzer(conf *config.Config) *Analyzer {
	return &Analyzer{
		conf:  conf.S.LongConnection,
		ports: score.NewPortPolicy(conf.R.Ports.Common),
	}
}

// Type returns the detection type reported by the analyzer
func (a *Analyzer) Type() threat.Type {
	return threat.LongConnection
}

// Threats runs the analysis and converts the connections into threats
func (a *Analyzer) Threats(records []flow.Record) []threat.Threat {
	conns := a.Analyze(records)
	threats := make([]threat.Threat, 0, len(conns))
	for _, c := range conns {
		threats = append(threats, c.ToThreat())
	}
	return threats
}

// Analyze sums the durations of flows sharing a tuple and reports the
// tuples which add up to a long enough connection. Flows without a
// known duration are ignored.
func (a *Analyzer) Analyze(records []flow.Record) []Connection {
	var order []tuple
	groups := make(map[tuple]*group)

	for _, record := range records {
		if record.Duration <= 0 {
			continue
		}
		key := tuple{src: record.SourceIP(), dst: record.DestIP(), port: record.DestPort}
		g, ok := groups[key]
		if !ok {
			g = &group{start: record.Timestamp, end: record.Timestamp}
			groups[key] = g
			order = append(order, key)
		}
		g.flows++
		g.totalDuration += record.Duration
		g.totalBytes += record.BytesSent
		g.totalPackets += record.PacketsSent
		if record.Timestamp.Before(g.start) {
			g.start = record.Timestamp
		}
		if record.Timestamp.After(g.end) {
			g.end = record.Timestamp
		}
	}

	var conns []Connection
	for _, key := range order {
		g := groups[key]
		if g.totalDuration < a.conf.MinDurationSeconds {
			continue
		}

		hours := g.totalDuration / 3600
		confidence := score.Combine(
			score.Factor{Weight: 0.5, Value: score.Saturate(hours, 24)},
			score.Factor{Weight: 0.3, Value: score.Saturate(float64(g.totalBytes), float64(score.GiB))},
			score.Factor{Weight: 0.2, Value: a.ports.Pick(key.port, 0.8, 0.4)},
		)
		if confidence <= a.conf.MinConfidence {
			continue
		}

		conns = append(conns, Connection{
			SourceIP:          key.src,
			DestIP:            key.dst,
			DestPort:          key.port,
			FlowCount:         g.flows,
			TotalDuration:     g.totalDuration,
			TotalBytes:        g.totalBytes,
			TotalPackets:      g.totalPackets,
			StartTime:         g.start,
			EndTime:           g.end,
			AvgBytesPerSecond: float64(g.totalBytes) / g.totalDuration,
			Confidence:        confidence,
			Severity: score.Classify(confidence,
				score.Tier{Severity: score.Critical, Above: 0.8, Holds: hours > 12},
				score.Tier{Severity: score.High, Above: 0.6, Holds: hours > 6},
				score.Tier{Severity: score.Medium, Above: 0.4, Holds: true},
			),
		})
	}
	return conns
}

// ToThreat converts the connection into the uniform report shape
func (c Connection) ToThreat() threat.Threat {
	return threat.Threat{
		ID:               threat.NewID(threat.LongConnection, c.SourceIP, c.DestIP, c.DestPort),
		Type:             threat.LongConnection,
		Severity:         c.Severity,
		Score:            threat.ScoreOf(c.Confidence),
		SourceIP:         c.SourceIP,
		DestIP:           c.DestIP,
		DestPort:         c.DestPort,
		FirstSeen:        c.StartTime,
		LastSeen:         c.EndTime,
		ConnectionCount:  c.FlowCount,
		BytesTransferred: c.TotalBytes,
		DurationHours:    c.TotalDuration / 3600,
		Confidence:       c.Confidence,
		Details: map[string]interface{}{
			"total_duration_seconds": c.TotalDuration,
			"total_packets":          c.TotalPackets,
			"avg_bytes_per_second":   c.AvgBytesPerSecond,
		},
	}
}
