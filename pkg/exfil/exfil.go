package exfil

import (
	"time"

	"github.com/activecm/rita-flow/config"
	"github.com/activecm/rita-flow/pkg/flow"
	"github.com/activecm/rita-flow/pkg/score"
	"github.com/activecm/rita-flow/pkg/threat"
)

type (
	// peer accumulates the outbound flows from one internal host to one
	// external host
	peer struct {
		bytes    int64
		flows    int
		topBytes int64
		topPort  int
	}

	// host accumulates the outbound traffic of one internal host
	host struct {
		peerOrder []string
		peers     map[string]*peer
		earliest  time.Time
		latest    time.Time
	}

	//Event describes an internal host sending far more data out than it
	//receives back
	Event struct {
		SourceIP          string
		DestIP            string
		DestPort          int
		TotalBytesOut     int64
		TotalBytesIn      int64
		ExfiltrationRatio float64
		ConnectionCount   int
		UniqueDestCount   int
		TimeWindow        float64
		BytesPerHour      float64
		FirstSeen         time.Time
		LastSeen          time.Time
		Confidence        float64
		Severity          score.Severity
	}

	//Analyzer finds internal hosts with lopsided outbound volume
	Analyzer struct {
		conf config.ExfiltrationStaticCfg
	}
)

// NewAnalyzer creates an exfiltration analyzer from a copy of the config
func NewAnalyzer(conf *config.Config) *Analyzer {
	return &Analyzer{conf: conf.S.Exfiltration}
}

// Type returns the detection type reported by the analyzer
func (a *Analyzer) Type() threat.Type {
	return threat.DataExfiltration
}

// Threats runs the analysis and converts the events into threats
func (a *Analyzer) Threats(records []flow.Record) []threat.Threat {
	events := a.Analyze(records)
	threats := make([]threat.Threat, 0, len(events))
	for _, e := range events {
		threats = append(threats, e.ToThreat())
	}
	return threats
}

// Analyze aggregates outbound volume per internal host and compares it to
// the volume its external peers sent back
func (a *Analyzer) Analyze(records []flow.Record) []Event {
	var order []string
	outbound := make(map[string]*host)
	// internal address -> external address -> bytes received
	inbound := make(map[string]map[string]int64)

	for _, record := range records {
		switch {
		case record.Outbound():
			src, dst := record.SourceIP(), record.DestIP()
			h, ok := outbound[src]
			if !ok {
				h = &host{peers: make(map[string]*peer), earliest: record.Timestamp, latest: record.Timestamp}
				outbound[src] = h
				order = append(order, src)
			}
			p, ok := h.peers[dst]
			if !ok {
				p = &peer{topBytes: -1}
				h.peers[dst] = p
				h.peerOrder = append(h.peerOrder, dst)
			}
			p.bytes += record.BytesSent
			p.flows++
			if record.BytesSent > p.topBytes {
				p.topBytes = record.BytesSent
				p.topPort = record.DestPort
			}
			if record.Timestamp.Before(h.earliest) {
				h.earliest = record.Timestamp
			}
			if record.Timestamp.After(h.latest) {
				h.latest = record.Timestamp
			}
		case record.Inbound():
			dst, src := record.DestIP(), record.SourceIP()
			if inbound[dst] == nil {
				inbound[dst] = make(map[string]int64)
			}
			inbound[dst][src] += record.BytesSent
		}
	}

	var events []Event
	for _, src := range order {
		h := outbound[src]

		var bytesOut, bytesIn int64
		var flows int
		var primary string
		for _, dst := range h.peerOrder {
			p := h.peers[dst]
			bytesOut += p.bytes
			bytesIn += inbound[src][dst]
			flows += p.flows
			if primary == "" || p.bytes > h.peers[primary].bytes {
				primary = dst
			}
		}

		if bytesOut < a.conf.MinBytes {
			continue
		}
		denominator := bytesIn
		if denominator < 1 {
			denominator = 1
		}
		ratio := float64(bytesOut) / float64(denominator)
		if ratio < a.conf.MinRatio {
			continue
		}

		window := h.latest.Sub(h.earliest).Seconds()
		bytesPerHour := score.Rate(float64(bytesOut), window/3600, 0.1)
		confidence := score.Combine(
			score.Factor{Weight: 0.3, Value: score.Saturate(float64(bytesOut), float64(score.GiB))},
			score.Factor{Weight: 0.3, Value: score.Saturate(ratio, 50)},
			score.Factor{Weight: 0.2, Value: score.Saturate(float64(len(h.peerOrder)), 10)},
			score.Factor{Weight: 0.2, Value: score.Saturate(bytesPerHour, float64(100*score.MiB))},
		)
		if confidence <= a.conf.MinConfidence {
			continue
		}

		events = append(events, Event{
			SourceIP:          src,
			DestIP:            primary,
			DestPort:          h.peers[primary].topPort,
			TotalBytesOut:     bytesOut,
			TotalBytesIn:      bytesIn,
			ExfiltrationRatio: ratio,
			ConnectionCount:   flows,
			UniqueDestCount:   len(h.peerOrder),
			TimeWindow:        window,
			BytesPerHour:      bytesPerHour,
			FirstSeen:         h.earliest,
			LastSeen:          h.latest,
			Confidence:        confidence,
			Severity: score.Classify(confidence,
				score.Tier{Severity: score.Critical, Above: 0.8, Holds: bytesOut > 5*score.GiB},
				score.Tier{Severity: score.High, Above: 0.6, Holds: bytesOut > score.GiB},
				score.Tier{Severity: score.Medium, Above: 0.4, Holds: true},
			),
		})
	}
	return events
}

// ToThreat converts the event into the uniform report shape
func (e Event) ToThreat() threat.Threat {
	return threat.Threat{
		ID:               threat.NewID(threat.DataExfiltration, e.SourceIP, e.DestIP),
		Type:             threat.DataExfiltration,
		Severity:         e.Severity,
		Score:            threat.ScoreOf(e.Confidence),
		SourceIP:         e.SourceIP,
		DestIP:           e.DestIP,
		DestPort:         e.DestPort,
		FirstSeen:        e.FirstSeen,
		LastSeen:         e.LastSeen,
		ConnectionCount:  e.ConnectionCount,
		BytesTransferred: e.TotalBytesOut,
		DurationHours:    e.TimeWindow / 3600,
		Confidence:       e.Confidence,
		Details: map[string]interface{}{
			"bytes_in":            e.TotalBytesIn,
			"exfiltration_ratio":  e.ExfiltrationRatio,
			"unique_destinations": e.UniqueDestCount,
			"bytes_per_hour":      e.BytesPerHour,
		},
	}
}
