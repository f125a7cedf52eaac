package scan

import (
	"sort"
	"time"

	"github.com/activecm/rita-flow/config"
	"github.com/activecm/rita-flow/pkg/flow"
	"github.com/activecm/rita-flow/pkg/score"
	"github.com/activecm/rita-flow/pkg/threat"
)

type (
	pair struct {
		src string
		dst string
	}

	// target accumulates the refused flows from one host to another
	target struct {
		ports     []int
		seen      map[int]struct{}
		attempts  int
		firstSeen time.Time
		lastSeen  time.Time
	}

	//Event describes a host probing many ports of another host
	Event struct {
		SourceIP        string
		DestIP          string
		Ports           []int
		SuspiciousPorts int
		SuspiciousRatio float64
		Attempts        int
		FirstSeen       time.Time
		LastSeen        time.Time
		Confidence      float64
		Severity        score.Severity
	}

	//Analyzer finds port scans among refused connections
	Analyzer struct {
		conf  config.PortScanStaticCfg
		ports score.PortPolicy
	}
)

// NewAnalyzer creates a port scan analyzer from a copy of the config
func NewAnalyzer(conf *config.Config) *Analyzer {
	return &Analyzer{
		conf:  conf.S.PortScan,
		ports: score.NewPortPolicy(conf.R.Ports.Common),
	}
}

// Type returns the detection type reported by the analyzer
func (a *Analyzer) Type() threat.Type {
	return threat.PortScan
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

// Analyze collects the distinct destination ports each source was refused
// on per destination and reports the pairs which touched enough ports
func (a *Analyzer) Analyze(records []flow.Record) []Event {
	var order []pair
	targets := make(map[pair]*target)

	for _, record := range records {
		if !record.Action.Blocked() {
			continue
		}
		key := pair{src: record.SourceIP(), dst: record.DestIP()}
		tgt, ok := targets[key]
		if !ok {
			tgt = &target{
				seen:      make(map[int]struct{}),
				firstSeen: record.Timestamp,
				lastSeen:  record.Timestamp,
			}
			targets[key] = tgt
			order = append(order, key)
		}
		tgt.attempts++
		if _, dup := tgt.seen[record.DestPort]; !dup {
			tgt.seen[record.DestPort] = struct{}{}
			tgt.ports = append(tgt.ports, record.DestPort)
		}
		if record.Timestamp.Before(tgt.firstSeen) {
			tgt.firstSeen = record.Timestamp
		}
		if record.Timestamp.After(tgt.lastSeen) {
			tgt.lastSeen = record.Timestamp
		}
	}

	var events []Event
	for _, key := range order {
		tgt := targets[key]
		if len(tgt.ports) < a.conf.MinPorts || len(tgt.ports) == 0 {
			continue
		}

		ports := make([]int, len(tgt.ports))
		copy(ports, tgt.ports)
		sort.Ints(ports)

		suspicious := a.ports.SuspiciousCount(ports)
		ratio := float64(suspicious) / float64(len(ports))
		confidence := score.Cap(float64(len(ports))/100+0.5*ratio, 0.9)

		events = append(events, Event{
			SourceIP:        key.src,
			DestIP:          key.dst,
			Ports:           ports,
			SuspiciousPorts: suspicious,
			SuspiciousRatio: ratio,
			Attempts:        tgt.attempts,
			FirstSeen:       tgt.firstSeen,
			LastSeen:        tgt.lastSeen,
			Confidence:      confidence,
			Severity: score.Classify(confidence,
				score.Tier{Severity: score.High, Above: 0.7, Holds: true},
				score.Tier{Severity: score.Medium, Above: 0.5, Holds: true},
			),
		})
	}
	return events
}

// ToThreat converts the event into the uniform report shape. A scan has
// no single destination port.
func (e Event) ToThreat() threat.Threat {
	return threat.Threat{
		ID:              threat.NewID(threat.PortScan, e.SourceIP, e.DestIP),
		Type:            threat.PortScan,
		Severity:        e.Severity,
		Score:           threat.ScoreOf(e.Confidence),
		SourceIP:        e.SourceIP,
		DestIP:          e.DestIP,
		DestPort:        0,
		FirstSeen:       e.FirstSeen,
		LastSeen:        e.LastSeen,
		ConnectionCount: len(e.Ports),
		DurationHours:   e.LastSeen.Sub(e.FirstSeen).Hours(),
		Confidence:      e.Confidence,
		Details: map[string]interface{}{
			"ports":            e.Ports,
			"suspicious_ports": e.SuspiciousPorts,
			"suspicious_ratio": e.SuspiciousRatio,
			"attempts":         e.Attempts,
		},
	}
}
