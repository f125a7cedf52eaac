package dnstunnel

import (
	"time"

	"github.com/activecm/rita-flow/config"
	"github.com/activecm/rita-flow/pkg/flow"
	"github.com/activecm/rita-flow/pkg/score"
	"github.com/activecm/rita-flow/pkg/threat"
)

type (
	// source accumulates the DNS queries of one host
	source struct {
		queries       int
		bytes         int64
		resolverOrder []string
		resolvers     map[string]int
		firstSeen     time.Time
		lastSeen      time.Time
	}

	//Event describes a host issuing DNS queries at a tunneling rate
	Event struct {
		SourceIP         string
		Resolver         string
		Port             int
		QueryCount       int
		UniqueResolvers  int
		QueryRate        float64
		TimeSpanHours    float64
		TotalBytes       int64
		AvgBytesPerQuery float64
		FirstSeen        time.Time
		LastSeen         time.Time
		Confidence       float64
		Severity         score.Severity
	}

	//Analyzer finds hosts with excessive DNS query rates
	Analyzer struct {
		conf config.DNSTunnelingStaticCfg
	}
)

// NewAnalyzer creates a dns tunneling analyzer from a copy of the config
func NewAnalyzer(conf *config.Config) *Analyzer {
	return &Analyzer{conf: conf.S.DNSTunneling}
}

// Type returns the detection type reported by the analyzer
func (a *Analyzer) Type() threat.Type {
	return threat.DNSTunneling
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

// Analyze counts the DNS flows of every source and reports the sources
// whose hourly query rate is too high
func (a *Analyzer) Analyze(records []flow.Record) []Event {
	var order []string
	sources := make(map[string]*source)

	for _, record := range records {
		if record.DestPort != a.conf.Port {
			continue
		}
		src, dst := record.SourceIP(), record.DestIP()
		s, ok := sources[src]
		if !ok {
			s = &source{
				resolvers: make(map[string]int),
				firstSeen: record.Timestamp,
				lastSeen:  record.Timestamp,
			}
			sources[src] = s
			order = append(order, src)
		}
		s.queries++
		s.bytes += record.BytesSent
		if _, seen := s.resolvers[dst]; !seen {
			s.resolverOrder = append(s.resolverOrder, dst)
		}
		s.resolvers[dst]++
		if record.Timestamp.Before(s.firstSeen) {
			s.firstSeen = record.Timestamp
		}
		if record.Timestamp.After(s.lastSeen) {
			s.lastSeen = record.Timestamp
		}
	}

	var events []Event
	for _, src := range order {
		s := sources[src]
		if s.queries < a.conf.MinQueries || s.queries == 0 {
			continue
		}

		span := s.lastSeen.Sub(s.firstSeen).Hours()
		rate := score.Rate(float64(s.queries), span, 0.1)
		if rate <= a.conf.MinQueriesPerHour {
			continue
		}

		resolver := s.resolverOrder[0]
		for _, dst := range s.resolverOrder[1:] {
			if s.resolvers[dst] > s.resolvers[resolver] {
				resolver = dst
			}
		}

		confidence := score.Cap(rate/5000, 0.9)
		events = append(events, Event{
			SourceIP:         src,
			Resolver:         resolver,
			Port:             a.conf.Port,
			QueryCount:       s.queries,
			UniqueResolvers:  len(s.resolverOrder),
			QueryRate:        rate,
			TimeSpanHours:    span,
			TotalBytes:       s.bytes,
			AvgBytesPerQuery: float64(s.bytes) / float64(s.queries),
			FirstSeen:        s.firstSeen,
			LastSeen:         s.lastSeen,
			Confidence:       confidence,
			Severity: score.Classify(confidence,
				score.Tier{Severity: score.High, Above: 0.7, Holds: true},
				score.Otherwise(score.Medium),
			),
		})
	}
	return events
}

// ToThreat converts the event into the uniform report shape
func (e Event) ToThreat() threat.Threat {
	return threat.Threat{
		ID:               threat.NewID(threat.DNSTunneling, e.SourceIP),
		Type:             threat.DNSTunneling,
		Severity:         e.Severity,
		Score:            threat.ScoreOf(e.Confidence),
		SourceIP:         e.SourceIP,
		DestIP:           e.Resolver,
		DestPort:         e.Port,
		FirstSeen:        e.FirstSeen,
		LastSeen:         e.LastSeen,
		ConnectionCount:  e.QueryCount,
		BytesTransferred: e.TotalBytes,
		DurationHours:    e.TimeSpanHours,
		Confidence:       e.Confidence,
		Details: map[string]interface{}{
			"query_rate_per_hour": e.QueryRate,
			"avg_bytes_per_query": e.AvgBytesPerQuery,
			"unique_resolvers":    e.UniqueResolvers,
		},
	}
}
