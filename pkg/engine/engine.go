package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/activecm/rita-flow/config"
	"github.com/activecm/rita-flow/pkg/beacon"
	"github.com/activecm/rita-flow/pkg/dnstunnel"
	"github.com/activecm/rita-flow/pkg/exfil"
	"github.com/activecm/rita-flow/pkg/flow"
	"github.com/activecm/rita-flow/pkg/longconn"
	"github.com/activecm/rita-flow/pkg/scan"
	"github.com/activecm/rita-flow/pkg/threat"
	"github.com/activecm/rita-flow/util"

	log "github.com/sirupsen/logrus"
)

// ErrNoRecords is reported when a batch holds no raw flow records
var ErrNoRecords = errors.New("no flow records available")

type (
	//Detector is one independent analysis over the normalized flows.
	//Implementations must not modify the records.
	Detector interface {
		Type() threat.Type
		Threats(records []flow.Record) []threat.Threat
	}

	//Engine drives normalization, the detectors and aggregation for one
	//batch at a time. It holds no state between batches.
	Engine struct {
		conf      config.Config
		log       *log.Logger
		detectors []Detector
		workers   int
		now       func() time.Time
		progress  func(threat.Type, time.Duration)
	}

	//Option customizes an Engine
	Option func(*Engine)
)

// WithDetectors replaces the configured detectors. Results are merged in
// the order given.
func WithDetectors(detectors ...Detector) Option {
	return func(e *Engine) {
		e.detectors = detectors
	}
}

// WithProgress registers a callback invoked as each detector finishes.
// The callback may be called from several goroutines.
func WithProgress(progress func(threat.Type, time.Duration)) Option {
	return func(e *Engine) {
		e.progress = progress
	}
}

// WithClock sets the instant substituted for unparsable timestamps
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates an Engine from a copy of the config. The enabled detectors
// run in the order beacon, long connection, exfiltration, port scan,
// dns tunneling.
func New(conf *config.Config, logger *log.Logger, opts ...Option) *Engine {
	e := &Engine{
		conf:     *conf.Copy(),
		log:      logger,
		workers:  conf.S.Engine.Workers,
		now:      time.Now,
		progress: func(threat.Type, time.Duration) {},
	}

	if e.conf.S.Beacon.Enabled {
		e.detectors = append(e.detectors, beacon.NewAnalyzer(&e.conf))
	}
	if e.conf.S.LongConnection.Enabled {
		e.detectors = append(e.detectors, longconn.NewAnalyzer(&e.conf))
	}
	if e.conf.S.Exfiltration.Enabled {
		e.detectors = append(e.detectors, exfil.NewAnalyzer(&e.conf))
	}
	if e.conf.S.PortScan.Enabled {
		e.detectors = append(e.detectors, scan.NewAnalyzer(&e.conf))
	}
	if e.conf.S.DNSTunneling.Enabled {
		e.detectors = append(e.detectors, dnstunnel.NewAnalyzer(&e.conf))
	}

	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Detectors returns the detection types the engine runs, in merge order
func (e *Engine) Detectors() []threat.Type {
	types := make([]threat.Type, 0, len(e.detectors))
	for _, d := range e.detectors {
		types = append(types, d.Type())
	}
	return types
}

// Unavailable builds the report for a batch whose records could not be
// obtained
func Unavailable(err error, windowMinutes int) threat.Report {
	return threat.Failed(err, windowMinutes)
}

// Analyze runs one batch over the raw records covering the last
// windowMinutes minutes. Malformed records and failing detectors never
// abort the batch. A negative window is a programming error and panics.
func (e *Engine) Analyze(raw []flow.RawRecord, windowMinutes int) threat.Report {
	if windowMinutes < 0 {
		panic(fmt.Sprintf("engine: negative time window of %d minutes", windowMinutes))
	}
	if len(raw) == 0 {
		e.log.WithField("time_period_minutes", windowMinutes).Warn("No flow records to analyze")
		return Unavailable(ErrNoRecords, windowMinutes)
	}

	normalizer := flow.NewNormalizer(e.log, e.conf.R.Filtering.InternalSubnets).WithClock(e.now)
	records, stats := normalizer.Normalize(raw)

	results := e.detect(records)

	aggregator := threat.NewAggregator()
	details := threat.Details{
		TotalFlowsAnalyzed: len(records),
		TimePeriodMinutes:  windowMinutes,
		RecordsReceived:    stats.Received,
		RecordsDropped:     stats.Dropped,
		TimestampFallbacks: stats.TimestampFallbacks,
		ProcessingInfo:     fmt.Sprintf("Processing %d flow records", stats.Received),
		DetectorErrors:     make(map[string]string),
	}
	for i, d := range e.detectors {
		if results[i].err != nil {
			details.DetectorErrors[string(d.Type())] = results[i].err.Error()
		}
		aggregator.Add(d.Type(), results[i].threats)
	}
	details.SetCounts(aggregator)

	report := threat.Report{
		Success:         true,
		Stats:           aggregator.Stats(windowMinutes),
		Threats:         aggregator.Threats(),
		AnalysisDetails: details,
	}

	e.log.WithFields(log.Fields{
		"flows":           len(records),
		"threats":         report.Stats.TotalThreats,
		"critical":        report.Stats.CriticalThreats,
		"high":            report.Stats.HighThreats,
		"detector_errors": len(details.DetectorErrors),
	}).Info("Flow analysis complete")

	return report
}

// detect fans the detectors out over at most Workers goroutines and
// returns their outcomes in detector order
func (e *Engine) detect(records []flow.Record) []outcome {
	workers := util.Max(1, util.Min(e.workers, len(e.detectors)))

	r := newRunner(records, len(e.detectors), e.log, e.progress, func() {})
	for i := 0; i < workers; i++ {
		r.start()
	}
	for i, d := range e.detectors {
		r.collect(job{slot: i, detector: d})
	}
	r.close()

	return r.results
}
