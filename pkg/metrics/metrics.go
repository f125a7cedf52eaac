package metrics

import (
	"sync"
	"time"

	"github.com/activecm/rita-flow/pkg/score"
	"github.com/activecm/rita-flow/pkg/threat"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector exposes the outcome of the most recent analysis batch as
// Prometheus gauges
type Collector struct {
	mu        sync.Mutex
	durations map[threat.Type]time.Duration
	report    *threat.Report

	successDesc         *prometheus.Desc
	threatsDesc         *prometheus.Desc
	flowsDesc           *prometheus.Desc
	droppedDesc         *prometheus.Desc
	fallbacksDesc       *prometheus.Desc
	detectorSecondsDesc *prometheus.Desc
	detectorFailedDesc  *prometheus.Desc
}

// NewCollector creates an empty Collector
func NewCollector() *Collector {
	return &Collector{
		durations:           make(map[threat.Type]time.Duration),
		successDesc:         prometheus.NewDesc("ritaflow_analysis_success", "Whether the last analysis batch succeeded", nil, nil),
		threatsDesc:         prometheus.NewDesc("ritaflow_threats", "Threats found in the last analysis batch", []string{"type", "severity"}, nil),
		flowsDesc:           prometheus.NewDesc("ritaflow_flows_analyzed", "Flow records analyzed in the last batch", nil, nil),
		droppedDesc:         prometheus.NewDesc("ritaflow_records_dropped", "Malformed flow records dropped in the last batch", nil, nil),
		fallbacksDesc:       prometheus.NewDesc("ritaflow_timestamp_fallbacks", "Flow records whose timestamp could not be parsed", nil, nil),
		detectorSecondsDesc: prometheus.NewDesc("ritaflow_detector_duration_seconds", "Time spent in each detector", []string{"detector"}, nil),
		detectorFailedDesc:  prometheus.NewDesc("ritaflow_detector_failed", "Whether a detector failed in the last batch", []string{"detector"}, nil),
	}
}

// ObserveDetector records how long a detector ran. It is safe to call
// from several goroutines.
func (c *Collector) ObserveDetector(t threat.Type, elapsed time.Duration) {
	c.mu.Lock()
	c.durations[t] = elapsed
	c.mu.Unlock()
}

// ObserveReport stores the report of the batch
func (c *Collector) ObserveReport(report threat.Report) {
	c.mu.Lock()
	c.report = &report
	c.mu.Unlock()
}

// Describe implements prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.successDesc
	ch <- c.threatsDesc
	ch <- c.flowsDesc
	ch <- c.droppedDesc
	ch <- c.fallbacksDesc
	ch <- c.detectorSecondsDesc
	ch <- c.detectorFailedDesc
}

// Collect implements prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for t, elapsed := range c.durations {
		ch <- prometheus.MustNewConstMetric(c.detectorSecondsDesc, prometheus.GaugeValue, elapsed.Seconds(), string(t))
	}

	if c.report == nil {
		return
	}
	report := c.report

	ch <- prometheus.MustNewConstMetric(c.successDesc, prometheus.GaugeValue, boolValue(report.Success))
	ch <- prometheus.MustNewConstMetric(c.flowsDesc, prometheus.GaugeValue, float64(report.AnalysisDetails.TotalFlowsAnalyzed))
	ch <- prometheus.MustNewConstMetric(c.droppedDesc, prometheus.GaugeValue, float64(report.AnalysisDetails.RecordsDropped))
	ch <- prometheus.MustNewConstMetric(c.fallbacksDesc, prometheus.GaugeValue, float64(report.AnalysisDetails.TimestampFallbacks))

	counts := make(map[threat.Type]map[score.Severity]int)
	for _, t := range report.Threats {
		if counts[t.Type] == nil {
			counts[t.Type] = make(map[score.Severity]int)
		}
		counts[t.Type][t.Severity]++
	}
	for _, t := range threat.Types {
		for _, s := range score.Severities {
			ch <- prometheus.MustNewConstMetric(c.threatsDesc, prometheus.GaugeValue, float64(counts[t][s]), string(t), string(s))
		}
		_, failed := report.AnalysisDetails.DetectorErrors[string(t)]
		ch <- prometheus.MustNewConstMetric(c.detectorFailedDesc, prometheus.GaugeValue, boolValue(failed), string(t))
	}
}

// WriteTextfile writes the collected metrics in the text exposition
// format, for pickup by a textfile collector
func WriteTextfile(path string, c *Collector) error {
	registry := prometheus.NewRegistry()
	if err := registry.Register(c); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, registry)
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
