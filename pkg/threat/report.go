package threat

import (
	"io"

	jsoniter "github.com/json-iterator/go"
)

type (
	//Details carries diagnostics about how a report was produced
	Details struct {
		Beacons            int               `json:"beacons"`
		LongConnections    int               `json:"long_connections"`
		DataExfiltration   int               `json:"data_exfiltration"`
		PortScans          int               `json:"port_scans"`
		DNSTunneling       int               `json:"dns_tunneling"`
		TotalFlowsAnalyzed int               `json:"total_flows_analyzed"`
		TimePeriodMinutes  int               `json:"time_period_minutes"`
		RecordsReceived    int               `json:"records_received"`
		RecordsDropped     int               `json:"records_dropped"`
		TimestampFallbacks int               `json:"timestamp_fallbacks"`
		ProcessingInfo     string            `json:"processing_info"`
		DetectorErrors     map[string]string `json:"detector_errors"`
	}

	//Report is the result of one analysis batch
	Report struct {
		Success         bool     `json:"success"`
		Stats           Stats    `json:"stats"`
		Threats         []Threat `json:"threats"`
		AnalysisDetails Details  `json:"analysis_details"`
		Error           *string  `json:"error"`
	}
)

// Failed builds an unsuccessful report carrying a readable error
func Failed(err error, minutes int) Report {
	msg := err.Error()
	return Report{
		Success: false,
		Stats:   Stats{AnalysisTimeRange: TimeRange(minutes)},
		Threats: []Threat{},
		AnalysisDetails: Details{
			TimePeriodMinutes: minutes,
			DetectorErrors:    map[string]string{},
		},
		Error: &msg,
	}
}

// SetCounts copies the per detector counts from the aggregator
func (d *Details) SetCounts(a *Aggregator) {
	d.Beacons = a.Count(Beacon)
	d.LongConnections = a.Count(LongConnection)
	d.DataExfiltration = a.Count(DataExfiltration)
	d.PortScans = a.Count(PortScan)
	d.DNSTunneling = a.Count(DNSTunneling)
}

// Encode writes the report as JSON. Map keys are sorted so that equal
// reports encode to identical bytes.
func (r Report) Encode(w io.Writer, pretty bool) error {
	encoder := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
	if pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(r)
}

// DecodeReport reads a report written by Encode
func DecodeReport(r io.Reader) (Report, error) {
	var report Report
	err := jsoniter.ConfigCompatibleWithStandardLibrary.NewDecoder(r).Decode(&report)
	if report.Threats == nil {
		report.Threats = []Threat{}
	}
	return report, err
}
