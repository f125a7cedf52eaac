package commands

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/activecm/rita-flow/pkg/score"
	"github.com/activecm/rita-flow/pkg/threat"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

func init() {
	command := cli.Command{

		Name:      "show-threats",
		Usage:     "Print the threats stored in a saved report",
		ArgsUsage: "<report file>",
		Flags: []cli.Flag{
			humanFlag,
			severityFlag,
			typeFlag,
			limitFlag,
			noLimitFlag,
		},
		Action: func(c *cli.Context) error {
			reportFile := c.Args().Get(0)
			if reportFile == "" {
				return cli.NewExitError("Specify a report file", -1)
			}

			filter, err := newThreatFilter(c.String("severity"), c.String("type"), c.Int("limit"), c.Bool("no-limit"))
			if err != nil {
				return cli.NewExitError(err.Error(), -1)
			}

			report, err := loadReport(reportFile)
			if err != nil {
				return cli.NewExitError(err.Error(), -1)
			}
			if !report.Success && report.Error != nil {
				return cli.NewExitError("The analysis failed: "+*report.Error, -1)
			}

			data := filter.apply(report.Threats)
			if !(len(data) > 0) {
				return cli.NewExitError("No results were found in "+reportFile, -1)
			}

			if c.Bool("human-readable") {
				err := showThreatsHuman(os.Stdout, data)
				if err != nil {
					return cli.NewExitError(err.Error(), -1)
				}
				return nil
			}
			err = showThreats(os.Stdout, data)
			if err != nil {
				return cli.NewExitError(err.Error(), -1)
			}
			return nil
		},
	}
	bootstrapCommands(command)
}

// threatFilter selects the threats to print
type threatFilter struct {
	minSeverity score.Severity
	kind        threat.Type
	limit       int
	noLimit     bool
}

func newThreatFilter(severity, kind string, limit int, noLimit bool) (threatFilter, error) {
	filter := threatFilter{limit: limit, noLimit: noLimit}
	if severity != "" {
		s, ok := score.ParseSeverity(severity)
		if !ok {
			return filter, fmt.Errorf("unknown severity %q", severity)
		}
		filter.minSeverity = s
	}
	if kind != "" {
		t, ok := threat.ParseType(kind)
		if !ok {
			return filter, fmt.Errorf("unknown threat type %q", kind)
		}
		filter.kind = t
	}
	return filter, nil
}

// apply keeps the report's score ordering
func (tf threatFilter) apply(threats []threat.Threat) []threat.Threat {
	var out []threat.Threat
	for _, t := range threats {
		if tf.minSeverity != "" && t.Severity.Rank() < tf.minSeverity.Rank() {
			continue
		}
		if tf.kind != "" && t.Type != tf.kind {
			continue
		}
		if !tf.noLimit && tf.limit > 0 && len(out) >= tf.limit {
			break
		}
		out = append(out, t)
	}
	return out
}

func loadReport(path string) (threat.Report, error) {
	fileHandle, err := os.Open(path)
	if err != nil {
		return threat.Report{}, err
	}
	defer fileHandle.Close()
	return threat.DecodeReport(fileHandle)
}

var threatHeader = []string{"Score", "Severity", "Type", "Source IP", "Destination IP",
	"Port", "Connections", "Bytes", "Hours", "First Seen", "Last Seen"}

func threatRow(t threat.Threat) []string {
	return []string{
		i(t.Score),
		string(t.Severity),
		string(t.Type),
		t.SourceIP,
		t.DestIP,
		strconv.Itoa(t.DestPort),
		strconv.Itoa(t.ConnectionCount),
		i(t.BytesTransferred),
		f(t.DurationHours),
		ts(t.FirstSeen),
		ts(t.LastSeen),
	}
}

func showThreats(w io.Writer, threats []threat.Threat) error {
	csvWriter := csv.NewWriter(w)
	csvWriter.Write(threatHeader)
	for _, t := range threats {
		csvWriter.Write(threatRow(t))
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

func showThreatsHuman(w io.Writer, threats []threat.Threat) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader(threatHeader)
	for _, t := range threats {
		table.Append(threatRow(t))
	}
	table.Render()
	return nil
}

// showReportSummary prints the report's statistics as a table
func showReportSummary(w io.Writer, report threat.Report) {
	if !report.Success {
		msg := "unknown error"
		if report.Error != nil {
			msg = *report.Error
		}
		fmt.Fprintf(w, "Analysis failed: %s\n", msg)
		return
	}

	stats := report.Stats
	fmt.Fprintf(w, "%s, %d flows analyzed\n", stats.AnalysisTimeRange, report.AnalysisDetails.TotalFlowsAnalyzed)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Critical", "High", "Medium", "Low", "Beacons", "Long Conns",
		"Exfiltration", "Port Scans", "DNS Tunneling", "Total"})
	table.Append([]string{
		strconv.Itoa(stats.CriticalThreats),
		strconv.Itoa(stats.HighThreats),
		strconv.Itoa(stats.MediumThreats),
		strconv.Itoa(stats.LowThreats),
		strconv.Itoa(stats.BeaconsDetected),
		strconv.Itoa(stats.LongConnections),
		strconv.Itoa(stats.DataExfiltration),
		strconv.Itoa(stats.PortScans),
		strconv.Itoa(stats.DNSTunneling),
		strconv.Itoa(stats.TotalThreats),
	})
	table.Render()

	for _, detector := range threat.Types {
		if msg, ok := report.AnalysisDetails.DetectorErrors[string(detector)]; ok {
			fmt.Fprintf(w, "Warning: %s detector produced no results: %s\n", detector, msg)
		}
	}
}
