package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/activecm/rita-flow/pkg/engine"
	"github.com/activecm/rita-flow/pkg/flow"
	"github.com/activecm/rita-flow/pkg/metrics"
	"github.com/activecm/rita-flow/pkg/threat"
	"github.com/activecm/rita-flow/resources"
	"github.com/urfave/cli"
	"github.com/vbauerster/mpb"
	"github.com/vbauerster/mpb/decor"
)

func init() {
	analyzeCommand := cli.Command{
		Name:      "analyze",
		Usage:     "Analyze a file of flow records and report the threats found",
		ArgsUsage: "<records file>",
		UsageText: "rita-flow analyze [command-options] <records file>\n\n" +
			"The records file holds a JSON array, a saved query result with a \"results\" array,\n" +
			"or one JSON object per line (.jsonl, .ndjson, .log). Gzipped files are accepted.",
		Flags: []cli.Flag{
			configFlag,
			timePeriodFlag,
			outputFlag,
			humanFlag,
			verboseFlag,
			metricsFileFlag,
		},
		Action: func(c *cli.Context) error {
			recordsFile := c.Args().Get(0)
			if recordsFile == "" {
				return cli.NewExitError("Specify a flow records file", -1)
			}

			res := resources.InitResources(c.String("config"))

			minutes := c.Int("time-period")
			if minutes == 0 {
				minutes = res.Config.S.Engine.DefaultTimePeriod
			}
			if minutes < 0 {
				return cli.NewExitError("The time period must not be negative", -1)
			}

			collector := metrics.NewCollector()
			report := analyze(res, recordsFile, minutes, c.Bool("verbose"), collector)

			if metricsFile := c.String("metrics-file"); metricsFile != "" {
				if err := metrics.WriteTextfile(metricsFile, collector); err != nil {
					res.Log.WithField("path", metricsFile).Error(err)
				}
			}

			err := writeReport(report, c.String("output"), !c.Bool("human-readable") || c.String("output") != "")
			if err != nil {
				return cli.NewExitError(err.Error(), -1)
			}

			if c.Bool("human-readable") {
				showReportSummary(os.Stdout, report)
				if len(report.Threats) > 0 {
					err = showThreatsHuman(os.Stdout, report.Threats)
					if err != nil {
						return cli.NewExitError(err.Error(), -1)
					}
				}
			}

			if !report.Success {
				return cli.NewExitError(*report.Error, -1)
			}
			return nil
		},
	}

	bootstrapCommands(analyzeCommand)
}

// analyze loads at most one batch worth of records and runs the engine
// over them. The collector, if given, observes every detector run and
// the final report.
func analyze(res *resources.Resources, recordsFile string, minutes int, verbose bool, collector *metrics.Collector) threat.Report {
	report := runAnalysis(res, recordsFile, minutes, verbose, collector)
	if collector != nil {
		collector.ObserveReport(report)
	}
	return report
}

func runAnalysis(res *resources.Resources, recordsFile string, minutes int, verbose bool, collector *metrics.Collector) threat.Report {
	limit := res.Config.S.Engine.RecordLimit(minutes)

	raw, err := flow.ReadRecords(recordsFile, limit, res.Log)
	if err != nil {
		res.Log.WithField("path", recordsFile).Error(err)
		return engine.Unavailable(fmt.Errorf("could not read flow records: %w", err), minutes)
	}

	var bar *mpb.Bar
	eng := engine.New(res.Config, res.Log, engine.WithProgress(func(detector threat.Type, elapsed time.Duration) {
		if collector != nil {
			collector.ObserveDetector(detector, elapsed)
		}
		if bar != nil {
			bar.IncrBy(1, elapsed)
		}
	}))

	// the bar only completes if every detector runs
	if !verbose || len(raw) == 0 || len(eng.Detectors()) == 0 {
		return eng.Analyze(raw, minutes)
	}

	fmt.Fprintf(os.Stderr, "\t[+] Analyzing %d flow records from the last %d minutes\n", len(raw), minutes)

	// progress bar for troubleshooting
	p := mpb.New(mpb.WithWidth(20), mpb.WithOutput(os.Stderr))
	bar = p.AddBar(int64(len(eng.Detectors())),
		mpb.PrependDecorators(
			decor.Name("\t[-] Running Detectors:", decor.WC{W: 30, C: decor.DidentRight}),
			decor.CountersNoUnit(" %d / %d ", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(decor.Percentage()),
	)

	report := eng.Analyze(raw, minutes)
	p.Wait()
	return report
}

// writeReport writes the JSON report to path, or to standard out when
// path is empty and toStdout is set
func writeReport(report threat.Report, path string, toStdout bool) error {
	var out io.Writer
	if path != "" {
		fileHandle, err := os.Create(path)
		if err != nil {
			return err
		}
		defer fileHandle.Close()
		out = fileHandle
	} else if toStdout {
		out = os.Stdout
	} else {
		return nil
	}
	return report.Encode(out, true)
}
