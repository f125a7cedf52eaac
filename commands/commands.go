package commands

import (
	"github.com/urfave/cli"
)

var (
	allCommands []cli.Command

	// below are some prebuilt flags that get used often in various commands

	configFlag = cli.StringFlag{
		Name:  "config, c",
		Usage: "Use a given `CONFIG_FILE` when running this command",
		Value: "",
	}

	humanFlag = cli.BoolFlag{
		Name:  "human-readable, H",
		Usage: "Print a report instead of csv",
	}

	limitFlag = cli.IntFlag{
		Name:  "limit, li",
		Usage: "Print up to the `LIMIT` highest scoring results",
		Value: 1000,
	}

	noLimitFlag = cli.BoolFlag{
		Name:  "no-limit, nl",
		Usage: "Print all results",
	}

	timePeriodFlag = cli.IntFlag{
		Name:  "time-period, t",
		Usage: "Analyze the last `MINUTES` minutes of flow records (default taken from the config file)",
		Value: 0,
	}

	outputFlag = cli.StringFlag{
		Name:  "output, o",
		Usage: "Write the JSON report to `REPORT_FILE` instead of standard out",
		Value: "",
	}

	verboseFlag = cli.BoolFlag{
		Name:  "verbose, v",
		Usage: "Show detector progress",
	}

	metricsFileFlag = cli.StringFlag{
		Name:  "metrics-file",
		Usage: "Write Prometheus metrics for the run to `FILE` in the text exposition format",
	}

	severityFlag = cli.StringFlag{
		Name:  "severity, s",
		Usage: "Only print threats at or above `SEVERITY` (low, medium, high, critical)",
		Value: "",
	}

	typeFlag = cli.StringFlag{
		Name:  "type",
		Usage: "Only print threats of `TYPE` (beacon, long_connection, data_exfiltration, port_scan, dns_tunneling)",
		Value: "",
	}
)

// bootstrapCommands simply adds a given command to the allCommands array
func bootstrapCommands(commands ...cli.Command) {
	allCommands = append(allCommands, commands...)
}

// Commands provides all of the defined commands to the front end
func Commands() []cli.Command {
	return allCommands
}
