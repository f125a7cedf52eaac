package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/activecm/rita-flow/commands"
	"github.com/activecm/rita-flow/config"
	"github.com/urfave/cli"
)

// Entry point of rita-flow
func main() {
	app := cli.NewApp()
	app.Name = "rita-flow"
	app.Usage = "Look for beacons, long connections, exfiltration, scans and DNS tunnels in network flow records."

	// Change the version string with updates so that a quick help command will
	// let the testers know what version of rita-flow they're on
	app.Version = config.Version

	// Define commands used with this application
	app.Commands = commands.Commands()

	runtime.GOMAXPROCS(runtime.NumCPU())
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
