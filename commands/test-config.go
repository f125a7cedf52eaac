package commands

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/activecm/rita-flow/config"

	"github.com/urfave/cli"
	yaml "gopkg.in/yaml.v2"
)

func init() {
	command := cli.Command{
		Flags: []cli.Flag{
			configFlag,
		},
		Name:   "test-config",
		Usage:  "Check the configuration file for validity",
		Action: testConfiguration,
	}

	bootstrapCommands(command)
}

// testConfiguration prints out the result of parsing the config file
func testConfiguration(c *cli.Context) error {
	conf, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("Failed to config: %s", err.Error()), -1)
	}

	err = printConfig(os.Stdout, conf)
	if err != nil {
		return cli.NewExitError(err.Error(), -1)
	}
	return nil
}

// printConfig writes the static config as it was parsed, followed by the
// values derived from it
func printConfig(w io.Writer, conf *config.Config) error {
	staticConfig, err := yaml.Marshal(conf.S)
	if err != nil {
		return err
	}

	ports := make([]int, 0, len(conf.R.Ports.Common))
	for port := range conf.R.Ports.Common {
		ports = append(ports, port)
	}
	sort.Ints(ports)

	subnets := make([]string, 0, len(conf.R.Filtering.InternalSubnets))
	for _, subnet := range conf.R.Filtering.InternalSubnets {
		subnets = append(subnets, subnet.String())
	}

	runningConfig, err := yaml.Marshal(map[string]interface{}{
		"CommonPorts":     ports,
		"InternalSubnets": subnets,
		"Version":         conf.R.Version.String(),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%s\n", string(staticConfig))
	fmt.Fprintf(w, "\n%s\n", string(runningConfig))
	return nil
}
