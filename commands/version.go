package commands

import (
	"fmt"

	"github.com/activecm/rita-flow/config"
	"github.com/blang/semver"
	"github.com/urfave/cli"
)

func init() {
	command := cli.Command{
		Name:   "version",
		Usage:  "Show rita-flow version",
		Action: showVersion,
	}

	bootstrapCommands(command)
}

func showVersion(c *cli.Context) error {
	fmt.Println(versionString(config.Version, config.ExactVersion))
	return nil
}

// versionString renders the release version, noting pre-release builds
func versionString(version, exact string) string {
	v, err := semver.ParseTolerant(version)
	if err != nil {
		return fmt.Sprintf("%s (unparsable version)", version)
	}
	out := fmt.Sprintf("%s v%s", "rita-flow", v.String())
	if len(v.Pre) > 0 || len(v.Build) > 0 {
		out += " (development build)"
	}
	if exact != "" && exact != "undefined" && exact != version {
		out += fmt.Sprintf("\nexact version %s", exact)
	}
	return out
}
