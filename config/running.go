package config

import (
	"fmt"
	"net"

	"github.com/activecm/rita-flow/util"
	"github.com/blang/semver"
)

type (
	//RunningCfg holds configuration options that are parsed at run time
	RunningCfg struct {
		Ports     PortsRunningCfg
		Filtering FilteringRunningCfg
		Version   semver.Version
	}

	//PortsRunningCfg holds the parsed set of common ports
	PortsRunningCfg struct {
		Common map[int]struct{}
	}

	//FilteringRunningCfg holds the parsed additional internal subnets
	FilteringRunningCfg struct {
		InternalSubnets []*net.IPNet
	}
)

// initRunningConfig uses data in the static config to initialize
// the passed in running config
func initRunningConfig(static *StaticCfg, running *RunningCfg) error {
	var err error

	ports := static.Ports.CommonPorts
	if len(ports) == 0 {
		ports = DefaultCommonPorts
	}
	running.Ports.Common = make(map[int]struct{}, len(ports))
	for _, port := range ports {
		if port < 0 || port > 65535 {
			return fmt.Errorf("common port %d is out of range", port)
		}
		running.Ports.Common[port] = struct{}{}
	}

	running.Filtering.InternalSubnets, err = util.ParseSubnets(static.Filtering.InternalSubnets)
	if err != nil {
		return fmt.Errorf("could not parse internal subnets: %w", err)
	}

	running.Version, err = semver.ParseTolerant(static.Version)
	return err
}
