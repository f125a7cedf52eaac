package config

import (
	"fmt"
	"io/ioutil"
	"net"
	"os"
	"os/user"
	"path"
	"reflect"

	"github.com/creasty/defaults"
)

// Version is filled at compile time with the git version of rita-flow
var Version = "v0.0.0+dev"

// ExactVersion is filled at compile time with the git version of rita-flow
var ExactVersion = "undefined"

type (
	//Config holds the configuration for the running system
	Config struct {
		R RunningCfg
		S StaticCfg
	}
)

// userConfigPath and systemConfigPath are tried in order when no config
// file is given on the command line
const userConfigPath = ".rita-flow/config.yaml"
const systemConfigPath = "/etc/rita-flow/config.yaml"

// LoadConfig initializes a Config struct with values read
// from a config file. The first existing file in the search order
// (cfgPath, the user's config, the system config) is used. If none
// exists, the defaults are returned.
func LoadConfig(cfgPath string) (*Config, error) {
	config := &Config{}

	if err := defaults.Set(&config.S); err != nil {
		return nil, err
	}

	cfgFile, err := findConfigFile(cfgPath)
	if err != nil {
		return nil, err
	}

	if cfgFile != "" {
		contents, err := ioutil.ReadFile(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
		}
		if err := parseStaticConfig(contents, &config.S); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", cfgFile, err)
		}
	}

	config.S.Version = Version
	config.S.ExactVersion = ExactVersion

	if err := initRunningConfig(&config.S, &config.R); err != nil {
		return nil, err
	}

	return config, nil
}

// Copy returns a deep copy of the config. Later changes to either copy,
// including the parsed subnets and port set, do not affect the other.
func (c *Config) Copy() *Config {
	dup := *c

	dup.S.Ports.CommonPorts = append([]int(nil), c.S.Ports.CommonPorts...)
	dup.S.Filtering.InternalSubnets = append([]string(nil), c.S.Filtering.InternalSubnets...)

	if c.R.Ports.Common != nil {
		dup.R.Ports.Common = make(map[int]struct{}, len(c.R.Ports.Common))
		for port := range c.R.Ports.Common {
			dup.R.Ports.Common[port] = struct{}{}
		}
	}

	dup.R.Filtering.InternalSubnets = nil
	for _, subnet := range c.R.Filtering.InternalSubnets {
		dup.R.Filtering.InternalSubnets = append(dup.R.Filtering.InternalSubnets, &net.IPNet{
			IP:   append(net.IP(nil), subnet.IP...),
			Mask: append(net.IPMask(nil), subnet.Mask...),
		})
	}

	dup.R.Version.Pre = append(dup.R.Version.Pre[:0:0], c.R.Version.Pre...)
	dup.R.Version.Build = append([]string(nil), c.R.Version.Build...)
	return &dup
}

// findConfigFile returns the config file to load. An explicitly requested
// file must exist; the fallback locations are optional.
func findConfigFile(cfgPath string) (string, error) {
	if cfgPath != "" {
		if _, err := os.Stat(cfgPath); err != nil {
			return "", err
		}
		return cfgPath, nil
	}

	if usr, err := user.Current(); err == nil {
		candidate := path.Join(usr.HomeDir, userConfigPath)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	if _, err := os.Stat(systemConfigPath); err == nil {
		return systemConfigPath, nil
	}

	return "", nil
}

// expandConfig expands environment variables in config strings
func expandConfig(reflected reflect.Value) {
	for i := 0; i < reflected.NumField(); i++ {
		f := reflected.Field(i)
		// process sub configs
		if f.Kind() == reflect.Struct {
			expandConfig(f)
		} else if f.Kind() == reflect.String {
			f.SetString(os.ExpandEnv(f.String()))
		} else if f.Kind() == reflect.Slice && f.Type().Elem().Kind() == reflect.String {
			strs := f.Interface().([]string)
			for i, str := range strs {
				strs[i] = os.ExpandEnv(str)
			}
			f.Set(reflect.ValueOf(strs))
		}
	}
}
