package config

import (
	"github.com/creasty/defaults"
)

const testConfig = `
LogConfig:
    LogLevel: 3
    LogToFile: false
Engine:
    Workers: 5
Ports:
    CommonPorts: [80, 443, 53, 22, 21, 25, 110, 143, 993, 995]
Filtering:
    InternalSubnets: []
Beacon:
    Enabled: true
    MinConnections: 10
LongConnection:
    Enabled: true
Exfiltration:
    Enabled: true
PortScan:
    Enabled: true
DNSTunneling:
    Enabled: true
`

// LoadTestingConfig loads the hard coded testing config
func LoadTestingConfig() (*Config, error) {
	config := &Config{}

	// Initialize static config to the default values
	if err := defaults.Set(&config.S); err != nil {
		return nil, err
	}

	// Deserialize the yaml file contents into the static config
	if err := parseStaticConfig([]byte(testConfig), &config.S); err != nil {
		return nil, err
	}

	config.S.Version = "v0.0.0+testing"
	config.S.ExactVersion = "v0.0.0+testing"

	// Use the static config to initialize the running config
	if err := initRunningConfig(&config.S, &config.R); err != nil {
		return nil, err
	}

	return config, nil
}
