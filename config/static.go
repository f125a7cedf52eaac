package config

import (
	"reflect"

	yaml "gopkg.in/yaml.v2"
)

type (
	//StaticCfg is the container for other static config sections
	StaticCfg struct {
		Log            LogStaticCfg            `yaml:"LogConfig"`
		Engine         EngineStaticCfg         `yaml:"Engine"`
		Ports          PortsStaticCfg          `yaml:"Ports"`
		Filtering      FilteringStaticCfg      `yaml:"Filtering"`
		Beacon         BeaconStaticCfg         `yaml:"Beacon"`
		LongConnection LongConnectionStaticCfg `yaml:"LongConnection"`
		Exfiltration   ExfiltrationStaticCfg   `yaml:"Exfiltration"`
		PortScan       PortScanStaticCfg       `yaml:"PortScan"`
		DNSTunneling   DNSTunnelingStaticCfg   `yaml:"DNSTunneling"`
		Version        string                  `yaml:"-"`
		ExactVersion   string                  `yaml:"-"`
	}

	//LogStaticCfg contains the configuration for logging
	LogStaticCfg struct {
		LogLevel  int    `yaml:"LogLevel" default:"2"`
		LogPath   string `yaml:"LogPath" default:"/var/lib/rita-flow/logs"`
		LogToFile bool   `yaml:"LogToFile" default:"false"`
	}

	//EngineStaticCfg controls how a batch is sized and executed
	EngineStaticCfg struct {
		Workers           int `yaml:"Workers" default:"5"`
		MaxRecords        int `yaml:"MaxRecords" default:"50000"`
		MinRecords        int `yaml:"MinRecords" default:"1000"`
		RecordsPerMinute  int `yaml:"RecordsPerMinute" default:"30"`
		DefaultTimePeriod int `yaml:"DefaultTimePeriod" default:"1440"`
	}

	//PortsStaticCfg lists the well known service ports. Every other port
	//is treated as suspicious by the detectors.
	PortsStaticCfg struct {
		CommonPorts []int `yaml:"CommonPorts"`
	}

	//FilteringStaticCfg holds additional networks treated as internal
	FilteringStaticCfg struct {
		InternalSubnets []string `yaml:"InternalSubnets"`
	}

	//BeaconStaticCfg is used to control the beaconing analysis module
	BeaconStaticCfg struct {
		Enabled              bool    `yaml:"Enabled" default:"true"`
		MinConnections       int     `yaml:"MinConnections" default:"10"`
		ConnectionSaturation int     `yaml:"ConnectionSaturation" default:"100"`
		MinConfidence        float64 `yaml:"MinConfidence" default:"0.3"`
	}

	//LongConnectionStaticCfg is used to control the long connection analysis module
	LongConnectionStaticCfg struct {
		Enabled            bool    `yaml:"Enabled" default:"true"`
		MinDurationSeconds float64 `yaml:"MinDurationSeconds" default:"3600"`
		MinConfidence      float64 `yaml:"MinConfidence" default:"0.4"`
	}

	//ExfiltrationStaticCfg is used to control the data exfiltration analysis module
	ExfiltrationStaticCfg struct {
		Enabled       bool    `yaml:"Enabled" default:"true"`
		MinBytes      int64   `yaml:"MinBytes" default:"104857600"`
		MinRatio      float64 `yaml:"MinRatio" default:"10"`
		MinConfidence float64 `yaml:"MinConfidence" default:"0.5"`
	}

	//PortScanStaticCfg is used to control the port scan analysis module
	PortScanStaticCfg struct {
		Enabled  bool `yaml:"Enabled" default:"true"`
		MinPorts int  `yaml:"MinPorts" default:"10"`
	}

	//DNSTunnelingStaticCfg is used to control the dns tunneling analysis module
	DNSTunnelingStaticCfg struct {
		Enabled           bool    `yaml:"Enabled" default:"true"`
		Port              int     `yaml:"Port" default:"53"`
		MinQueries        int     `yaml:"MinQueries" default:"50"`
		MinQueriesPerHour float64 `yaml:"MinQueriesPerHour" default:"1000"`
	}
)

// DefaultCommonPorts are the well known service ports used when the
// config file does not provide any
var DefaultCommonPorts = []int{80, 443, 53, 22, 21, 25, 110, 143, 993, 995}

// parseStaticConfig parses the yaml contents over an already defaulted
// StaticCfg
func parseStaticConfig(cfgFile []byte, config *StaticCfg) error {
	err := yaml.Unmarshal(cfgFile, config)
	if err != nil {
		return err
	}

	// expand env variables, config is a pointer
	// so we have to call elem on the reflect value
	expandConfig(reflect.ValueOf(config).Elem())

	return nil
}

// RecordLimit returns how many flow records a batch covering the given
// number of minutes may hold
func (e EngineStaticCfg) RecordLimit(minutes int) int {
	limit := minutes * e.RecordsPerMinute
	if limit < e.MinRecords {
		limit = e.MinRecords
	}
	if limit > e.MaxRecords {
		limit = e.MaxRecords
	}
	return limit
}
