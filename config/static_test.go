package config

import (
	"testing"

	"github.com/creasty/defaults"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const staticConfigParserTestConfig = `
LogConfig:
    LogLevel: 1
    LogPath: /tmp/rita-flow/logs
    LogToFile: true
Engine:
    Workers: 2
    MaxRecords: 20000
Ports:
    CommonPorts: [80, 443]
Filtering:
    InternalSubnets: ["100.64.0.0/10"]
Beacon:
    Enabled: false
    MinConnections: 20
LongConnection:
    MinDurationSeconds: 7200
Exfiltration:
    MinBytes: 1024
PortScan:
    MinPorts: 25
DNSTunneling:
    Port: 5353
`

var testConfigFullExp = StaticCfg{
	Log: LogStaticCfg{
		LogLevel:  1,
		LogPath:   "/tmp/rita-flow/logs",
		LogToFile: true,
	},
	Engine: EngineStaticCfg{
		Workers:           2,
		MaxRecords:        20000,
		MinRecords:        1000,
		RecordsPerMinute:  30,
		DefaultTimePeriod: 1440,
	},
	Ports: PortsStaticCfg{
		CommonPorts: []int{80, 443},
	},
	Filtering: FilteringStaticCfg{
		InternalSubnets: []string{"100.64.0.0/10"},
	},
	Beacon: BeaconStaticCfg{
		Enabled:              false,
		MinConnections:       20,
		ConnectionSaturation: 100,
		MinConfidence:        0.3,
	},
	LongConnection: LongConnectionStaticCfg{
		Enabled:            true,
		MinDurationSeconds: 7200,
		MinConfidence:      0.4,
	},
	Exfiltration: ExfiltrationStaticCfg{
		Enabled:       true,
		MinBytes:      1024,
		MinRatio:      10,
		MinConfidence: 0.5,
	},
	PortScan: PortScanStaticCfg{
		Enabled:  true,
		MinPorts: 25,
	},
	DNSTunneling: DNSTunnelingStaticCfg{
		Enabled:           true,
		Port:              5353,
		MinQueries:        50,
		MinQueriesPerHour: 1000,
	},
}

// TestParseStaticConfig ensures that a yaml config
// string is correctly layered over the default values.
func TestParseStaticConfig(t *testing.T) {
	cfg := StaticCfg{}
	require.NoError(t, defaults.Set(&cfg))
	require.NoError(t, parseStaticConfig([]byte(staticConfigParserTestConfig), &cfg))
	assert.Equal(t, testConfigFullExp, cfg)
}

func TestParseStaticConfigEmpty(t *testing.T) {
	cfg := StaticCfg{}
	require.NoError(t, defaults.Set(&cfg))
	require.NoError(t, parseStaticConfig([]byte(""), &cfg))

	assert.Equal(t, 2, cfg.Log.LogLevel)
	assert.True(t, cfg.Beacon.Enabled)
	assert.Equal(t, 10, cfg.Beacon.MinConnections)
	assert.Equal(t, 3600.0, cfg.LongConnection.MinDurationSeconds)
	assert.Equal(t, int64(100*1024*1024), cfg.Exfiltration.MinBytes)
	assert.Equal(t, 10, cfg.PortScan.MinPorts)
	assert.Equal(t, 53, cfg.DNSTunneling.Port)
	assert.Equal(t, 1000.0, cfg.DNSTunneling.MinQueriesPerHour)
}

func TestRecordLimit(t *testing.T) {
	cfg := EngineStaticCfg{MaxRecords: 50000, MinRecords: 1000, RecordsPerMinute: 30}

	testCases := []struct {
		minutes int
		out     int
		msg     string
	}{
		{1, 1000, "short windows are raised to the minimum"},
		{60, 1800, "one hour scales linearly"},
		{1440, 43200, "one day scales linearly"},
		{10080, 50000, "one week is capped"},
	}

	for _, testCase := range testCases {
		assert.Equal(t, testCase.out, cfg.RecordLimit(testCase.minutes), testCase.msg)
	}
}
