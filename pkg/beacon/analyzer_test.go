package beacon

import (
	"testing"
	"time"

	"github.com/activecm/rita-flow/config"
	"github.com/activecm/rita-flow/pkg/flow"
	"github.com/activecm/rita-flow/pkg/score"
	"github.com/activecm/rita-flow/pkg/threat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestAnalyzer(t *testing.T) *Analyzer {
	conf, err := config.LoadTestingConfig()
	require.NoError(t, err)
	return NewAnalyzer(conf)
}

// periodic builds n flows spaced every seconds apart
func periodic(t *testing.T, n int, every time.Duration, port int, action flow.Action) []flow.Record {
	var records []flow.Record
	for i := 0; i < n; i++ {
		record, err := flow.NewRecord(flow.Fields{
			Timestamp:   start.Add(time.Duration(i) * every),
			SourceIP:    "10.0.0.5",
			DestIP:      "203.0.113.9",
			SourcePort:  40000 + i,
			DestPort:    port,
			Action:      action,
			BytesSent:   flow.DefaultBytes,
			PacketsSent: flow.DefaultPackets,
		})
		require.NoError(t, err)
		records = append(records, record)
	}
	return records
}

func TestBeaconScenario(t *testing.T) {
	a := newTestAnalyzer(t)

	candidates := a.Analyze(periodic(t, 15, 300*time.Second, 4444, flow.Accept))

	require.Len(t, candidates, 1)
	c := candidates[0]
	assert.Equal(t, "10.0.0.5", c.SourceIP)
	assert.Equal(t, "203.0.113.9", c.DestIP)
	assert.Equal(t, 4444, c.DestPort)
	assert.Equal(t, 15, c.ConnectionCount)
	assert.Equal(t, int64(15*1024), c.TotalBytes)
	assert.Equal(t, 1024.0, c.AvgBytesPerConnection)
	assert.Len(t, c.Intervals, 14)
	assert.Equal(t, 300.0, c.AvgInterval)
	assert.Equal(t, 0.0, c.IntervalVariance)
	assert.Equal(t, 1.0, c.ConsistencyScore)
	assert.InDelta(t, 0.725, c.Confidence, 1e-9)
	assert.Equal(t, score.High, c.Severity)
	assert.InDelta(t, 70.0/60.0, c.DurationHours, 1e-9)
	assert.Equal(t, start, c.FirstSeen)
	assert.Equal(t, start.Add(14*300*time.Second), c.LastSeen)

	tr := c.ToThreat()
	assert.Equal(t, "beacon_10.0.0.5_203.0.113.9_4444", tr.ID)
	assert.Equal(t, threat.Beacon, tr.Type)
	assert.Equal(t, int64(73), tr.Score)
	assert.Equal(t, 300.0, tr.Details["avg_interval_seconds"])
}

func TestBeaconCommonPortIsMedium(t *testing.T) {
	a := newTestAnalyzer(t)

	candidates := a.Analyze(periodic(t, 15, 300*time.Second, 443, flow.Accept))

	require.Len(t, candidates, 1)
	// 0.045 + 0.4 + 0.2 + 0.03
	assert.InDelta(t, 0.675, candidates[0].Confidence, 1e-9)
	assert.Equal(t, score.Medium, candidates[0].Severity)
}

func TestBeaconCritical(t *testing.T) {
	a := newTestAnalyzer(t)

	candidates := a.Analyze(periodic(t, 100, 300*time.Second, 4444, flow.Accept))

	require.Len(t, candidates, 1)
	assert.InDelta(t, 0.98, candidates[0].Confidence, 1e-9)
	assert.Equal(t, score.Critical, candidates[0].Severity)
}

func TestBeaconMinimumConnections(t *testing.T) {
	a := newTestAnalyzer(t)

	assert.Empty(t, a.Analyze(periodic(t, 9, 300*time.Second, 4444, flow.Accept)))
	assert.Len(t, a.Analyze(periodic(t, 10, 300*time.Second, 4444, flow.Accept)), 1)
}

func TestBeaconIgnoresBlockedFlows(t *testing.T) {
	a := newTestAnalyzer(t)

	assert.Empty(t, a.Analyze(periodic(t, 20, 300*time.Second, 4444, flow.Reject)))
	assert.Empty(t, a.Analyze(periodic(t, 20, 300*time.Second, 4444, flow.Drop)))
}

func TestBeaconSimultaneousFlows(t *testing.T) {
	a := newTestAnalyzer(t)

	// every flow at the same instant gives a zero mean interval
	assert.Empty(t, a.Analyze(periodic(t, 20, 0, 4444, flow.Accept)))
}

func TestBeaconOrderIndependent(t *testing.T) {
	a := newTestAnalyzer(t)

	records := periodic(t, 15, 300*time.Second, 4444, flow.Accept)
	reversed := make([]flow.Record, len(records))
	for i := range records {
		reversed[len(records)-1-i] = records[i]
	}

	forward := a.Analyze(records)
	backward := a.Analyze(reversed)
	require.Len(t, backward, 1)
	assert.Equal(t, forward, backward)
	assert.Equal(t, "10.0.0.5", reversed[len(reversed)-1].SourceIP(), "input is not reordered")
	assert.Equal(t, start.Add(14*300*time.Second), reversed[0].Timestamp, "input is not reordered")
}

func TestIntervalScore(t *testing.T) {
	testCases := []struct {
		avg float64
		out float64
		msg string
	}{
		{60, 1.0, "one minute"},
		{3600, 1.0, "one hour"},
		{30, 0.7, "thirty seconds"},
		{59.9, 0.7, "just under a minute"},
		{7200, 0.7, "two hours"},
		{29, 0.3, "fast"},
		{7201, 0.1, "slow"},
	}

	for _, testCase := range testCases {
		assert.Equal(t, testCase.out, intervalScore(testCase.avg), testCase.msg)
	}
}
