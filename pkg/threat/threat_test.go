package threat

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/activecm/rita-flow/pkg/score"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(t Type, sev score.Severity, confidence float64, id string) Threat {
	return Threat{
		ID:         id,
		Type:       t,
		Severity:   sev,
		Score:      ScoreOf(confidence),
		Confidence: confidence,
		FirstSeen:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		LastSeen:   time.Date(2024, 3, 1, 13, 0, 0, 0, time.UTC),
		Details:    map[string]interface{}{"b": 2, "a": 1},
	}
}

func TestNewID(t *testing.T) {
	assert.Equal(t, "beacon_10.0.0.5_203.0.113.9_4444", NewID(Beacon, "10.0.0.5", "203.0.113.9", 4444))
	assert.Equal(t, "longconn_10.0.0.5_8.8.8.8_22", NewID(LongConnection, "10.0.0.5", "8.8.8.8", 22))
	assert.Equal(t, "dns_10.0.0.5", NewID(DNSTunneling, "10.0.0.5"))
	assert.Equal(t, "other_x", NewID(Type("other"), "x"))
}

func TestScoreOf(t *testing.T) {
	assert.Equal(t, int64(73), ScoreOf(0.734))
	assert.Equal(t, int64(100), ScoreOf(1))
	assert.Equal(t, int64(0), ScoreOf(0))
}

func TestAggregatorOrdering(t *testing.T) {
	a := NewAggregator()
	a.Add(Beacon, []Threat{
		sample(Beacon, score.High, 0.7, "first"),
		sample(Beacon, score.Medium, 0.5, "second"),
	})
	a.Add(PortScan, []Threat{sample(PortScan, score.High, 0.7, "third")})
	a.Add(DNSTunneling, []Threat{sample(DNSTunneling, score.Critical, 0.9, "fourth")})
	a.Add(LongConnection, nil)

	threats := a.Threats()
	require.Len(t, threats, 4)
	ids := []string{threats[0].ID, threats[1].ID, threats[2].ID, threats[3].ID}
	assert.Equal(t, []string{"fourth", "first", "third", "second"}, ids, "score descending, ties stable")

	stats := a.Stats(60)
	assert.Equal(t, Stats{
		TotalThreats:      4,
		CriticalThreats:   1,
		HighThreats:       2,
		MediumThreats:     1,
		BeaconsDetected:   2,
		PortScans:         1,
		DNSTunneling:      1,
		AnalysisTimeRange: "Last 60 minutes",
	}, stats)
	assert.Equal(t, stats.TotalThreats,
		stats.BeaconsDetected+stats.LongConnections+stats.DataExfiltration+stats.PortScans+stats.DNSTunneling)
}

func TestAggregatorEmpty(t *testing.T) {
	a := NewAggregator()
	assert.NotNil(t, a.Threats())
	assert.Empty(t, a.Threats())
	assert.Equal(t, 0, a.Stats(5).TotalThreats)
}

func TestReportRoundTrip(t *testing.T) {
	a := NewAggregator()
	a.Add(Beacon, []Threat{sample(Beacon, score.High, 0.725, "beacon_x")})

	details := Details{TotalFlowsAnalyzed: 15, TimePeriodMinutes: 60, DetectorErrors: map[string]string{"port_scan": "boom", "dns_tunneling": "bang"}}
	details.SetCounts(a)
	report := Report{
		Success:         true,
		Stats:           a.Stats(60),
		Threats:         a.Threats(),
		AnalysisDetails: details,
	}

	var first, second bytes.Buffer
	require.NoError(t, report.Encode(&first, false))
	require.NoError(t, report.Encode(&second, false))
	assert.Equal(t, first.String(), second.String())
	assert.Contains(t, first.String(), `"error":null`)
	assert.Contains(t, first.String(), `"details":{"a":1,"b":2}`)
	assert.Contains(t, first.String(), `"detector_errors":{"dns_tunneling":"bang","port_scan":"boom"}`)

	decoded, err := DecodeReport(&first)
	require.NoError(t, err)
	assert.True(t, decoded.Success)
	require.Len(t, decoded.Threats, 1)
	assert.Equal(t, "beacon_x", decoded.Threats[0].ID)
	assert.Equal(t, score.High, decoded.Threats[0].Severity)
	assert.Equal(t, 1, decoded.AnalysisDetails.Beacons)
	assert.Nil(t, decoded.Error)
}

func TestFailed(t *testing.T) {
	report := Failed(errors.New("no flow records available"), 30)

	assert.False(t, report.Success)
	require.NotNil(t, report.Error)
	assert.Equal(t, "no flow records available", *report.Error)
	assert.NotNil(t, report.Threats)
	assert.Empty(t, report.Threats)
	assert.Equal(t, "Last 30 minutes", report.Stats.AnalysisTimeRange)

	var buf bytes.Buffer
	require.NoError(t, report.Encode(&buf, false))
	assert.Contains(t, buf.String(), `"threats":[]`)
}

func TestParseType(t *testing.T) {
	typ, ok := ParseType("port_scan")
	assert.True(t, ok)
	assert.Equal(t, PortScan, typ)
	_, ok = ParseType("scan")
	assert.False(t, ok)
}
