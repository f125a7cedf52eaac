package flow

import (
	"encoding/json"
	"fmt"
	"math"
	"net"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// RawRecord is one row handed over by the telemetry collaborator
type RawRecord map[string]interface{}

// Stats summarizes a normalization pass
type Stats struct {
	Received           int
	Kept               int
	Dropped            int
	TimestampFallbacks int
}

// keys accepted for each field, first present wins
var (
	timeKeys      = []string{"Time", "Datetime", "timestamp"}
	srcIPKeys     = []string{"Source IP", "source_ip", "src"}
	dstIPKeys     = []string{"Destination IP", "dest_ip", "dst"}
	srcPortKeys   = []string{"Source Port", "source_port"}
	dstPortKeys   = []string{"Destination Port", "dest_port"}
	actionKeys    = []string{"Action", "action"}
	protocolKeys  = []string{"Protocol", "protocol"}
	bytesKeys     = []string{"Bytes", "bytes_sent", "bytes"}
	packetsKeys   = []string{"Packets", "packets_sent", "packets"}
	durationKeys  = []string{"Duration", "duration"}
	startTimeKeys = []string{"Start Time", "start_time"}
	endTimeKeys   = []string{"End Time", "end_time"}
)

// isoLayouts are tried in order for textual timestamps. Layouts without
// a zone are read as UTC.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// epochMillisThreshold separates epoch milliseconds from epoch seconds
const epochMillisThreshold = 1e12

// Normalizer converts raw telemetry rows into validated flow records
type Normalizer struct {
	log      *log.Logger
	internal []*net.IPNet
	now      func() time.Time
}

// NewNormalizer creates a Normalizer which classifies addresses against
// the built in internal ranges plus the given subnets
func NewNormalizer(logger *log.Logger, internal []*net.IPNet) *Normalizer {
	return &Normalizer{
		log:      logger,
		internal: internal,
		now:      time.Now,
	}
}

// WithClock returns a copy of the Normalizer which uses now as the
// fallback instant for unparsable timestamps
func (n *Normalizer) WithClock(now func() time.Time) *Normalizer {
	c := *n
	c.now = now
	return &c
}

// Normalize converts every raw row into a Record, preserving input order.
// Rows which cannot be validated are dropped and counted; they never
// abort the pass.
func (n *Normalizer) Normalize(raw []RawRecord) ([]Record, Stats) {
	stats := Stats{Received: len(raw)}
	records := make([]Record, 0, len(raw))
	fallback := n.now().UTC()

	for i, row := range raw {
		ts, ok := parseTimestamp(lookup(row, timeKeys...))
		if !ok {
			ts = fallback
			stats.TimestampFallbacks++
			n.log.WithFields(log.Fields{
				"index": i,
				"value": fmt.Sprint(lookup(row, timeKeys...)),
			}).Debug("Could not parse flow timestamp, using current time")
		}

		record, err := n.convert(row, ts)
		if err != nil {
			stats.Dropped++
			n.log.WithFields(log.Fields{
				"index":  i,
				"reason": err.Error(),
			}).Debug("Dropping malformed flow record")
			continue
		}
		records = append(records, record)
	}

	stats.Kept = len(records)
	n.log.WithFields(log.Fields{
		"received":            stats.Received,
		"kept":                stats.Kept,
		"dropped":             stats.Dropped,
		"timestamp_fallbacks": stats.TimestampFallbacks,
	}).Info("Normalized flow records")

	return records, stats
}

// convert extracts the flow fields from a row
func (n *Normalizer) convert(row RawRecord, ts time.Time) (Record, error) {
	srcPort, err := portField(row, srcPortKeys)
	if err != nil {
		return Record{}, err
	}
	dstPort, err := portField(row, dstPortKeys)
	if err != nil {
		return Record{}, err
	}

	bytesSent, ok := parseInt(lookup(row, bytesKeys...))
	if !ok {
		bytesSent = DefaultBytes
	}
	packetsSent, ok := parseInt(lookup(row, packetsKeys...))
	if !ok {
		packetsSent = DefaultPackets
	}

	return NewRecord(Fields{
		Timestamp:   ts,
		SourceIP:    stringField(row, srcIPKeys),
		DestIP:      stringField(row, dstIPKeys),
		SourcePort:  srcPort,
		DestPort:    dstPort,
		Protocol:    stringField(row, protocolKeys),
		Action:      ParseAction(stringField(row, actionKeys)),
		BytesSent:   bytesSent,
		PacketsSent: packetsSent,
		Duration:    duration(row),
	}, n.internal...)
}

// lookup returns the first present, non empty value for the keys
func lookup(row RawRecord, keys ...string) interface{} {
	for _, key := range keys {
		v, ok := row[key]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return v
	}
	return nil
}

func stringField(row RawRecord, keys []string) string {
	v := lookup(row, keys...)
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// portField parses a port, defaulting a missing port to 0
func portField(row RawRecord, keys []string) (int, error) {
	v := lookup(row, keys...)
	if v == nil {
		return 0, nil
	}
	port, ok := parseInt(v)
	if !ok {
		return 0, fmt.Errorf("unparsable port %v", v)
	}
	return int(port), nil
}

// duration reads an explicit duration in seconds, or derives one from
// start and end times. Unknown durations are 0.
func duration(row RawRecord) float64 {
	if v := lookup(row, durationKeys...); v != nil {
		if d, ok := parseFloat(v); ok && d > 0 {
			return d
		}
		return 0
	}

	start, okStart := parseTimestamp(lookup(row, startTimeKeys...))
	end, okEnd := parseTimestamp(lookup(row, endTimeKeys...))
	if !okStart || !okEnd || end.Before(start) {
		return 0
	}
	return end.Sub(start).Seconds()
}

func parseFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
	default:
		return 0, false
	}
}

func parseInt(v interface{}) (int64, bool) {
	f, ok := parseFloat(v)
	if !ok || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

// parseTimestamp accepts epoch seconds, epoch milliseconds or an
// ISO-8601 string
func parseTimestamp(v interface{}) (time.Time, bool) {
	if v == nil {
		return time.Time{}, false
	}

	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		for _, layout := range isoLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.UTC(), true
			}
		}
	}

	// a zero epoch is an unset field, not 1970
	epoch, ok := parseFloat(v)
	if !ok || epoch <= 0 {
		return time.Time{}, false
	}
	if epoch > epochMillisThreshold {
		ms := int64(epoch)
		return time.Unix(ms/1000, (ms%1000)*int64(time.Millisecond)).UTC(), true
	}
	secs := math.Floor(epoch)
	return time.Unix(int64(secs), int64((epoch-secs)*float64(time.Second))).UTC(), true
}
