package threat

import (
	"fmt"
	"strings"
	"time"

	"github.com/activecm/rita-flow/pkg/score"
)

// Type names the detector which produced a Threat
type Type string

const (
	//Beacon marks periodic command and control traffic
	Beacon Type = "beacon"
	//LongConnection marks abnormally long lived connections
	LongConnection Type = "long_connection"
	//DataExfiltration marks hosts pushing far more data out than in
	DataExfiltration Type = "data_exfiltration"
	//PortScan marks pairs with many refused destination ports
	PortScan Type = "port_scan"
	//DNSTunneling marks hosts with excessive DNS query rates
	DNSTunneling Type = "dns_tunneling"
)

// Types lists the detection types in the order their results are merged
var Types = []Type{Beacon, LongConnection, DataExfiltration, PortScan, DNSTunneling}

var idPrefixes = map[Type]string{
	Beacon:           "beacon",
	LongConnection:   "longconn",
	DataExfiltration: "exfil",
	PortScan:         "portscan",
	DNSTunneling:     "dns",
}

// ParseType matches a detection type name
func ParseType(name string) (Type, bool) {
	for _, t := range Types {
		if string(t) == name {
			return t, true
		}
	}
	return "", false
}

// Threat is the uniform shape every detector's findings are reported in
type Threat struct {
	ID               string                 `json:"id"`
	Type             Type                   `json:"type"`
	Severity         score.Severity         `json:"severity"`
	Score            int64                  `json:"score"`
	SourceIP         string                 `json:"source_ip"`
	DestIP           string                 `json:"dest_ip"`
	DestPort         int                    `json:"dest_port"`
	FirstSeen        time.Time              `json:"first_seen"`
	LastSeen         time.Time              `json:"last_seen"`
	ConnectionCount  int                    `json:"connection_count"`
	BytesTransferred int64                  `json:"bytes_transferred"`
	DurationHours    float64                `json:"duration_hours"`
	Confidence       float64                `json:"confidence"`
	Details          map[string]interface{} `json:"details"`
}

// NewID builds a readable, deterministic identifier such as
// beacon_10.0.0.5_203.0.113.9_4444
func NewID(t Type, parts ...interface{}) string {
	prefix, ok := idPrefixes[t]
	if !ok {
		prefix = string(t)
	}
	fields := make([]string, 0, len(parts)+1)
	fields = append(fields, prefix)
	for _, part := range parts {
		fields = append(fields, fmt.Sprint(part))
	}
	return strings.Join(fields, "_")
}
