package flow

import (
	"errors"
	"fmt"
	"math"
	"net"
	"strings"
	"time"

	"github.com/activecm/rita-flow/util"
)

// Action is the firewall verdict recorded for a flow
type Action string

const (
	//Accept marks a permitted connection
	Accept Action = "ACCEPT"
	//Reject marks a connection refused with a response
	Reject Action = "REJECT"
	//Drop marks a connection silently discarded
	Drop Action = "DROP"
	//Unknown marks an unrecognized verdict
	Unknown Action = "UNKNOWN"
)

const (
	//DefaultProtocol is assumed when the telemetry omits the protocol
	DefaultProtocol = "TCP"
	//DefaultBytes is the nominal volume assumed when the telemetry omits byte counts
	DefaultBytes int64 = 1024
	//DefaultPackets is the nominal packet count assumed when the telemetry omits it
	DefaultPackets int64 = 1
	//MaxVolume bounds the bytes or packets a single flow may claim so that
	//per group sums stay within int64
	MaxVolume int64 = 1 << 40
	//MaxDuration bounds the seconds a single flow may claim, one year
	MaxDuration float64 = 366 * 24 * 60 * 60
)

// ErrMissingAddress is returned when a flow lacks a source or destination address
var ErrMissingAddress = errors.New("flow record is missing an address")

// ParseAction maps a textual verdict onto an Action. Empty input is
// treated as ACCEPT.
func ParseAction(raw string) Action {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "", string(Accept):
		return Accept
	case string(Reject):
		return Reject
	case string(Drop):
		return Drop
	default:
		return Unknown
	}
}

// Blocked reports whether the verdict refused the connection
func (a Action) Blocked() bool {
	return a == Reject || a == Drop
}

// Fields holds the stored values of a flow before validation
type Fields struct {
	Timestamp   time.Time
	SourceIP    string
	DestIP      string
	SourcePort  int
	DestPort    int
	Protocol    string
	Action      Action
	BytesSent   int64
	PacketsSent int64
	Duration    float64
}

// Record is one validated, immutable network flow. The address
// classification and flow key are derived once by NewRecord.
type Record struct {
	Timestamp   time.Time
	SourcePort  int
	DestPort    int
	Protocol    string
	Action      Action
	BytesSent   int64
	PacketsSent int64
	Duration    float64

	sourceIP    string
	destIP      string
	internalSrc bool
	internalDst bool
	flowKey     string
}

// NewRecord validates the fields and returns a Record with its derived
// values computed against the built in internal ranges plus any extra
// internal subnets.
func NewRecord(f Fields, internal ...*net.IPNet) (Record, error) {
	src := strings.TrimSpace(f.SourceIP)
	dst := strings.TrimSpace(f.DestIP)
	if src == "" || dst == "" {
		return Record{}, ErrMissingAddress
	}
	if f.SourcePort < 0 || f.SourcePort > 65535 {
		return Record{}, fmt.Errorf("source port %d out of range", f.SourcePort)
	}
	if f.DestPort < 0 || f.DestPort > 65535 {
		return Record{}, fmt.Errorf("destination port %d out of range", f.DestPort)
	}
	if f.BytesSent < 0 || f.PacketsSent < 0 {
		return Record{}, fmt.Errorf("negative volume (bytes=%d, packets=%d)", f.BytesSent, f.PacketsSent)
	}
	if f.BytesSent > MaxVolume || f.PacketsSent > MaxVolume {
		return Record{}, fmt.Errorf("volume out of range (bytes=%d, packets=%d)", f.BytesSent, f.PacketsSent)
	}
	if f.Duration < 0 {
		return Record{}, fmt.Errorf("negative duration %f", f.Duration)
	}
	if f.Duration > MaxDuration || math.IsNaN(f.Duration) {
		return Record{}, fmt.Errorf("duration %g out of range", f.Duration)
	}

	protocol := strings.ToUpper(strings.TrimSpace(f.Protocol))
	if protocol == "" {
		protocol = DefaultProtocol
	}
	action := f.Action
	if action == "" {
		action = Accept
	}

	return Record{
		Timestamp:   f.Timestamp,
		SourcePort:  f.SourcePort,
		DestPort:    f.DestPort,
		Protocol:    protocol,
		Action:      action,
		BytesSent:   f.BytesSent,
		PacketsSent: f.PacketsSent,
		Duration:    f.Duration,
		sourceIP:    src,
		destIP:      dst,
		internalSrc: util.IsInternal(src, internal...),
		internalDst: util.IsInternal(dst, internal...),
		flowKey:     fmt.Sprintf("%s:%d->%s:%d", src, f.SourcePort, dst, f.DestPort),
	}, nil
}

// SourceIP returns the originating address
func (r Record) SourceIP() string { return r.sourceIP }

// DestIP returns the responding address
func (r Record) DestIP() string { return r.destIP }

// IsInternalSrc reports whether the source is private or loopback
func (r Record) IsInternalSrc() bool { return r.internalSrc }

// IsInternalDst reports whether the destination is private or loopback
func (r Record) IsInternalDst() bool { return r.internalDst }

// FlowKey returns "src:sport->dst:dport"
func (r Record) FlowKey() string { return r.flowKey }

// Outbound reports whether the flow leaves the internal network
func (r Record) Outbound() bool { return r.internalSrc && !r.internalDst }

// Inbound reports whether the flow enters the internal network
func (r Record) Inbound() bool { return !r.internalSrc && r.internalDst }
