package telemetry

import (
	"encoding/json"
	"time"
)

// TimestampLayout is the wire format of the timeStamp field.
const TimestampLayout = "2006-01-02 15:04:05"

// Record is the mutable telemetry snapshot published on every cycle.
//
// Identity fields (MAC, host, IP) and the broker echo fields are populated
// once at startup and never change. Metric values and the timestamp are
// overwritten in place before each publish; the Record itself is created
// once and lives for the process lifetime.
//
// Record carries no locking of its own. The agent serialises all access
// behind its state mutex, since both the publish timer and the inbound
// command path touch the same instance.
type Record struct {
	MACAddress    string
	Host          string
	IPAddress     string
	BrokerAddress string
	BrokerPort    int
	Notes         string

	timeStamp string
	metrics   map[string]float64
}

// NewRecord creates the process-lifetime telemetry record with its static
// fields populated.
func NewRecord(id Identity, brokerAddress string, brokerPort int, notes string) *Record {
	return &Record{
		MACAddress:    id.MACAddress,
		Host:          id.Host,
		IPAddress:     id.IPAddress,
		BrokerAddress: brokerAddress,
		BrokerPort:    brokerPort,
		Notes:         notes,
		timeStamp:     time.Now().Format(TimestampLayout),
		metrics:       make(map[string]float64),
	}
}

// SetMetric overwrites the named dynamic metric value.
func (r *Record) SetMetric(name string, value float64) {
	r.metrics[name] = value
}

// Metric returns the current value of a metric and whether it has been set.
func (r *Record) Metric(name string) (float64, bool) {
	v, ok := r.metrics[name]
	return v, ok
}

// Stamp overwrites the timestamp with the given instant. The agent calls
// this on every publish attempt, so the field always reflects publish time,
// not sample-collection time.
func (r *Record) Stamp(t time.Time) {
	r.timeStamp = t.Format(TimestampLayout)
}

// TimeStamp returns the currently held timestamp string.
func (r *Record) TimeStamp() string {
	return r.timeStamp
}

// MarshalJSON flattens the record to the wire shape: identity and broker
// fields plus one top-level key per metric. Notes is omitted when empty.
func (r *Record) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"macAddress":    r.MACAddress,
		"host":          r.Host,
		"ipAddress":     r.IPAddress,
		"brokerAddress": r.BrokerAddress,
		"brokerPort":    r.BrokerPort,
		"timeStamp":     r.timeStamp,
	}
	if r.Notes != "" {
		out["notes"] = r.Notes
	}
	for name, value := range r.metrics {
		out[name] = value
	}
	return json.Marshal(out)
}
