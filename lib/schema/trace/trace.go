// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package trace

import (
	"fmt"
	"time"

	"github.com/bureau-foundation/graphtrace/lib/codec"
)

// Timestamp is a wall-clock instant split into whole seconds and
// nanoseconds, so the encoding keeps full precision independent of the
// CBOR time tag configuration.
type Timestamp struct {
	Seconds int64 `json:"seconds"`
	Nanos   int32 `json:"nanos"`
}

// NewTimestamp converts t to a Timestamp.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Seconds: t.Unix(), Nanos: int32(t.Nanosecond())}
}

// Time converts the Timestamp back to a UTC time.Time.
func (ts Timestamp) Time() time.Time {
	return time.Unix(ts.Seconds, int64(ts.Nanos)).UTC()
}

// Trace is the complete timing record for one executed request.
type Trace struct {
	StartTime     Timestamp `json:"start_time"`
	EndTime       Timestamp `json:"end_time"`
	DurationNs    uint64    `json:"duration_ns"`
	Root          *Node     `json:"root"`
	ClientName    string    `json:"client_name,omitempty"`
	ClientVersion string    `json:"client_version,omitempty"`
}

// Node is the timing record for one field resolution. Start and end
// are nanosecond offsets from the request's recorded start. A node is
// addressed either by ResponseName (a field) or by Index (a list
// element); the root node has neither.
type Node struct {
	ResponseName      string  `json:"response_name,omitempty"`
	Index             *uint32 `json:"index,omitempty"`
	OriginalFieldName string  `json:"original_field_name,omitempty"`
	Type              string  `json:"type,omitempty"`
	ParentType        string  `json:"parent_type,omitempty"`
	StartTime         uint64  `json:"start_time"`
	EndTime           uint64  `json:"end_time"`
	Errors            []Error `json:"error,omitempty"`
	Children          []*Node `json:"child,omitempty"`
}

// Error describes one execution error attached to a node.
type Error struct {
	Message   string     `json:"message"`
	Locations []Location `json:"location,omitempty"`
	// JSON is the JSON encoding of the error object as the engine
	// reported it to the client.
	JSON string `json:"json,omitempty"`
}

// Location is a position in the query document.
type Location struct {
	Line   uint32 `json:"line"`
	Column uint32 `json:"column"`
}

// ReportHeader is the static per-process metadata stamped on every
// report.
type ReportHeader struct {
	Hostname           string `json:"hostname"`
	AgentVersion       string `json:"agent_version"`
	ServiceVersion     string `json:"service_version,omitempty"`
	RuntimeVersion     string `json:"runtime_version"`
	Uname              string `json:"uname"`
	GraphRef           string `json:"graph_ref,omitempty"`
	ExecutableSchemaID string `json:"executable_schema_id,omitempty"`
}

// TracesAndStats holds the encoded traces sharing one query key, in
// queue order.
type TracesAndStats struct {
	Traces []codec.RawMessage `json:"trace"`
}

// Report is the batch uploaded in one request.
type Report struct {
	Header         *ReportHeader              `json:"header"`
	TracesPerQuery map[string]*TracesAndStats `json:"traces_per_query"`
}

// Encode serializes a Trace.
func Encode(trace *Trace) ([]byte, error) {
	return codec.Marshal(trace)
}

// Decode deserializes a Trace produced by Encode.
func Decode(data []byte) (*Trace, error) {
	var trace Trace
	if err := codec.Unmarshal(data, &trace); err != nil {
		return nil, err
	}
	return &trace, nil
}

// EncodeReport serializes a Report.
func EncodeReport(report *Report) ([]byte, error) {
	return codec.Marshal(report)
}

// DecodeReport deserializes a Report. The embedded traces stay encoded;
// use [Report.DecodeTraces] to expand them.
func DecodeReport(data []byte) (*Report, error) {
	var report Report
	if err := codec.Unmarshal(data, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// TraceCount returns the number of traces across all query keys.
func (r *Report) TraceCount() int {
	count := 0
	for _, entry := range r.TracesPerQuery {
		count += len(entry.Traces)
	}
	return count
}

// DecodeTraces decodes every embedded trace, keyed like TracesPerQuery.
func (r *Report) DecodeTraces() (map[string][]*Trace, error) {
	decoded := make(map[string][]*Trace, len(r.TracesPerQuery))
	for key, entry := range r.TracesPerQuery {
		traces := make([]*Trace, 0, len(entry.Traces))
		for _, raw := range entry.Traces {
			trace, err := Decode(raw)
			if err != nil {
				return nil, fmt.Errorf("decoding trace for %q: %w", key, err)
			}
			traces = append(traces, trace)
		}
		decoded[key] = traces
	}
	return decoded, nil
}
