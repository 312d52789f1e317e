// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package trace

import (
	"testing"
	"time"

	"github.com/bureau-foundation/graphtrace/lib/codec"
)

func TestTimestampKeepsNanoseconds(t *testing.T) {
	instant := time.Date(2026, 3, 4, 5, 6, 7, 123456789, time.UTC)
	ts := NewTimestamp(instant)
	if ts.Seconds != instant.Unix() || ts.Nanos != 123456789 {
		t.Fatalf("NewTimestamp = %+v", ts)
	}
	if !ts.Time().Equal(instant) {
		t.Errorf("Time() = %v, want %v", ts.Time(), instant)
	}
}

func TestReportEmbedsEncodedTraces(t *testing.T) {
	zero := uint32(0)
	first := &Trace{
		StartTime:  NewTimestamp(time.Unix(100, 0)),
		EndTime:    NewTimestamp(time.Unix(101, 0)),
		DurationNs: uint64(time.Second),
		Root: &Node{Children: []*Node{{
			ResponseName: "items",
			Type:         "[Item!]!",
			ParentType:   "Query",
			Children:     []*Node{{Index: &zero}},
		}}},
		ClientName: "web",
	}
	second := &Trace{DurationNs: 42, Root: &Node{}}

	encodedFirst, err := Encode(first)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	encodedSecond, err := Encode(second)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	report := &Report{
		Header: &ReportHeader{Hostname: "host-a", AgentVersion: "graphtrace test"},
		TracesPerQuery: map[string]*TracesAndStats{
			"# Items\n{ items }": {Traces: []codec.RawMessage{encodedFirst, encodedSecond}},
		},
	}
	data, err := EncodeReport(report)
	if err != nil {
		t.Fatalf("EncodeReport: %v", err)
	}

	decoded, err := DecodeReport(data)
	if err != nil {
		t.Fatalf("DecodeReport: %v", err)
	}
	if decoded.Header.Hostname != "host-a" {
		t.Errorf("Hostname = %q, want host-a", decoded.Header.Hostname)
	}
	if decoded.TraceCount() != 2 {
		t.Fatalf("TraceCount = %d, want 2", decoded.TraceCount())
	}

	traces, err := decoded.DecodeTraces()
	if err != nil {
		t.Fatalf("DecodeTraces: %v", err)
	}
	got := traces["# Items\n{ items }"]
	if len(got) != 2 {
		t.Fatalf("got %d traces for key, want 2", len(got))
	}
	if got[0].ClientName != "web" || got[1].DurationNs != 42 {
		t.Errorf("traces out of order or corrupted: %+v, %+v", got[0], got[1])
	}
	items := got[0].Root.Children[0]
	if items.ResponseName != "items" || items.Children[0].Index == nil || *items.Children[0].Index != 0 {
		t.Errorf("node tree not preserved: %+v", items)
	}
}

func TestDecodeTracesReportsCorruptEntry(t *testing.T) {
	report := &Report{
		TracesPerQuery: map[string]*TracesAndStats{
			"bad": {Traces: []codec.RawMessage{{0x01}}},
		},
	}
	if _, err := report.DecodeTraces(); err == nil {
		t.Fatal("DecodeTraces accepted a non-map trace")
	}
}
