// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"strings"
	"testing"
)

type sampleTrace struct {
	Key        string `json:"key"`
	DurationNs uint64 `json:"duration_ns"`
	Client     string `json:"client,omitempty"`
}

type sampleEnvelope struct {
	Traces map[string][]RawMessage `json:"traces"`
}

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	original := sampleTrace{Key: "# Hello\n{ hello }", DurationNs: 1500, Client: "web"}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded sampleTrace
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded != original {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestMarshalDeterministicMapOrder(t *testing.T) {
	value := map[string]int{"zeta": 1, "alpha": 2, "mid": 3}

	first, err := Marshal(value)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for i := 0; i < 20; i++ {
		again, err := Marshal(value)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("encoding %d differs from the first", i)
		}
	}
}

func TestRawMessageEmbedsWithoutReencoding(t *testing.T) {
	inner, err := Marshal(sampleTrace{Key: "k", DurationNs: 9})
	if err != nil {
		t.Fatalf("Marshal inner: %v", err)
	}

	outer, err := Marshal(sampleEnvelope{Traces: map[string][]RawMessage{"k": {inner}}})
	if err != nil {
		t.Fatalf("Marshal outer: %v", err)
	}
	if !bytes.Contains(outer, inner) {
		t.Fatal("outer encoding does not contain the inner bytes verbatim")
	}

	var decoded sampleEnvelope
	if err := Unmarshal(outer, &decoded); err != nil {
		t.Fatalf("Unmarshal outer: %v", err)
	}
	var trace sampleTrace
	if err := Unmarshal(decoded.Traces["k"][0], &trace); err != nil {
		t.Fatalf("Unmarshal inner: %v", err)
	}
	if trace.DurationNs != 9 {
		t.Errorf("DurationNs = %d, want 9", trace.DurationNs)
	}
}

func TestUnmarshalAnyUsesStringKeys(t *testing.T) {
	data, err := Marshal(map[string]any{"code": "BAD_INPUT"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if _, ok := decoded.(map[string]any); !ok {
		t.Fatalf("decoded type = %T, want map[string]any", decoded)
	}
}

func TestValidAndDiagnose(t *testing.T) {
	data, err := Marshal(sampleTrace{Key: "diag"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if err := Valid(data); err != nil {
		t.Fatalf("Valid: %v", err)
	}
	if err := Valid(data[:len(data)-1]); err == nil {
		t.Fatal("Valid accepted truncated input")
	}

	notation, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if !strings.Contains(notation, `"diag"`) {
		t.Errorf("diagnostic notation %q does not mention the key", notation)
	}
}
