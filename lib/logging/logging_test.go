// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewJSONForNonTerminal(t *testing.T) {
	var buffer bytes.Buffer
	logger := New(Options{Output: &buffer})
	logger.Info("report sent", "bytes", 128)

	var record map[string]any
	if err := json.Unmarshal(buffer.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buffer.String())
	}
	if record["component"] != "graphtrace" {
		t.Errorf("component = %v, want graphtrace", record["component"])
	}
	if record["msg"] != "report sent" || record["bytes"] != float64(128) {
		t.Errorf("unexpected record: %v", record)
	}
}

func TestNewTextAndLevel(t *testing.T) {
	var buffer bytes.Buffer
	logger := New(Options{Output: &buffer, Format: FormatText, Level: slog.LevelWarn})
	logger.Info("hidden")
	logger.Warn("shown")

	output := buffer.String()
	if strings.Contains(output, "hidden") {
		t.Errorf("info record logged at warn level: %q", output)
	}
	if !strings.Contains(output, "msg=shown") || !strings.Contains(output, "component=graphtrace") {
		t.Errorf("unexpected text output: %q", output)
	}
}
