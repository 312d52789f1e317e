// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hostinfo

import (
	"os"
	"strings"
	"testing"
)

func TestFormatUname(t *testing.T) {
	got := FormatUname("Linux", "build-7", "6.1.0", "", "x86_64")
	if got != "Linux build-7 6.1.0 x86_64" {
		t.Fatalf("FormatUname = %q", got)
	}
}

func TestProbe(t *testing.T) {
	info := Probe()
	hostname, err := os.Hostname()
	if err != nil {
		t.Skipf("hostname unavailable: %v", err)
	}
	if info.Hostname != hostname {
		t.Errorf("Hostname = %q, want %q", info.Hostname, hostname)
	}
	if info.Uname == "" {
		t.Fatal("Uname is empty")
	}
	if !strings.Contains(info.Uname, " ") {
		t.Errorf("Uname %q has a single field", info.Uname)
	}
}
