// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"bytes"
	"errors"
	"testing"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, 0},
		{"failure", errors.New("listen: address in use"), 1},
		{"usage", Usagef("--requests must be positive, got %d", -1), 2},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := ExitCode(test.err); got != test.want {
				t.Fatalf("ExitCode(%v) = %d, want %d", test.err, got, test.want)
			}
		})
	}
}

func TestReport(t *testing.T) {
	var buffer bytes.Buffer
	report(&buffer, Usagef("unknown flag %q", "--fast"))
	if got, want := buffer.String(), "error: usage: unknown flag \"--fast\"\n"; got != want {
		t.Fatalf("report wrote %q, want %q", got, want)
	}
}
