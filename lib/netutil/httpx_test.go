// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"syscall"
	"testing"
)

func TestReadBody(t *testing.T) {
	t.Run("within limit", func(t *testing.T) {
		data, err := ReadBody(bytes.NewReader([]byte("abcd")), 4)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != "abcd" {
			t.Fatalf("got %q, want %q", data, "abcd")
		}
	})

	t.Run("over limit", func(t *testing.T) {
		_, err := ReadBody(bytes.NewReader([]byte("abcde")), 4)
		if !errors.Is(err, ErrBodyTooLarge) {
			t.Fatalf("expected ErrBodyTooLarge, got %v", err)
		}
	})

	t.Run("read error propagates", func(t *testing.T) {
		if _, err := ReadBody(&failReader{}, 10); err == nil {
			t.Fatal("expected error from failing reader")
		}
	})
}

func TestErrorBody(t *testing.T) {
	t.Run("returns body as string", func(t *testing.T) {
		if got := ErrorBody(strings.NewReader("invalid api key")); got != "invalid api key" {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("truncates", func(t *testing.T) {
		long := strings.Repeat("x", int(MaxErrorBodySize)+100)
		if got := ErrorBody(strings.NewReader(long)); int64(len(got)) != MaxErrorBodySize {
			t.Fatalf("got %d bytes, want %d", len(got), MaxErrorBodySize)
		}
	})

	t.Run("read error returns empty", func(t *testing.T) {
		if got := ErrorBody(&failReader{}); got != "" {
			t.Fatalf("expected empty from failing reader, got %q", got)
		}
	})
}

func TestIsTransientError(t *testing.T) {
	refused := &url.Error{Op: "Post", URL: "http://127.0.0.1:1", Err: &net.OpError{
		Op: "dial", Net: "tcp", Err: fmt.Errorf("connect: %w", syscall.ECONNREFUSED),
	}}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection refused", refused, true},
		{"unexpected eof", fmt.Errorf("reading: %w", io.ErrUnexpectedEOF), true},
		{"dns", &net.DNSError{Err: "no such host", Name: "ingress.invalid"}, true},
		{"deadline", fmt.Errorf("post: %w", context.DeadlineExceeded), true},
		{"canceled", &url.Error{Op: "Post", Err: context.Canceled}, false},
		{"plain", errors.New("malformed request"), false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := IsTransientError(test.err); got != test.want {
				t.Fatalf("IsTransientError(%v) = %v, want %v", test.err, got, test.want)
			}
		})
	}
}

// failReader always returns an error on Read.
type failReader struct{}

func (*failReader) Read([]byte) (int, error) {
	return 0, fmt.Errorf("simulated read failure")
}
