// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides HTTP I/O utilities shared by the upload client
// and the ingress mock.
//
// Body helpers (ReadBody, ErrorBody) bound every read so that a
// misbehaving peer cannot make either side allocate without limit. The
// transport error helper (IsTransientError) classifies failures that
// deserve a retry: connection refusal and reset, timeouts, DNS and TLS
// handshake failures.
package netutil

import (
	"errors"
	"fmt"
	"io"
)

// MaxErrorBodySize bounds the portion of an error response kept for
// diagnostics. Ingestion endpoints answer failures with short text;
// anything longer is truncated.
const MaxErrorBodySize int64 = 64 << 10

// ErrBodyTooLarge is returned by ReadBody when the body exceeds its limit.
var ErrBodyTooLarge = errors.New("netutil: body exceeds limit")

// ReadBody reads body up to limit bytes. A body longer than limit is an
// error rather than a silent truncation: a report cut short would decode
// as garbage.
func ReadBody(body io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", ErrBodyTooLarge, limit)
	}
	return data, nil
}

// ErrorBody reads an HTTP error response body and returns it as a string
// for diagnostic messages, truncated at MaxErrorBodySize. Read errors are
// ignored; a partial or empty body is still useful in a log line.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, MaxErrorBodySize))
	return string(data)
}
