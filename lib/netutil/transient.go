// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"syscall"
)

// IsTransientError reports whether err from an HTTP round trip is a
// network-level failure worth retrying: EOF or reset mid-response,
// refused or unreachable connections, timeouts, DNS failures, and TLS
// handshake errors.
//
// Cancellation of the caller's own context is never transient: the
// caller asked to stop.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return true
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ECONNABORTED,
			syscall.EPIPE, syscall.ETIMEDOUT, syscall.EHOSTUNREACH, syscall.ENETUNREACH:
			return true
		}
	}

	var dnsError *net.DNSError
	if errors.As(err, &dnsError) {
		return true
	}
	var recordError tls.RecordHeaderError
	if errors.As(err, &recordError) {
		return true
	}
	var certError *tls.CertificateVerificationError
	if errors.As(err, &certError) {
		return true
	}

	var netError net.Error
	if errors.As(err, &netError) && netError.Timeout() {
		return true
	}
	var opError *net.OpError
	return errors.As(err, &opError)
}
