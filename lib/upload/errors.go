// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package upload

import (
	"errors"
	"fmt"
)

// ErrAttemptsExhausted is wrapped into the error Upload returns after
// every attempt failed with a retryable error.
var ErrAttemptsExhausted = errors.New("upload: attempts exhausted")

// AttemptError describes one failed POST. Exactly one of StatusCode
// (non-zero for an HTTP response) and Err (transport failure) is set.
type AttemptError struct {
	// Attempt is the 1-based attempt number.
	Attempt int

	// StatusCode and Status come from the non-2xx response.
	StatusCode int
	Status     string

	// Body is the (truncated) response body, for diagnostics.
	Body string

	// Err is the transport error when no response arrived.
	Err error

	// Retryable is true for 5xx responses and transient network errors.
	Retryable bool
}

func (err *AttemptError) Error() string {
	if err.Err != nil {
		return fmt.Sprintf("upload attempt %d: %v", err.Attempt, err.Err)
	}
	if err.Body != "" {
		return fmt.Sprintf("upload attempt %d: %s: %s", err.Attempt, err.Status, err.Body)
	}
	return fmt.Sprintf("upload attempt %d: %s", err.Attempt, err.Status)
}

func (err *AttemptError) Unwrap() error { return err.Err }

// IsRetryable reports whether err carries a retryable AttemptError.
func IsRetryable(err error) bool {
	var attemptError *AttemptError
	return errors.As(err, &attemptError) && attemptError.Retryable
}

// StatusCode returns the HTTP status of the AttemptError in err, or 0.
func StatusCode(err error) int {
	var attemptError *AttemptError
	if errors.As(err, &attemptError) {
		return attemptError.StatusCode
	}
	return 0
}
