// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts the time operations used by the trace pipeline.
// Production code injects Real(); tests inject Fake() and drive the
// reporting interval and upload backoff deterministically.
type Clock interface {
	// Now returns the current time. Real clocks carry a monotonic
	// reading, so Sub between two Now values is safe for measuring
	// elapsed durations.
	Now() time.Time

	// After returns a channel that receives the current time once d
	// has elapsed. If d <= 0, the channel receives immediately.
	After(d time.Duration) <-chan time.Time

	// NewTimer returns a Timer that fires once after d. Callers that
	// may abandon the wait must Stop the timer.
	NewTimer(d time.Duration) *Timer

	// Sleep pauses the calling goroutine for at least d.
	Sleep(d time.Duration)
}

// Timer is a single-shot event. Read the fire time from C.
type Timer struct {
	// C delivers the fire time. Buffered with capacity 1.
	C <-chan time.Time

	stopFunc func() bool
}

// Stop prevents the Timer from firing. Returns true if the call
// stopped the timer, false if it already fired or was stopped.
func (t *Timer) Stop() bool { return t.stopFunc() }
