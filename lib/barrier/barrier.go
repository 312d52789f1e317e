// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package barrier

import (
	"sync"
	"time"

	"github.com/bureau-foundation/graphtrace/lib/clock"
)

// Barrier is a one-way open → fired signal. All methods are safe for
// concurrent use; any number of goroutines may Wait at once and all
// are released when Fire is called.
type Barrier struct {
	clock clock.Clock
	once  sync.Once
	fired chan struct{}
}

// New returns an open Barrier whose timed waits run on clk.
func New(clk clock.Clock) *Barrier {
	return &Barrier{
		clock: clk,
		fired: make(chan struct{}),
	}
}

// Wait blocks until the barrier fires or timeout elapses. Returns true
// if the barrier fired. A barrier that has already fired returns true
// immediately, even with a zero timeout.
func (b *Barrier) Wait(timeout time.Duration) bool {
	select {
	case <-b.fired:
		return true
	default:
	}

	timer := b.clock.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-b.fired:
		return true
	case <-timer.C:
		return false
	}
}

// Fire moves the barrier to fired. Calls after the first are no-ops.
func (b *Barrier) Fire() {
	b.once.Do(func() { close(b.fired) })
}

// Fired reports whether Fire has been called. Never blocks.
func (b *Barrier) Fired() bool {
	select {
	case <-b.fired:
		return true
	default:
		return false
	}
}

// Done returns a channel that is closed when the barrier fires.
func (b *Barrier) Done() <-chan struct{} {
	return b.fired
}
