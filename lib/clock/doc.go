// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction.
//
// Every component that waits on the reporting interval, sleeps between
// upload attempts, or measures field resolver durations accepts a
// Clock instead of calling the time package directly. Real() wraps the
// standard library. Fake() returns a deterministic clock that only
// moves when Advance is called.
//
// # FakeClock Synchronization
//
// A goroutine calling After, NewTimer, or Sleep on a FakeClock
// registers a pending waiter. Tests call WaitForTimers to block until
// the goroutine under test has registered its waiter, inspect
// NextDeadline if the requested duration matters, and then Advance:
//
//	go channel.Start()
//	fakeClock.WaitForTimers(1)          // reporting interval registered
//	fakeClock.Advance(5 * time.Second)  // periodic drain fires
package clock
