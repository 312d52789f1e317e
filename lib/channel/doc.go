// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package channel batches encoded traces into reports and ships them on
// a background loop.
//
// A [Channel] accepts traces from any number of request goroutines
// through [Channel.Submit], which never blocks on I/O. A single loop
// goroutine wakes every reporting interval, drains the queue into
// reports no larger than the configured uncompressed size, and hands
// each report to an [Uploader]. The loop starts on the first accepted
// trace (or eagerly via [Channel.Start]) and restarts on the next
// Submit if it ever dies.
//
// Backpressure is byte-based: once the queued bytes reach
// MaxQueueBytes, Submit drops traces until the loop drains the queue
// below the threshold. The transition into and out of the dropping
// state is logged once each way.
//
// [Channel.Stop] fires the shutdown barrier, lets the loop perform one
// final drain, and joins it. Nothing the loop does ever surfaces as an
// error to a Submit caller; failures are logged and counted.
package channel
