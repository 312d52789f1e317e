// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package upload sends encoded trace reports to the ingestion endpoint.
//
// [Client.Upload] compresses the report once, then POSTs it with
// exponential backoff: the delay before retry n (n = 1 for the first
// retry) is MinRetryDelay * 2^n. Server errors (5xx) and network-level
// failures are retried; any other non-2xx status is fatal and ends the
// upload immediately. Every non-success outcome is logged at warn level
// and returned as an error wrapping an [*AttemptError], which callers
// inspect with [IsRetryable] or errors.As.
//
// Backoff waits use the injected clock.Clock and end early when the
// context is cancelled, so tests drive retries with clock.Fake.
package upload
