// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package barrier provides a one-shot shutdown signal.
//
// A [Barrier] starts open and moves to fired exactly once. The report
// channel's drain loop waits on it with the reporting interval as the
// timeout: a timeout means "drain and keep going", a fire means "drain
// one last time and exit".
package barrier
