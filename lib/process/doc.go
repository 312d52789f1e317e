// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides entrypoint helpers for graphtrace binaries:
// the one place raw stderr output and os.Exit are allowed, and the
// signal context every binary shuts down on.
package process
