// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for graphtrace
// binaries and the agent identifier sent with every report.
//
// Release builds inject the values with -ldflags:
//
//	go build -ldflags "-X github.com/bureau-foundation/graphtrace/lib/version.Version=1.0.0"
//
// Development builds report 0.1.0-dev and the toolchain's VCS stamp.
package version
