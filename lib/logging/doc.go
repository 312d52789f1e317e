// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package logging constructs the *slog.Logger that graphtrace binaries
// inject into every component. Libraries never log through a package
// global; they receive a logger from their caller.
package logging
