// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package hostinfo reads the machine identity fields carried in the
// report header: hostname and the uname(2) summary.
package hostinfo
