// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive], [RequireClosed], and [RequireEventually] wrap the
// timeout safety valve (select with a wall-clock fallback) so that
// individual tests never call time.After or time.Sleep directly. They
// are the only place in the test suite where real wall-clock timeouts
// appear; everything else runs on clock.Fake.
//
// All helpers call t.Fatalf on failure.
package testutil
