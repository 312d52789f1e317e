// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package trace defines the wire types uploaded to the trace ingestion
// endpoint: per-request [Trace] values with their [Node] tree, and the
// batched [Report] that groups encoded traces by query key under a
// per-process [ReportHeader].
//
// All types carry `json` tags. They are encoded as CBOR on the wire
// (see lib/codec) and rendered as JSON only for debug logging.
package trace
