// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package collector connects a GraphQL execution engine to a report
// channel.
//
// The engine calls a [Tracer] at fixed points of each request:
//
//	ExecuteMultiplex            (or StartRequest ... FinishRequest)
//	  StartRequest              per request: start times, empty tree
//	  ExecuteField              per resolver: start/end offsets, field metadata
//	  ExecuteFieldLazy          per lazy value: overwrites the end offset
//	  EndRequest                once execution (lazy values included) is done
//	  FinishRequest             attaches response errors, seals, submits
//
// Per-request state lives in the [Request] value the engine passes to
// every callback, never in a global keyed by request. Field callbacks
// for one request may run on several goroutines at once; the request
// serializes its own tree mutations. Nothing the collector does changes
// a resolver's result: every [Result] is returned exactly as the
// resolver produced it, and a resolver panic propagates after its
// timing is recorded.
//
// A [Registry] owns the tracers of a process and shuts their channels
// down together.
package collector
