// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package collector

import (
	"sync"
	"time"

	"github.com/bureau-foundation/graphtrace/lib/tracetree"
)

// Request is the per-request context the engine threads through every
// callback. The exported fields are set by the engine before
// StartRequest; the in-progress trace is owned by the Tracer.
type Request struct {
	// TracingEnabled opts this request into tracing.
	TracingEnabled bool

	// Query is the request's query document.
	Query string

	// OperationName is empty for anonymous operations.
	OperationName string

	// ClientName and ClientVersion identify the calling client.
	ClientName    string
	ClientVersion string

	mu    sync.Mutex
	trace *requestTrace
}

// requestTrace is the in-progress timing record of one request.
type requestTrace struct {
	startWall time.Time
	// startMonotonic is the clock reading every offset is measured
	// from. With a real clock it carries the monotonic reading.
	startMonotonic time.Time
	endWall        time.Time
	endMonotonic   time.Time
	ended          bool
	tree           *tracetree.Tree
}

// FieldInfo is the engine-supplied metadata of one field resolution.
type FieldInfo struct {
	// Path addresses the field in the response, e.g. [items 0 price].
	Path tracetree.Path

	// FieldName is the schema name of the field. It differs from the
	// path's last segment when the query aliased the field.
	FieldName string

	// FieldType is the type signature, e.g. "[Item!]!".
	FieldType string

	// ParentType names the type declaring the field.
	ParentType string

	// ListType is true when the field's type is a list.
	ListType bool
}

// Result is what a resolver produced.
type Result struct {
	Value any
	Err   error
}

// Response is one request's execution outcome, as ExecuteMultiplex
// receives it from the engine.
type Response struct {
	// Request is the request this response answers. When nil,
	// ExecuteMultiplex pairs responses with requests by position.
	Request *Request

	Data   any
	Errors []tracetree.ErrorInfo
}
