// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/graphtrace/lib/clock"
	"github.com/bureau-foundation/graphtrace/lib/collector"
	"github.com/bureau-foundation/graphtrace/lib/tracetree"
)

// itemsQuery is the document every synthetic request executes.
const itemsQuery = `query Items { items { id cost: price } viewer { name } }`

// engine executes itemsQuery against canned data, driving the tracer
// callbacks the way a real execution engine would: one ExecuteField per
// resolved field, one lazy completion per list element, and the
// response errors handed to FinishRequest.
type engine struct {
	tracer *collector.Tracer
	clock  clock.Clock

	// items is the length of the items list of every response.
	items int

	// latency is how long each resolver sleeps on clock.
	latency time.Duration

	// errorEvery makes every errorEvery-th request fail resolving
	// viewer.name. Zero disables errors.
	errorEvery int

	executed atomic.Int64
}

// runStats summarizes a run.
type runStats struct {
	Requests int64
	Errors   int64
}

// run executes requests across concurrency goroutines and returns once
// all have finished or ctx is done.
func (e *engine) run(ctx context.Context, requests, concurrency int) runStats {
	if concurrency < 1 {
		concurrency = 1
	}
	work := make(chan int)
	var (
		group  sync.WaitGroup
		failures atomic.Int64
	)
	for range concurrency {
		group.Add(1)
		go func() {
			defer group.Done()
			for number := range work {
				if e.execute(number) {
					failures.Add(1)
				}
			}
		}()
	}

feed:
	for number := range requests {
		if ctx.Err() != nil {
			break
		}
		select {
		case work <- number:
		case <-ctx.Done():
			break feed
		}
	}
	close(work)
	group.Wait()
	return runStats{Requests: e.executed.Load(), Errors: failures.Load()}
}

// execute runs one request and reports whether its response carried an
// error.
func (e *engine) execute(number int) bool {
	request := &collector.Request{
		TracingEnabled: true,
		Query:          itemsQuery,
		OperationName:  "Items",
		ClientName:     "graphtrace-loadgen",
		ClientVersion:  fmt.Sprintf("worker-%d", number%4),
	}
	e.tracer.StartRequest(request)

	e.field(request, collector.FieldInfo{
		Path:       tracetree.NewPath("items"),
		FieldName:  "items",
		FieldType:  "[Item!]!",
		ParentType: "Query",
		ListType:   true,
	})
	for index := range e.items {
		e.field(request, collector.FieldInfo{
			Path:       tracetree.NewPath("items", index, "id"),
			FieldName:  "id",
			FieldType:  "ID!",
			ParentType: "Item",
		})
		e.field(request, collector.FieldInfo{
			Path:       tracetree.NewPath("items", index, "cost"),
			FieldName:  "price",
			FieldType:  "Int",
			ParentType: "Item",
		})
	}
	// The list's elements complete lazily after the items resolver
	// returned.
	for index := range e.items {
		e.tracer.ExecuteFieldLazy(request, collector.FieldInfo{
			Path:       tracetree.NewPath("items", index),
			FieldName:  "items",
			FieldType:  "[Item!]!",
			ParentType: "Query",
			ListType:   true,
		}, e.resolve(nil))
	}

	e.field(request, collector.FieldInfo{
		Path:       tracetree.NewPath("viewer"),
		FieldName:  "viewer",
		FieldType:  "User",
		ParentType: "Query",
	})
	failed := e.errorEvery > 0 && number%e.errorEvery == 0
	var responseErrors []tracetree.ErrorInfo
	var resolveErr error
	if failed {
		resolveErr = fmt.Errorf("viewer %d is not allowed to read name", number)
		responseErrors = append(responseErrors, tracetree.ErrorInfo{
			Message: resolveErr.Error(),
			Path:    []any{"viewer", "name"},
		})
	}
	e.tracer.ExecuteField(request, collector.FieldInfo{
		Path:       tracetree.NewPath("viewer", "name"),
		FieldName:  "name",
		FieldType:  "String",
		ParentType: "User",
	}, e.resolve(resolveErr))

	e.tracer.EndRequest(request)
	e.tracer.FinishRequest(request, responseErrors)
	e.executed.Add(1)
	return failed
}

func (e *engine) field(request *collector.Request, info collector.FieldInfo) {
	e.tracer.ExecuteField(request, info, e.resolve(nil))
}

func (e *engine) resolve(err error) func() collector.Result {
	return func() collector.Result {
		if e.latency > 0 {
			e.clock.Sleep(e.latency)
		}
		return collector.Result{Value: "ok", Err: err}
	}
}
