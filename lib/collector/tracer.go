// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package collector

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bureau-foundation/graphtrace/lib/channel"
	"github.com/bureau-foundation/graphtrace/lib/clock"
	"github.com/bureau-foundation/graphtrace/lib/config"
	"github.com/bureau-foundation/graphtrace/lib/hostinfo"
	"github.com/bureau-foundation/graphtrace/lib/schema/trace"
	"github.com/bureau-foundation/graphtrace/lib/tracetree"
	"github.com/bureau-foundation/graphtrace/lib/upload"
)

// Options configures a Tracer.
type Options struct {
	// Channel is the resolved channel configuration.
	Channel config.ChannelConfig

	// Service fills the report header.
	Service ServiceInfo

	// QuerySignature returns the signature part of a request's query
	// key. Defaults to the raw query string.
	QuerySignature func(*Request) string

	// Uploader overrides the HTTP upload client built from
	// Channel.Endpoint.
	Uploader channel.Uploader

	// HTTPClient is used by the default upload client.
	HTTPClient *http.Client

	// Host overrides hostinfo.Probe() for the header.
	Host *hostinfo.Info

	Clock   clock.Clock
	Logger  *slog.Logger
	Metrics *channel.Metrics
}

// Tracer receives execution callbacks and submits finished traces to
// its channel. Safe for concurrent use across requests.
type Tracer struct {
	channel        *channel.Channel
	header         *trace.ReportHeader
	querySignature func(*Request) string
	clock          clock.Clock
	logger         *slog.Logger
}

// NewTracer builds a Tracer and its channel. The channel loop starts on
// the first submitted trace, or when Start is called.
func NewTracer(options Options) (*Tracer, error) {
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.QuerySignature == nil {
		options.QuerySignature = func(request *Request) string { return request.Query }
	}
	var host hostinfo.Info
	if options.Host != nil {
		host = *options.Host
	} else {
		host = hostinfo.Probe()
	}
	header := NewReportHeader(host, options.Service)

	uploader := options.Uploader
	if uploader == nil {
		uploader = upload.NewClient(upload.ClientConfig{
			Endpoint:   options.Channel.Endpoint,
			HTTPClient: options.HTTPClient,
			Clock:      options.Clock,
			Logger:     options.Logger,
		})
	}

	reportChannel, err := channel.New(channel.Settings{
		Config:   options.Channel,
		Header:   header,
		Uploader: uploader,
		Clock:    options.Clock,
		Logger:   options.Logger,
		Metrics:  options.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("creating tracer: %w", err)
	}

	return &Tracer{
		channel:        reportChannel,
		header:         header,
		querySignature: options.QuerySignature,
		clock:          options.Clock,
		logger:         options.Logger,
	}, nil
}

// Header returns the report header stamped on this tracer's reports.
func (t *Tracer) Header() *trace.ReportHeader { return t.header }

// Channel returns the tracer's report channel.
func (t *Tracer) Channel() *channel.Channel { return t.channel }

// TracingEnabled reports whether request opted into tracing.
func (t *Tracer) TracingEnabled(request *Request) bool {
	return request != nil && request.TracingEnabled
}

// StartRequest records the request's start and attaches an empty trace
// tree. No-op for requests that did not opt in.
func (t *Tracer) StartRequest(request *Request) {
	if !t.TracingEnabled(request) {
		return
	}
	now := t.clock.Now()
	request.mu.Lock()
	request.trace = &requestTrace{
		startWall:      now.UTC(),
		startMonotonic: now,
		tree:           tracetree.New(),
	}
	request.mu.Unlock()
}

// ExecuteField runs resolve and records its timing and field metadata
// in the request's tree. The result is returned unchanged; a panic in
// resolve propagates after the timing is recorded.
func (t *Tracer) ExecuteField(request *Request, info FieldInfo, resolve func() Result) Result {
	start, traced := t.offset(request)
	if !traced {
		return resolve()
	}
	defer func() {
		end, _ := t.offset(request)
		t.recordField(request, info, start, end)
	}()
	return resolve()
}

// ExecuteFieldLazy runs the completion of a lazy field value and
// overwrites the field's end offset. For a list field, the engine
// reports one lazy completion per element with the element index as
// the last path segment; those update the list field's node, so the
// last element to finish sets the list's end.
func (t *Tracer) ExecuteFieldLazy(request *Request, info FieldInfo, resolve func() Result) Result {
	if _, traced := t.offset(request); !traced {
		return resolve()
	}
	defer func() {
		end, _ := t.offset(request)
		t.recordLazyEnd(request, info, end)
	}()
	return resolve()
}

// EndRequest records the end of execution, lazy values included.
// Calling it again overwrites the end time.
func (t *Tracer) EndRequest(request *Request) {
	if !t.TracingEnabled(request) {
		return
	}
	now := t.clock.Now()
	request.mu.Lock()
	defer request.mu.Unlock()
	if request.trace == nil {
		return
	}
	request.trace.endWall = now.UTC()
	request.trace.endMonotonic = now
	request.trace.ended = true
}

// FinishRequest attaches the response errors to the tree, seals it,
// and submits the trace. A request that never ended gets its end time
// now. The request's trace is discarded afterwards; a second call is a
// no-op.
func (t *Tracer) FinishRequest(request *Request, errors []tracetree.ErrorInfo) {
	if !t.TracingEnabled(request) {
		return
	}
	request.mu.Lock()
	state := request.trace
	request.trace = nil
	request.mu.Unlock()
	if state == nil {
		return
	}

	if !state.ended {
		now := t.clock.Now()
		state.endWall = now.UTC()
		state.endMonotonic = now
	}
	for _, info := range errors {
		if _, err := state.tree.AddError(info); err != nil {
			t.logger.Debug("dropping trace error", "message", info.Message, "error", err)
		}
	}
	state.tree.Seal()

	duration := state.endMonotonic.Sub(state.startMonotonic)
	if duration < 0 {
		duration = 0
	}
	t.channel.SubmitTrace(t.QueryKey(request), &trace.Trace{
		StartTime:     trace.NewTimestamp(state.startWall),
		EndTime:       trace.NewTimestamp(state.endWall),
		DurationNs:    uint64(duration),
		Root:          state.tree.Root(),
		ClientName:    request.ClientName,
		ClientVersion: request.ClientVersion,
	})
}

// ExecuteMultiplex traces a batch of requests executed together:
// start each, run execute, then end and finish each with its
// response's errors.
func (t *Tracer) ExecuteMultiplex(requests []*Request, execute func() []Response) []Response {
	for _, request := range requests {
		t.StartRequest(request)
	}
	responses := execute()
	for _, request := range requests {
		t.EndRequest(request)
	}
	for index, response := range responses {
		request := response.Request
		if request == nil && index < len(requests) {
			request = requests[index]
		}
		t.FinishRequest(request, response.Errors)
	}
	return responses
}

// QueryKey returns the report key for request:
// "# <operation name or ->\n<signature>".
func (t *Tracer) QueryKey(request *Request) string {
	operation := request.OperationName
	if operation == "" {
		operation = "-"
	}
	return "# " + operation + "\n" + t.querySignature(request)
}

// Start starts the channel loop eagerly.
func (t *Tracer) Start() { t.channel.Start() }

// Flush blocks until queued traces have been handed to the uploader.
func (t *Tracer) Flush() { t.channel.Flush() }

// Shutdown stops the channel after a final drain.
func (t *Tracer) Shutdown() { t.channel.Stop() }

// offset returns the time since the request started. The boolean is
// false when the request is not being traced.
func (t *Tracer) offset(request *Request) (time.Duration, bool) {
	if !t.TracingEnabled(request) {
		return 0, false
	}
	now := t.clock.Now()
	request.mu.Lock()
	defer request.mu.Unlock()
	if request.trace == nil {
		return 0, false
	}
	return now.Sub(request.trace.startMonotonic), true
}

func (t *Tracer) recordField(request *Request, info FieldInfo, start, end time.Duration) {
	request.mu.Lock()
	defer request.mu.Unlock()
	if request.trace == nil {
		return
	}
	node := request.trace.tree.Add(info.Path)
	if err := node.SetField(info.FieldName, info.FieldType, info.ParentType); err != nil {
		t.logger.Debug("field resolved after request finished", "path", info.Path.String(), "error", err)
		return
	}
	if err := node.SetTiming(start, end); err != nil {
		t.logger.Debug("field resolved after request finished", "path", info.Path.String(), "error", err)
	}
}

func (t *Tracer) recordLazyEnd(request *Request, info FieldInfo, end time.Duration) {
	path := info.Path
	if last, ok := path.Last(); ok && info.ListType && last.IsIndex() {
		path = path.Parent()
	}

	request.mu.Lock()
	defer request.mu.Unlock()
	if request.trace == nil {
		return
	}
	node, err := request.trace.tree.NodeFor(path)
	if err != nil {
		t.logger.Debug("lazy completion for an untraced field", "path", path.String(), "error", err)
		return
	}
	if err := node.SetEnd(end); err != nil {
		t.logger.Debug("lazy completion not recorded", "path", path.String(), "error", err)
	}
}
