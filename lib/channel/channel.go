// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/graphtrace/lib/barrier"
	"github.com/bureau-foundation/graphtrace/lib/clock"
	"github.com/bureau-foundation/graphtrace/lib/codec"
	"github.com/bureau-foundation/graphtrace/lib/config"
	"github.com/bureau-foundation/graphtrace/lib/schema/trace"
	"github.com/bureau-foundation/graphtrace/lib/upload"
)

// FlushPollInterval is how often Flush checks whether the queue has
// drained.
const FlushPollInterval = 100 * time.Millisecond

// Uploader delivers one encoded report. *upload.Client implements it.
type Uploader interface {
	Upload(ctx context.Context, report []byte, options upload.Options) error
}

// Settings holds the dependencies of a Channel.
type Settings struct {
	// Config is copied at construction.
	Config config.ChannelConfig

	// Header is stamped on every report. Required.
	Header *trace.ReportHeader

	// Uploader ships reports. Required.
	Uploader Uploader

	// Clock times the reporting interval and Flush polling. Defaults
	// to clock.Real().
	Clock clock.Clock

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Metrics defaults to a fresh, unregistered set.
	Metrics *Metrics
}

// Channel is a bounded trace queue with a background report loop.
// All methods are safe for concurrent use.
type Channel struct {
	config   config.ChannelConfig
	options  upload.Options
	header   *trace.ReportHeader
	uploader Uploader
	clock    clock.Clock
	logger   *slog.Logger
	metrics  *Metrics
	barrier  *barrier.Barrier

	queue      queue
	queueBytes atomic.Int64
	draining   atomic.Bool

	// enqueueMu serializes the full/not-full decision with the push so
	// the transition logs fire exactly once per transition.
	enqueueMu sync.Mutex
	queueFull bool

	// lifecycleMu guards the loop goroutine's existence.
	lifecycleMu sync.Mutex
	running     bool
	done        chan struct{}
}

// New creates a Channel. The loop does not start until Start or the
// first accepted Submit.
func New(settings Settings) (*Channel, error) {
	if settings.Header == nil {
		return nil, fmt.Errorf("channel: report header is required")
	}
	if settings.Uploader == nil {
		return nil, fmt.Errorf("channel: uploader is required")
	}
	if err := settings.Config.Validate(); err != nil {
		return nil, fmt.Errorf("channel: invalid config: %w", err)
	}
	if settings.Clock == nil {
		settings.Clock = clock.Real()
	}
	if settings.Logger == nil {
		settings.Logger = slog.Default()
	}
	if settings.Metrics == nil {
		settings.Metrics = NewMetrics(nil)
	}

	encoding := upload.Identity
	if settings.Config.Compress {
		parsed, err := upload.ParseEncoding(settings.Config.Compression)
		if err != nil {
			return nil, fmt.Errorf("channel: %w", err)
		}
		encoding = parsed
	}

	return &Channel{
		config: settings.Config,
		options: upload.Options{
			APIKey:        settings.Config.APIKey,
			Encoding:      encoding,
			MaxAttempts:   settings.Config.MaxUploadAttempts,
			MinRetryDelay: settings.Config.MinUploadRetryDelay,
		},
		header:   settings.Header,
		uploader: settings.Uploader,
		clock:    settings.Clock,
		logger:   settings.Logger,
		metrics:  settings.Metrics,
		barrier:  barrier.New(settings.Clock),
	}, nil
}

// Submit queues an encoded trace under key. Returns false when the
// trace was dropped: the channel is stopping, or the queue is full.
// Never blocks on I/O.
func (c *Channel) Submit(key string, payload []byte) bool {
	if c.barrier.Fired() {
		c.metrics.TracesDropped.Inc()
		return false
	}

	item := entry{key: key, payload: payload}

	c.enqueueMu.Lock()
	if c.barrier.Fired() {
		c.enqueueMu.Unlock()
		c.metrics.TracesDropped.Inc()
		return false
	}
	current := c.queueBytes.Load()
	if c.queueFull {
		if current >= c.config.MaxQueueBytes {
			c.enqueueMu.Unlock()
			c.metrics.TracesDropped.Inc()
			return false
		}
		c.queueFull = false
		c.logger.Info("trace queue below limit, resuming", "queue_bytes", current)
	} else if current >= c.config.MaxQueueBytes {
		c.queueFull = true
		c.enqueueMu.Unlock()
		c.logger.Warn("trace queue full, dropping traces",
			"queue_bytes", current,
			"max_queue_bytes", c.config.MaxQueueBytes,
		)
		c.metrics.TracesDropped.Inc()
		return false
	}
	c.queue.push(item)
	c.queueBytes.Add(item.size())
	c.metrics.QueueBytes.Add(float64(item.size()))
	c.enqueueMu.Unlock()

	c.metrics.TracesQueued.Inc()
	if c.config.DebugReports {
		c.logger.Info("queued trace", "key", key, "bytes", len(payload))
	}
	c.ensureRunning()
	return true
}

// SubmitTrace encodes tr and submits it under key. An encoding failure
// is logged and the trace dropped.
func (c *Channel) SubmitTrace(key string, tr *trace.Trace) bool {
	payload, err := trace.Encode(tr)
	if err != nil {
		c.logger.Warn("trace encoding failed, dropping trace", "key", key, "error", err)
		c.metrics.TracesDropped.Inc()
		return false
	}
	return c.Submit(key, payload)
}

// Start starts the report loop if it is not running. No-op after Stop.
func (c *Channel) Start() { c.ensureRunning() }

// Running reports whether the loop goroutine is alive.
func (c *Channel) Running() bool {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()
	return c.running
}

// QueueBytes returns the bytes currently queued.
func (c *Channel) QueueBytes() int64 { return c.queueBytes.Load() }

// QueueLen returns the number of queued traces.
func (c *Channel) QueueLen() int { return c.queue.len() }

// Flush blocks until every trace queued before the call has been
// drained and its report handed to the uploader. It polls every
// FlushPollInterval on the channel's clock and does not wake the loop
// early: the wait lasts up to one reporting interval plus upload time.
// Flush returns as soon as the loop is not running, since nothing would
// drain the queue; that includes a stopped channel and one whose loop
// died and has not been restarted by a Submit.
func (c *Channel) Flush() {
	for c.queue.len() > 0 || c.draining.Load() {
		if !c.Running() {
			return
		}
		c.clock.Sleep(FlushPollInterval)
	}
}

// Stop fires the shutdown barrier, waits for the loop to perform its
// final drain, and returns with the queue empty. Traces submitted after
// Stop are dropped. When the loop is not running but traces are queued
// (it died and no Submit restarted it), Stop runs the final drain on a
// fresh loop. Safe to call more than once and on a channel that never
// started.
func (c *Channel) Stop() {
	// Holding enqueueMu orders the fire against every in-flight
	// Submit: an entry is either queued before the final drain or
	// rejected.
	c.enqueueMu.Lock()
	c.lifecycleMu.Lock()
	alreadyStopped := c.barrier.Fired()
	c.barrier.Fire()
	c.lifecycleMu.Unlock()
	c.enqueueMu.Unlock()

	if !alreadyStopped {
		c.logger.Info("stopping report channel", "queued", c.queue.len())
	}

	// A loop that panics mid-drain exits without its final drain, so
	// keep restarting until one leaves the queue empty.
	for {
		c.lifecycleMu.Lock()
		if !c.running && c.queue.len() > 0 {
			c.startLocked()
		}
		running, done := c.running, c.done
		c.lifecycleMu.Unlock()
		if !running {
			return
		}
		<-done
	}
}

func (c *Channel) ensureRunning() {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()
	if c.running || c.barrier.Fired() {
		return
	}
	c.startLocked()
}

// startLocked starts the loop goroutine. Callers hold lifecycleMu.
func (c *Channel) startLocked() {
	c.running = true
	c.done = make(chan struct{})
	go c.run(c.done)
}

// run is the report loop: drain every interval until the barrier
// fires, then drain once more. A panic ends the goroutine; the next
// Submit starts a new one.
func (c *Channel) run(done chan struct{}) {
	defer func() {
		if recovered := recover(); recovered != nil {
			c.metrics.LoopFailures.Inc()
			c.logger.Error("report loop failed",
				"panic", fmt.Sprint(recovered),
				"stack", string(debug.Stack()),
			)
		}
		c.draining.Store(false)
		c.lifecycleMu.Lock()
		c.running = false
		c.lifecycleMu.Unlock()
		close(done)
	}()

	for !c.barrier.Wait(c.config.ReportingInterval) {
		c.drainQueue()
	}
	c.drainQueue()
}

// drainQueue pops every queued trace into reports. A report is cut as
// soon as the bytes drained into it reach MaxUncompressedReportSize, so
// a report may exceed the limit by at most one trace.
func (c *Channel) drainQueue() {
	c.draining.Store(true)
	defer c.draining.Store(false)

	pending := make(map[string][]codec.RawMessage)
	var pendingBytes int64
	for {
		item, ok := c.queue.pop()
		if !ok {
			break
		}
		c.queueBytes.Add(-item.size())
		c.metrics.QueueBytes.Sub(float64(item.size()))

		pending[item.key] = append(pending[item.key], item.payload)
		pendingBytes += item.size()
		if pendingBytes >= c.config.MaxUncompressedReportSize {
			c.sendReport(pending)
			pending = make(map[string][]codec.RawMessage)
			pendingBytes = 0
		}
	}
	if len(pending) > 0 {
		c.sendReport(pending)
	}
}

func (c *Channel) sendReport(tracesByKey map[string][]codec.RawMessage) {
	report := &trace.Report{
		Header:         c.header,
		TracesPerQuery: make(map[string]*trace.TracesAndStats, len(tracesByKey)),
	}
	for key, traces := range tracesByKey {
		report.TracesPerQuery[key] = &trace.TracesAndStats{Traces: traces}
	}

	data, err := trace.EncodeReport(report)
	if err != nil {
		c.metrics.ReportsFailed.Inc()
		c.logger.Warn("report encoding failed, dropping report",
			"traces", report.TraceCount(),
			"error", err,
		)
		return
	}
	c.metrics.ReportBytes.Observe(float64(len(data)))

	if c.config.DebugReports {
		c.logReport(report)
	}

	if err := c.uploader.Upload(context.Background(), data, c.options); err != nil {
		// The uploader already logged the failure with its status.
		c.metrics.ReportsFailed.Inc()
		return
	}
	c.metrics.ReportsSent.Inc()
}

func (c *Channel) logReport(report *trace.Report) {
	traces, err := report.DecodeTraces()
	if err != nil {
		c.logger.Warn("report rendering failed", "error", err)
		return
	}
	rendered, err := json.Marshal(struct {
		Header         *trace.ReportHeader       `json:"header"`
		TracesPerQuery map[string][]*trace.Trace `json:"traces_per_query"`
	}{report.Header, traces})
	if err != nil {
		c.logger.Warn("report rendering failed", "error", err)
		return
	}
	c.logger.Info("sending report", "traces", report.TraceCount(), "report", string(rendered))
}
