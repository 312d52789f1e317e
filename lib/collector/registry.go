// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package collector

import (
	"log/slog"
	"sync"
)

// Registry holds the tracers of a process. The composition root owns
// it and calls Shutdown on exit.
type Registry struct {
	logger *slog.Logger

	mu       sync.Mutex
	tracers  []*Tracer
	shutdown bool
}

// NewRegistry returns an empty Registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Use builds a tracer from options, starts its channel, and registers
// it. When options.Channel.Enabled is false, Use returns (nil, nil) and
// registers nothing. After Shutdown, Use still builds the tracer but
// stops it immediately, so its traces are dropped.
func (r *Registry) Use(options Options) (*Tracer, error) {
	if !options.Channel.Enabled {
		r.logger.Info("tracing disabled")
		return nil, nil
	}
	if options.Logger == nil {
		options.Logger = r.logger
	}
	tracer, err := NewTracer(options)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	closed := r.shutdown
	if !closed {
		r.tracers = append(r.tracers, tracer)
	}
	r.mu.Unlock()

	if closed {
		tracer.Shutdown()
		return tracer, nil
	}
	tracer.Start()
	return tracer, nil
}

// Tracers returns the registered tracers in registration order.
func (r *Registry) Tracers() []*Tracer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Tracer(nil), r.tracers...)
}

// Flush flushes every tracer in turn.
func (r *Registry) Flush() {
	for _, tracer := range r.Tracers() {
		tracer.Flush()
	}
}

// Shutdown stops every tracer's channel exactly once. Later calls are
// no-ops.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	if r.shutdown {
		r.mu.Unlock()
		return
	}
	r.shutdown = true
	tracers := append([]*Tracer(nil), r.tracers...)
	r.mu.Unlock()

	for _, tracer := range tracers {
		tracer.Shutdown()
	}
	r.logger.Info("tracers shut down", "count", len(tracers))
}
