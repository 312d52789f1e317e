// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/bureau-foundation/graphtrace/lib/codec"
	"github.com/bureau-foundation/graphtrace/lib/netutil"
	"github.com/bureau-foundation/graphtrace/lib/schema/trace"
	"github.com/bureau-foundation/graphtrace/lib/upload"
)

// ingressOptions configures the mock.
type ingressOptions struct {
	APIKey       string
	FailFirst    int
	FailStatus   int
	MaxBodyBytes int64
	Diagnose     bool
	Logger       *slog.Logger
}

// ingress records every accepted report. All handlers are safe for
// concurrent use.
type ingress struct {
	options ingressOptions
	logger  *slog.Logger

	mu        sync.Mutex
	requests  int
	rejected  int
	reports   []*trace.Report
	traces    int
	perKey    map[string]int
	failsLeft int
}

// stats is the GET /stats response.
type stats struct {
	Requests int            `json:"requests"`
	Rejected int            `json:"rejected"`
	Reports  int            `json:"reports"`
	Traces   int            `json:"traces"`
	PerKey   map[string]int `json:"per_key"`
}

func newIngress(options ingressOptions) *ingress {
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.FailStatus == 0 {
		options.FailStatus = http.StatusServiceUnavailable
	}
	if options.MaxBodyBytes <= 0 {
		options.MaxBodyBytes = 64 << 20
	}
	return &ingress{
		options:   options,
		logger:    options.Logger,
		perKey:    make(map[string]int),
		failsLeft: options.FailFirst,
	}
}

func (m *ingress) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/ingress/traces", m.handleTraces)
	mux.HandleFunc("GET /stats", m.handleStats)
	return mux
}

func (m *ingress) handleTraces(writer http.ResponseWriter, request *http.Request) {
	m.mu.Lock()
	m.requests++
	inject := m.failsLeft > 0
	if inject {
		m.failsLeft--
	}
	m.mu.Unlock()

	if inject {
		m.reject(writer, m.options.FailStatus, "injected failure")
		return
	}

	if m.options.APIKey != "" && request.Header.Get("X-Api-Key") != m.options.APIKey {
		m.reject(writer, http.StatusUnauthorized, "invalid api key")
		return
	}

	encoding, err := upload.ParseEncoding(request.Header.Get("Content-Encoding"))
	if err != nil {
		m.reject(writer, http.StatusUnsupportedMediaType, err.Error())
		return
	}

	body, err := netutil.ReadBody(request.Body, m.options.MaxBodyBytes)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, netutil.ErrBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		m.reject(writer, status, err.Error())
		return
	}

	data, err := upload.Decode(encoding, body)
	if err != nil {
		m.reject(writer, http.StatusBadRequest, err.Error())
		return
	}
	report, err := trace.DecodeReport(data)
	if err != nil {
		m.reject(writer, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := report.DecodeTraces(); err != nil {
		m.reject(writer, http.StatusBadRequest, err.Error())
		return
	}

	if m.options.Diagnose {
		if notation, err := codec.Diagnose(data); err == nil {
			m.logger.Info("report received", "diagnostic", notation)
		}
	}

	m.mu.Lock()
	m.reports = append(m.reports, report)
	for key, entry := range report.TracesPerQuery {
		m.perKey[key] += len(entry.Traces)
		m.traces += len(entry.Traces)
	}
	m.mu.Unlock()

	m.logger.Debug("report accepted", "traces", report.TraceCount(), "bytes", len(data))
	writer.WriteHeader(http.StatusOK)
	writer.Write([]byte("OK"))
}

func (m *ingress) reject(writer http.ResponseWriter, status int, reason string) {
	m.mu.Lock()
	m.rejected++
	m.mu.Unlock()
	m.logger.Debug("report rejected", "status", status, "reason", reason)
	http.Error(writer, reason, status)
}

func (m *ingress) handleStats(writer http.ResponseWriter, _ *http.Request) {
	writer.Header().Set("Content-Type", "application/json")
	json.NewEncoder(writer).Encode(m.snapshot())
}

func (m *ingress) snapshot() stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	perKey := make(map[string]int, len(m.perKey))
	for key, count := range m.perKey {
		perKey[key] = count
	}
	return stats{
		Requests: m.requests,
		Rejected: m.rejected,
		Reports:  len(m.reports),
		Traces:   m.traces,
		PerKey:   perKey,
	}
}

