// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Graphtrace-loadgen drives a synthetic execution engine through the
// full tracing pipeline: every request is traced field by field, its
// trace queued on a report channel, and the reports uploaded to the
// configured ingestion endpoint.
//
// Configuration comes from --config (or GRAPHTRACE_CONFIG), then the
// ENGINE_API_KEY / APOLLO_KEY environment, then flags. Point --endpoint
// at a graphtrace-ingress-mock to run without a real backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/graphtrace/lib/channel"
	"github.com/bureau-foundation/graphtrace/lib/clock"
	"github.com/bureau-foundation/graphtrace/lib/collector"
	"github.com/bureau-foundation/graphtrace/lib/config"
	"github.com/bureau-foundation/graphtrace/lib/logging"
	"github.com/bureau-foundation/graphtrace/lib/process"
	"github.com/bureau-foundation/graphtrace/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		configPath        string
		endpoint          string
		apiKey            string
		requests          int
		concurrency       int
		items             int
		latency           time.Duration
		errorEvery        int
		reportingInterval time.Duration
		debugReports      bool
		metricsListen     string
		logFormat         string
		verbose           bool
		showVersion       bool
	)
	flagSet := pflag.NewFlagSet("graphtrace-loadgen", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "config file (default: $"+config.EnvConfigPath+")")
	flagSet.StringVar(&endpoint, "endpoint", "", "trace ingestion endpoint")
	flagSet.StringVar(&apiKey, "api-key", "", "API key sent as X-Api-Key")
	flagSet.IntVar(&requests, "requests", 1000, "number of requests to execute")
	flagSet.IntVar(&concurrency, "concurrency", 8, "concurrent executing requests")
	flagSet.IntVar(&items, "items", 5, "list length of every response")
	flagSet.DurationVar(&latency, "latency", time.Millisecond, "sleep per resolver")
	flagSet.IntVar(&errorEvery, "error-every", 10, "fail every Nth request (0 disables)")
	flagSet.DurationVar(&reportingInterval, "reporting-interval", 0, "report loop interval")
	flagSet.BoolVar(&debugReports, "debug-reports", false, "log every queued trace and sent report")
	flagSet.StringVar(&metricsListen, "metrics-listen", "", "serve Prometheus metrics on this address")
	flagSet.StringVar(&logFormat, "log-format", "", "log format: text or json (default: text on a terminal)")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return process.Usagef("%v", err)
	}
	if showVersion {
		fmt.Printf("graphtrace-loadgen %s\n", version.Info())
		return nil
	}
	if requests < 0 || concurrency < 1 || items < 0 {
		return process.Usagef("--requests, --items must be >= 0 and --concurrency >= 1")
	}

	level := slog.LevelInfo
	if verbose || debugReports {
		level = slog.LevelDebug
	}
	logger := logging.New(logging.Options{Level: level, Format: logging.Format(logFormat)})

	file, err := loadConfigFile(configPath)
	if err != nil {
		return err
	}
	channelConfig := config.Resolve(file, os.LookupEnv)
	if flagSet.Changed("endpoint") {
		channelConfig.Endpoint = endpoint
	}
	if flagSet.Changed("api-key") {
		channelConfig.APIKey = apiKey
	}
	if flagSet.Changed("reporting-interval") {
		channelConfig.ReportingInterval = reportingInterval
	}
	if debugReports {
		channelConfig.DebugReports = true
	}
	if err := channelConfig.Validate(); err != nil {
		return process.Usagef("%v", err)
	}

	service, err := serviceInfo(file.Service)
	if err != nil {
		return err
	}

	metrics := channel.NewMetrics(prometheus.Labels{"service": "graphtrace-loadgen"})
	ctx, stop := process.SignalContext(context.Background())
	defer stop()

	if metricsListen != "" {
		shutdownMetrics, err := serveMetrics(metricsListen, metrics, logger)
		if err != nil {
			return err
		}
		defer shutdownMetrics()
	}

	registry := collector.NewRegistry(logger)
	defer registry.Shutdown()

	tracer, err := registry.Use(collector.Options{
		Channel: channelConfig,
		Service: service,
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		return err
	}
	if tracer == nil {
		logger.Info("nothing to do with tracing disabled")
		return nil
	}

	load := &engine{
		tracer:     tracer,
		clock:      clock.Real(),
		items:      items,
		latency:    latency,
		errorEvery: errorEvery,
	}
	started := time.Now()
	logger.Info("running load",
		"requests", requests,
		"concurrency", concurrency,
		"endpoint", channelConfig.Endpoint,
	)
	result := load.run(ctx, requests, concurrency)
	logger.Info("load finished",
		"executed", result.Requests,
		"errored", result.Errors,
		"elapsed", time.Since(started).String(),
	)

	if ctx.Err() == nil {
		registry.Flush()
	}
	return nil
}

func loadConfigFile(path string) (*config.File, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func serviceInfo(file config.ServiceFile) (collector.ServiceInfo, error) {
	info := collector.ServiceInfo{
		Version:  file.Version,
		GraphRef: file.GraphRef,
		SchemaID: file.SchemaID,
	}
	if file.SchemaPath != "" {
		sdl, err := os.ReadFile(file.SchemaPath)
		if err != nil {
			return info, fmt.Errorf("reading schema: %w", err)
		}
		info.SchemaSDL = string(sdl)
	}
	return info, nil
}

// serveMetrics exposes the channel metrics and the Go runtime
// collectors on /metrics. The returned function stops the server.
func serveMetrics(address string, metrics *channel.Metrics, logger *slog.Logger) (func(), error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(metrics.PrometheusCollectors()...)

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("metrics listener on %s: %w", address, err)
	}
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	logger.Info("serving metrics", "address", listener.Addr().String())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}, nil
}
