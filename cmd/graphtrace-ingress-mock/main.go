// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Graphtrace-ingress-mock stands in for the trace ingestion endpoint in
// local runs and integration tests. It accepts the exact upload
// protocol (API key header, gzip/zstd/identity bodies, CBOR reports),
// keeps every decoded report in memory, and serves counts on GET
// /stats so a test can check what arrived.
//
// Failure injection: the first --fail-first requests are answered with
// --fail-status before any validation, which exercises the uploader's
// retry path.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/spf13/pflag"

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
		listen      string
		options     ingressOptions
		logFormat   string
		showVersion bool
	)
	flagSet := pflag.NewFlagSet("graphtrace-ingress-mock", pflag.ContinueOnError)
	flagSet.StringVar(&listen, "listen", "127.0.0.1:8089", "address to serve on")
	flagSet.StringVar(&options.APIKey, "api-key", "", "required X-Api-Key value (empty accepts any key)")
	flagSet.IntVar(&options.FailFirst, "fail-first", 0, "answer this many initial requests with --fail-status")
	flagSet.IntVar(&options.FailStatus, "fail-status", http.StatusServiceUnavailable, "status for injected failures")
	flagSet.Int64Var(&options.MaxBodyBytes, "max-body-bytes", 64<<20, "largest accepted request body")
	flagSet.BoolVar(&options.Diagnose, "diagnose", false, "log every report in CBOR diagnostic notation")
	flagSet.StringVar(&logFormat, "log-format", "", "log format: text or json (default: text on a terminal)")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return process.Usagef("%v", err)
	}

	if showVersion {
		fmt.Printf("graphtrace-ingress-mock %s\n", version.Info())
		return nil
	}
	if options.FailStatus < 100 || options.FailStatus > 599 {
		return process.Usagef("--fail-status must be an HTTP status, got %d", options.FailStatus)
	}

	logger := logging.New(logging.Options{Format: logging.Format(logFormat)})
	options.Logger = logger
	mock := newIngress(options)

	ctx, stop := process.SignalContext(context.Background())
	defer stop()

	listener, err := net.Listen("tcp", listen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", listen, err)
	}
	server := &http.Server{
		Handler:           mock.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveDone := make(chan error, 1)
	go func() { serveDone <- server.Serve(listener) }()

	logger.Info("ingress mock running",
		"address", listener.Addr().String(),
		"fail_first", options.FailFirst,
		"fail_status", options.FailStatus,
	)

	select {
	case <-ctx.Done():
	case err := <-serveDone:
		return fmt.Errorf("serving: %w", err)
	}

	logger.Info("shutting down", "stats", mock.snapshot())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
