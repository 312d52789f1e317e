// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/bureau-foundation/graphtrace/lib/clock"
	"github.com/bureau-foundation/graphtrace/lib/collector"
	"github.com/bureau-foundation/graphtrace/lib/config"
	"github.com/bureau-foundation/graphtrace/lib/hostinfo"
	"github.com/bureau-foundation/graphtrace/lib/schema/trace"
	"github.com/bureau-foundation/graphtrace/lib/upload"
)

type recordingUploader struct {
	reports chan *trace.Report
}

func (u *recordingUploader) Upload(_ context.Context, data []byte, _ upload.Options) error {
	report, err := trace.DecodeReport(data)
	if err != nil {
		return fmt.Errorf("recording uploader: %w", err)
	}
	u.reports <- report
	return nil
}

func newTestEngine(t *testing.T, errorEvery int) (*engine, *collector.Tracer, *recordingUploader) {
	t.Helper()
	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	uploader := &recordingUploader{reports: make(chan *trace.Report, 16)}
	cfg := config.Default()
	cfg.APIKey = "test-key"
	tracer, err := collector.NewTracer(collector.Options{
		Channel:  cfg,
		Uploader: uploader,
		Host:     &hostinfo.Info{Hostname: "test-host"},
		Clock:    fake,
		Logger:   slog.New(slog.DiscardHandler),
	})
	if err != nil {
		t.Fatalf("NewTracer: %v", err)
	}
	t.Cleanup(tracer.Shutdown)
	return &engine{tracer: tracer, clock: fake, items: 3, errorEvery: errorEvery}, tracer, uploader
}

func collect(t *testing.T, tracer *collector.Tracer, uploader *recordingUploader) []*trace.Trace {
	t.Helper()
	tracer.Shutdown()
	var all []*trace.Trace
	for len(uploader.reports) > 0 {
		traces, err := (<-uploader.reports).DecodeTraces()
		if err != nil {
			t.Fatalf("DecodeTraces: %v", err)
		}
		for key, list := range traces {
			if key != "# Items\n"+itemsQuery {
				t.Errorf("unexpected query key %q", key)
			}
			all = append(all, list...)
		}
	}
	return all
}

func TestEngineTracesEveryRequest(t *testing.T) {
	load, tracer, uploader := newTestEngine(t, 5)

	result := load.run(context.Background(), 20, 4)
	if result.Requests != 20 || result.Errors != 4 {
		t.Fatalf("run = %+v, want 20 requests and 4 errors", result)
	}

	traces := collect(t, tracer, uploader)
	if len(traces) != 20 {
		t.Fatalf("uploaded %d traces, want 20", len(traces))
	}

	withErrors := 0
	for _, tr := range traces {
		if tr.ClientName != "graphtrace-loadgen" {
			t.Errorf("ClientName = %q", tr.ClientName)
		}
		if len(tr.Root.Children) != 2 {
			t.Fatalf("root has %d children, want items and viewer", len(tr.Root.Children))
		}
		items, viewer := tr.Root.Children[0], tr.Root.Children[1]
		if items.ResponseName != "items" || len(items.Children) != 3 {
			t.Fatalf("items node = %+v", items)
		}
		for position, element := range items.Children {
			if element.Index == nil || int(*element.Index) != position {
				t.Errorf("element %d has index %v", position, element.Index)
			}
			cost := element.Children[1]
			if cost.ResponseName != "cost" || cost.OriginalFieldName != "price" {
				t.Errorf("aliased field = %+v", cost)
			}
		}
		name := viewer.Children[0]
		if len(name.Errors) > 0 {
			withErrors++
			if name.Errors[0].JSON == "" {
				t.Error("error descriptor has no JSON rendering")
			}
		}
	}
	if withErrors != 4 {
		t.Errorf("%d traces carry an error, want 4", withErrors)
	}
}

func TestEngineStopsOnCancel(t *testing.T) {
	load, _, _ := newTestEngine(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if result := load.run(ctx, 100, 2); result.Requests != 0 {
		t.Fatalf("cancelled run executed %d requests", result.Requests)
	}
}

func TestServiceInfoReadsSchema(t *testing.T) {
	path := t.TempDir() + "/schema.graphql"
	sdl := "type Query { items: [Item!]! }"
	if err := os.WriteFile(path, []byte(sdl), 0o644); err != nil {
		t.Fatal(err)
	}

	info, err := serviceInfo(config.ServiceFile{Version: "1.2.3", SchemaPath: path})
	if err != nil {
		t.Fatalf("serviceInfo: %v", err)
	}
	if info.SchemaSDL != sdl || info.Version != "1.2.3" {
		t.Fatalf("serviceInfo = %+v", info)
	}

	if _, err := serviceInfo(config.ServiceFile{SchemaPath: path + ".missing"}); err == nil {
		t.Fatal("serviceInfo accepted a missing schema file")
	}
}
