// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package channel

import "github.com/prometheus/client_golang/prometheus"

// Metrics instruments a Channel. Register the collectors with
// PrometheusCollectors; an unregistered Metrics still counts, which is
// what tests rely on.
type Metrics struct {
	TracesQueued  prometheus.Counter
	TracesDropped prometheus.Counter
	QueueBytes    prometheus.Gauge
	ReportsSent   prometheus.Counter
	ReportsFailed prometheus.Counter
	ReportBytes   prometheus.Histogram
	LoopFailures  prometheus.Counter
}

// NewMetrics creates the channel metrics. constLabels distinguishes
// channels when a process runs more than one (e.g. by graph ref).
func NewMetrics(constLabels prometheus.Labels) *Metrics {
	const (
		namespace = "graphtrace"
		subsystem = "channel"
	)

	return &Metrics{
		TracesQueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   subsystem,
			Name:        "traces_queued_total",
			Help:        "Count of traces accepted into the queue",
			ConstLabels: constLabels,
		}),
		TracesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   subsystem,
			Name:        "traces_dropped_total",
			Help:        "Count of traces rejected because the queue was full or the channel was stopping",
			ConstLabels: constLabels,
		}),
		QueueBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   subsystem,
			Name:        "queue_bytes",
			Help:        "Bytes currently queued (keys plus encoded traces)",
			ConstLabels: constLabels,
		}),
		ReportsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   subsystem,
			Name:        "reports_sent_total",
			Help:        "Count of reports the ingestion endpoint accepted",
			ConstLabels: constLabels,
		}),
		ReportsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   subsystem,
			Name:        "reports_failed_total",
			Help:        "Count of reports dropped after a fatal response, exhausted retries, or an encoding failure",
			ConstLabels: constLabels,
		}),
		ReportBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   subsystem,
			Name:        "report_bytes",
			Help:        "Histogram of uncompressed encoded report sizes",
			Buckets:     prometheus.ExponentialBuckets(1024, 4, 8),
			ConstLabels: constLabels,
		}),
		LoopFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   subsystem,
			Name:        "loop_failures_total",
			Help:        "Count of report loop goroutines that died from a panic",
			ConstLabels: constLabels,
		}),
	}
}

// PrometheusCollectors returns every collector for registration.
func (m *Metrics) PrometheusCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.TracesQueued,
		m.TracesDropped,
		m.QueueBytes,
		m.ReportsSent,
		m.ReportsFailed,
		m.ReportBytes,
		m.LoopFailures,
	}
}
