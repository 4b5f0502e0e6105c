// Package metrics collects batch run counters for the node-exporter textfile
// collector.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Collector struct {
	reg *prometheus.Registry

	TracesProcessed prometheus.Counter
	TracesFallback  prometheus.Counter
	TracesSkipped   prometheus.Counter
	TracesEmpty     prometheus.Counter

	MatchDuration prometheus.Histogram
	LastRun       prometheus.Gauge
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		TracesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "traceprep_traces_processed_total",
			Help: "Trace stores anchored in this run.",
		}),
		TracesFallback: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "traceprep_traces_fallback_total",
			Help: "Trace stores anchored through the fallback path.",
		}),
		TracesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "traceprep_traces_skipped_total",
			Help: "Trace stores that already had an anchor.",
		}),
		TracesEmpty: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "traceprep_traces_empty_total",
			Help: "Trace stores without samples.",
		}),
		MatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "traceprep_match_duration_seconds",
			Help:    "Time to match and record one trace store.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		}),
		LastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "traceprep_last_run_timestamp_seconds",
			Help: "Unix time the last batch run finished.",
		}),
	}

	reg.MustRegister(
		c.TracesProcessed, c.TracesFallback, c.TracesSkipped, c.TracesEmpty,
		c.MatchDuration, c.LastRun,
	)

	return c
}

// WriteTextfile writes all metrics to path in the text exposition format.
func (c *Collector) WriteTextfile(path string) error {
	c.LastRun.SetToCurrentTime()
	return prometheus.WriteToTextfile(path, c.reg)
}
