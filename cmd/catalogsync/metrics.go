package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"catalogsync/internal/config"
	"catalogsync/internal/metrics"
	"catalogsync/internal/metrics/datadog"
)

// Test seams.
var (
	newDatadogBackend = func(ctx context.Context, opts datadog.Options) (metrics.Backend, error) {
		return datadog.NewBackend(ctx, opts)
	}
	setMetricsBackend = metrics.SetBackend
	logPrintf         = log.Printf
)

// initMetrics wires the configured metrics backend into the metrics facade.
//
// The returned cleanup is never nil. For Datadog it stops the flush loop,
// submits what is buffered and restores the nop backend. Close errors are
// logged, not returned.
//
// Backend selection: cfg.Backend, then METRICS_BACKEND. Extra tags come from
// cfg.Tags plus the comma-separated METRICS_TAGS.
func initMetrics(ctx context.Context, cfg config.Metrics, job, runID string) (func(), error) {
	backend := cfg.Backend
	if backend == "" {
		backend = os.Getenv("METRICS_BACKEND")
	}

	switch backend {
	case "", "none":
		return func() {}, nil

	case "datadog", "dd":
		tags := append(append([]string(nil), cfg.Tags...), datadog.ParseTagsCSV(os.Getenv("METRICS_TAGS"))...)
		b, err := newDatadogBackend(ctx, datadog.Options{
			JobName:    job,
			RunID:      runID,
			Tags:       tags,
			FlushEvery: cfg.FlushEvery.D(),
		})
		if err != nil {
			return func() {}, fmt.Errorf("metrics: init datadog: %w", err)
		}
		setMetricsBackend(b)
		return func() {
			if err := b.Close(); err != nil {
				logPrintf("metrics: datadog close error: %v", err)
			}
			setMetricsBackend(nil)
		}, nil

	default:
		return func() {}, fmt.Errorf("metrics: unknown backend %q", backend)
	}
}
