// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package runtime

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for lint runs.
var (
	tracer = otel.Tracer("beringlint.runtime")
	meter  = otel.Meter("beringlint.runtime")
)

// Metrics for lint run operations.
var (
	runLatency   metric.Float64Histogram
	runTotal     metric.Int64Counter
	filesLinted  metric.Int64Histogram
	wavesPerRun  metric.Int64Histogram
	arenasInUse  metric.Int64Histogram
	metricsOnce  sync.Once
	metricsErr   error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		runLatency, err = meter.Float64Histogram(
			"lint_run_duration_seconds",
			metric.WithDescription("Duration of lint runs"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		runTotal, err = meter.Int64Counter(
			"lint_run_total",
			metric.WithDescription("Total number of lint runs"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		filesLinted, err = meter.Int64Histogram(
			"lint_files_per_run",
			metric.WithDescription("Number of files linted per run"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		wavesPerRun, err = meter.Int64Histogram(
			"lint_waves_per_run",
			metric.WithDescription("Number of scheduling waves per run"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		arenasInUse, err = meter.Int64Histogram(
			"lint_arenas_created",
			metric.WithDescription("Number of backing arenas created per run"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startRunSpan creates a span for one lint run with a unique run ID.
func startRunSpan(ctx context.Context, entryCount int, crossModule bool) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Runtime.Run",
		trace.WithAttributes(
			attribute.String("lint.run_id", uuid.NewString()),
			attribute.Int("lint.entry_count", entryCount),
			attribute.Bool("lint.cross_module", crossModule),
		),
	)
}

// recordRunMetrics records metrics for a completed run.
func recordRunMetrics(ctx context.Context, duration time.Duration, files, waves, arenas int, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(attribute.Bool("success", success))

	runLatency.Record(ctx, duration.Seconds(), attrs)
	runTotal.Add(ctx, 1, attrs)

	if success {
		filesLinted.Record(ctx, int64(files))
		wavesPerRun.Record(ctx, int64(waves))
		arenasInUse.Record(ctx, int64(arenas))
	}
}
