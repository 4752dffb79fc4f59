package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRunFilesTotal     = "impsort.run.files.total"
	metricRunFilesRewritten = "impsort.run.files.rewritten.total"
	metricRunFilesFailed    = "impsort.run.files.failed.total"
	metricRunImportsTotal   = "impsort.run.imports.total"
	metricRunImportsRemoved = "impsort.run.imports.removed.total"
	metricRunFileDuration   = "impsort.run.file.duration.seconds"

	attrReason = "reason"
)

// RunMetrics holds OTel instruments for batch sort run metrics.
type RunMetrics struct {
	filesTotal     metric.Int64Counter
	filesRewritten metric.Int64Counter
	filesFailed    metric.Int64Counter
	importsTotal   metric.Int64Counter
	importsRemoved metric.Int64Counter
	fileDuration   metric.Float64Histogram
}

// RunStats holds the statistics for a single batch run,
// decoupled from command types.
type RunStats struct {
	Files         int64
	Rewritten     int64
	ParseFailures int64
	IOFailures    int64
	Imports       int64
	Removed       int64
	FileDurations []time.Duration
}

// NewRunMetrics creates run metric instruments from the given meter.
func NewRunMetrics(mt metric.Meter) (*RunMetrics, error) {
	b := newMetricBuilder(mt)

	rm := &RunMetrics{
		filesTotal:     b.counter(metricRunFilesTotal, "Total files examined", "{file}"),
		filesRewritten: b.counter(metricRunFilesRewritten, "Files whose import block was rewritten", "{file}"),
		filesFailed:    b.counter(metricRunFilesFailed, "Files that failed to sort, by reason", "{file}"),
		importsTotal:   b.counter(metricRunImportsTotal, "Import declarations parsed", "{import}"),
		importsRemoved: b.counter(metricRunImportsRemoved, "Unused import declarations removed", "{import}"),
		fileDuration:   b.histogram(metricRunFileDuration, "Per-file sort duration in seconds", "s", durationBucketBoundaries...),
	}

	if b.err != nil {
		return nil, b.err
	}

	return rm, nil
}

// RecordRun records statistics for a completed batch run.
// Safe to call on a nil receiver (no-op).
func (rm *RunMetrics) RecordRun(ctx context.Context, stats RunStats) {
	if rm == nil {
		return
	}

	rm.filesTotal.Add(ctx, stats.Files)
	rm.filesRewritten.Add(ctx, stats.Rewritten)
	rm.importsTotal.Add(ctx, stats.Imports)
	rm.importsRemoved.Add(ctx, stats.Removed)

	for _, d := range stats.FileDurations {
		rm.fileDuration.Record(ctx, d.Seconds())
	}

	parseAttrs := metric.WithAttributes(attribute.String(attrReason, "parse"))
	rm.filesFailed.Add(ctx, stats.ParseFailures, parseAttrs)

	ioAttrs := metric.WithAttributes(attribute.String(attrReason, "io"))
	rm.filesFailed.Add(ctx, stats.IOFailures, ioAttrs)
}
