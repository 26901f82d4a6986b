package ingest

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const ingestInstrumentationName = "github.com/fyrsmithlabs/documind/internal/ingest"

// Metrics holds ingestion metric instruments.
type Metrics struct {
	meter     metric.Meter
	logger    *zap.Logger
	documents metric.Int64Counter
	duration  metric.Float64Histogram
	chunks    metric.Int64Histogram
}

// NewMetrics creates a new Metrics instance for ingestion.
func NewMetrics(logger *zap.Logger) *Metrics {
	m := &Metrics{
		meter:  otel.Meter(ingestInstrumentationName),
		logger: logger,
	}
	m.init()
	return m
}

func (m *Metrics) init() {
	var err error

	m.documents, err = m.meter.Int64Counter(
		"documind.ingest.documents_total",
		metric.WithDescription("Total ingested documents by extraction method and status"),
		metric.WithUnit("{document}"),
	)
	if err != nil {
		m.logger.Warn("failed to create documents counter", zap.Error(err))
	}

	m.duration, err = m.meter.Float64Histogram(
		"documind.ingest.duration_seconds",
		metric.WithDescription("End-to-end ingestion duration in seconds by extraction method"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
	)
	if err != nil {
		m.logger.Warn("failed to create duration histogram", zap.Error(err))
	}

	m.chunks, err = m.meter.Int64Histogram(
		"documind.ingest.chunks_per_document",
		metric.WithDescription("Number of chunks produced per document"),
		metric.WithUnit("{chunk}"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500),
	)
	if err != nil {
		m.logger.Warn("failed to create chunks histogram", zap.Error(err))
	}
}

// RecordIngest records the outcome of one ingestion attempt.
func (m *Metrics) RecordIngest(ctx context.Context, method string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	attrs := []attribute.KeyValue{
		attribute.String("method", method),
		attribute.String("status", status),
	}

	if m.documents != nil {
		m.documents.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	if m.duration != nil {
		m.duration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	}
}

// RecordChunks records the chunk count for a successfully ingested document.
func (m *Metrics) RecordChunks(ctx context.Context, method string, count int) {
	if m.chunks != nil {
		m.chunks.Record(ctx, int64(count), metric.WithAttributes(attribute.String("method", method)))
	}
}
