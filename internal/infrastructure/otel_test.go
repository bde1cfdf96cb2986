package infrastructure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInitializeTelemetry_NoExports(t *testing.T) {
	tel, err := InitializeTelemetry(TelemetryOptions{}, testLogger())
	require.NoError(t, err)
	require.NotNil(t, tel)

	assert.NotNil(t, tel.TracerProvider)
	assert.NotNil(t, tel.Tracer)
	assert.NotNil(t, tel.MeterProvider)
	assert.NotNil(t, tel.Meter)
	require.NotNil(t, tel.Metrics)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, tel.Shutdown(ctx))
}

func TestTelemetry_WritesTraceAndMetricsFiles(t *testing.T) {
	dir := t.TempDir()
	traceFile := filepath.Join(dir, "traces", "run.json")
	metricsFile := filepath.Join(dir, "metrics", "run.prom")

	tel, err := InitializeTelemetry(TelemetryOptions{
		TraceFile:   traceFile,
		MetricsFile: metricsFile,
	}, testLogger())
	require.NoError(t, err)

	ctx, span := tel.Tracer.Start(context.Background(), "clean")
	tel.Metrics.RowsProcessed.Add(ctx, 5)
	tel.Metrics.CellsImputed.Add(ctx, 3, metric.WithAttributes(attribute.String("strategy", "median")))
	tel.Metrics.ColumnsCoerced.Add(ctx, 1)
	RecordStepMetrics(ctx, tel.Metrics, "clean", "completed", 20*time.Millisecond)
	RecordPipelineError(ctx, tel.Metrics, "INPUT")
	span.End()

	require.NoError(t, tel.Shutdown(context.Background()))

	metrics, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "rows_processed_total 5")
	assert.Contains(t, string(metrics), "cells_imputed_total")
	assert.Contains(t, string(metrics), `strategy="median"`)
	assert.Contains(t, string(metrics), "pipeline_step_duration_seconds")
	assert.Contains(t, string(metrics), `error_type="INPUT"`)

	traces, err := os.ReadFile(traceFile)
	require.NoError(t, err)
	assert.Contains(t, string(traces), `"Name": "clean"`)
}

func TestTelemetry_ShutdownNil(t *testing.T) {
	var tel *Telemetry
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestSpanHelpers_NoSpan(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		AddSpanEvent(ctx, "event", attribute.Int("rows", 1))
		RecordError(ctx, errors.New("boom"))
		RecordStepMetrics(ctx, nil, "load", "completed", time.Second)
		RecordPipelineError(ctx, nil, "INPUT")
	})
}

func TestSpanHelpers_RecordingSpan(t *testing.T) {
	tel, err := InitializeTelemetry(TelemetryOptions{}, testLogger())
	require.NoError(t, err)
	defer tel.Shutdown(context.Background())

	ctx, span := tel.Tracer.Start(context.Background(), "save")
	defer span.End()

	assert.True(t, span.IsRecording())
	assert.NotPanics(t, func() {
		AddSpanEvent(ctx, "workbook.written", attribute.String("file", "out.xlsx"))
		RecordError(ctx, errors.New("disk full"))
	})
}
