package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"sheetclean/pkg/contracts"
)

const (
	ServiceName = "sheetclean"
	MeterName   = "sheetclean"
)

// TelemetryOptions selects where run telemetry is written. Empty paths
// disable the corresponding export; spans and metrics are still recorded.
type TelemetryOptions struct {
	TraceFile   string
	MetricsFile string
}

// Telemetry holds the OpenTelemetry providers for a single run
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Metrics        *RunMetrics

	registry    *prom.Registry
	traceFile   *os.File
	metricsFile string
	logger      *slog.Logger
}

// RunMetrics holds the counters and histograms recorded by the pipeline
type RunMetrics struct {
	RowsProcessed  metric.Int64Counter
	CellsImputed   metric.Int64Counter
	ColumnsCoerced metric.Int64Counter
	StepsTotal     metric.Int64Counter
	StepDuration   metric.Float64Histogram
	Errors         metric.Int64Counter
}

// InitializeTelemetry creates tracer and meter providers. Spans are exported
// as pretty JSON to opts.TraceFile; metrics are gathered by a private
// Prometheus registry and written to opts.MetricsFile on Shutdown.
func InitializeTelemetry(opts TelemetryOptions, logger *slog.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = GetLogger()
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(contracts.Version),
		attribute.String("service.instance.id", generateInstanceID()),
	)

	t := &Telemetry{
		registry:    prom.NewRegistry(),
		metricsFile: opts.MetricsFile,
		logger:      logger,
	}

	if err := t.initializeTracing(opts.TraceFile, res); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if err := t.initializeMetrics(res); err != nil {
		t.closeTraceFile()
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	logger.Debug("Telemetry initialized",
		slog.String("trace_file", opts.TraceFile),
		slog.String("metrics_file", opts.MetricsFile))

	return t, nil
}

func (t *Telemetry) initializeTracing(traceFile string, res *resource.Resource) error {
	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	}

	if traceFile != "" {
		if err := os.MkdirAll(filepath.Dir(traceFile), 0755); err != nil {
			return fmt.Errorf("failed to create trace directory: %w", err)
		}
		file, err := os.Create(traceFile)
		if err != nil {
			return fmt.Errorf("failed to create trace file: %w", err)
		}
		exporter, err := stdouttrace.New(
			stdouttrace.WithWriter(file),
			stdouttrace.WithPrettyPrint(),
		)
		if err != nil {
			file.Close()
			return fmt.Errorf("failed to create trace exporter: %w", err)
		}
		t.traceFile = file
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exporter))
	}

	t.TracerProvider = sdktrace.NewTracerProvider(tpOpts...)
	t.Tracer = t.TracerProvider.Tracer(MeterName, trace.WithInstrumentationVersion(contracts.Version))
	return nil
}

func (t *Telemetry) initializeMetrics(res *resource.Resource) error {
	exporter, err := prometheus.New(
		prometheus.WithRegisterer(t.registry),
		prometheus.WithoutScopeInfo(),
	)
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	t.MeterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	t.Meter = t.MeterProvider.Meter(MeterName, metric.WithInstrumentationVersion(contracts.Version))

	t.Metrics, err = CreateRunMetrics(t.Meter)
	return err
}

// CreateRunMetrics creates the pipeline instruments on meter
func CreateRunMetrics(meter metric.Meter) (*RunMetrics, error) {
	rowsProcessed, err := meter.Int64Counter(
		"rows_processed",
		metric.WithDescription("Number of spreadsheet rows loaded"),
	)
	if err != nil {
		return nil, err
	}

	cellsImputed, err := meter.Int64Counter(
		"cells_imputed",
		metric.WithDescription("Number of missing cells filled"),
	)
	if err != nil {
		return nil, err
	}

	columnsCoerced, err := meter.Int64Counter(
		"columns_coerced",
		metric.WithDescription("Number of text columns converted to numeric"),
	)
	if err != nil {
		return nil, err
	}

	stepsTotal, err := meter.Int64Counter(
		"pipeline_steps",
		metric.WithDescription("Number of pipeline steps executed"),
	)
	if err != nil {
		return nil, err
	}

	stepDuration, err := meter.Float64Histogram(
		"pipeline_step_duration_seconds",
		metric.WithDescription("Pipeline step duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	errorsTotal, err := meter.Int64Counter(
		"pipeline_errors",
		metric.WithDescription("Number of pipeline errors"),
	)
	if err != nil {
		return nil, err
	}

	return &RunMetrics{
		RowsProcessed:  rowsProcessed,
		CellsImputed:   cellsImputed,
		ColumnsCoerced: columnsCoerced,
		StepsTotal:     stepsTotal,
		StepDuration:   stepDuration,
		Errors:         errorsTotal,
	}, nil
}

// Shutdown writes the metrics textfile, flushes pending spans and releases
// the trace file. It is safe to call on a nil Telemetry.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}

	var errs []error

	if t.metricsFile != "" {
		if err := os.MkdirAll(filepath.Dir(t.metricsFile), 0755); err != nil {
			errs = append(errs, fmt.Errorf("metrics directory: %w", err))
		} else if err := prom.WriteToTextfile(t.metricsFile, t.registry); err != nil {
			errs = append(errs, fmt.Errorf("metrics textfile: %w", err))
		}
	}

	if t.TracerProvider != nil {
		if err := t.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if t.MeterProvider != nil {
		if err := t.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if err := t.closeTraceFile(); err != nil {
		errs = append(errs, fmt.Errorf("trace file: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("telemetry shutdown errors: %w", errors.Join(errs...))
	}

	t.logger.Debug("Telemetry shutdown complete")
	return nil
}

func (t *Telemetry) closeTraceFile() error {
	if t.traceFile == nil {
		return nil
	}
	err := t.traceFile.Close()
	t.traceFile = nil
	return err
}

// generateInstanceID generates a unique instance identifier
func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}


// AddSpanEvent adds an event to the current span
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// RecordStepMetrics records a pipeline step execution
func RecordStepMetrics(ctx context.Context, metrics *RunMetrics, stepID, status string, duration time.Duration) {
	if metrics == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("step", stepID),
		attribute.String("status", status),
	)
	metrics.StepsTotal.Add(ctx, 1, attrs)
	metrics.StepDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordPipelineError counts a failed run by error type
func RecordPipelineError(ctx context.Context, metrics *RunMetrics, errorType string) {
	if metrics == nil {
		return
	}
	metrics.Errors.Add(ctx, 1, metric.WithAttributes(attribute.String("error.type", errorType)))
}
