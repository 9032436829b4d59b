package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/pipekit/logger"
)

// MeterConfig configures metric export.
type MeterConfig struct {
	Exporter
	// Interval is the time between exports; zero keeps the SDK default.
	Interval time.Duration
}

// InitMeter installs a periodically exporting OTLP meter provider as the
// global one. The caller shuts it down to flush pending measurements.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := config.resource()
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds OpenTelemetry metric instruments for pipelines and the
// report server.
type Metrics struct {
	requestTotal     metric.Int64Counter
	requestDuration  metric.Float64Histogram
	pipelineActive   metric.Int64UpDownCounter
	pipelineTotal    metric.Int64Counter
	pipelineDuration metric.Float64Histogram
	workerTotal      metric.Int64Counter
	workerDuration   metric.Float64Histogram
	workerProcessed  metric.Int64Counter
	errorTotal       metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	requestTotal, err := meter.Int64Counter("request.total",
		metric.WithDescription("Total number of report requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request.total counter: %w", err)
	}

	requestDuration, err := meter.Float64Histogram("request.duration",
		metric.WithDescription("Duration of report requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request.duration histogram: %w", err)
	}

	pipelineActive, err := meter.Int64UpDownCounter("pipeline.active",
		metric.WithDescription("Number of currently running pipelines"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.active gauge: %w", err)
	}

	pipelineTotal, err := meter.Int64Counter("pipeline.total",
		metric.WithDescription("Total number of resolved pipelines by state"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.total counter: %w", err)
	}

	pipelineDuration, err := meter.Float64Histogram("pipeline.duration",
		metric.WithDescription("Duration of pipeline runs in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.duration histogram: %w", err)
	}

	workerTotal, err := meter.Int64Counter("worker.total",
		metric.WithDescription("Total number of resolved workers by state"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating worker.total counter: %w", err)
	}

	workerDuration, err := meter.Float64Histogram("worker.duration",
		metric.WithDescription("Duration of workers in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating worker.duration histogram: %w", err)
	}

	workerProcessed, err := meter.Int64Counter("worker.processed",
		metric.WithDescription("Units (bytes or items) processed by workers"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating worker.processed counter: %w", err)
	}

	errorTotal, err := meter.Int64Counter("error.total",
		metric.WithDescription("Total errors by code and component"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating error.total counter: %w", err)
	}

	return &Metrics{
		requestTotal:     requestTotal,
		requestDuration:  requestDuration,
		pipelineActive:   pipelineActive,
		pipelineTotal:    pipelineTotal,
		pipelineDuration: pipelineDuration,
		workerTotal:      workerTotal,
		workerDuration:   workerDuration,
		workerProcessed:  workerProcessed,
		errorTotal:       errorTotal,
	}, nil
}

// RecordRequest records a completed report request.
func (m *Metrics) RecordRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	))
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
	))
}

// RecordPipelineStart increments the running pipeline count.
func (m *Metrics) RecordPipelineStart(ctx context.Context) {
	m.pipelineActive.Add(ctx, 1)
}

// RecordPipelineEnd decrements running pipelines and records the outcome.
func (m *Metrics) RecordPipelineEnd(ctx context.Context, pipeline, state string, duration time.Duration) {
	m.pipelineActive.Add(ctx, -1)
	m.pipelineTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("pipeline", pipeline),
		attribute.String("state", state),
	))
	m.pipelineDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("pipeline", pipeline),
	))
}

// RecordWorker records the outcome of one worker.
func (m *Metrics) RecordWorker(ctx context.Context, pipeline, worker, state string, duration time.Duration, processed int64) {
	attrs := metric.WithAttributes(
		attribute.String("pipeline", pipeline),
		attribute.String("worker", worker),
	)
	m.workerTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("pipeline", pipeline),
		attribute.String("worker", worker),
		attribute.String("state", state),
	))
	m.workerDuration.Record(ctx, duration.Seconds(), attrs)
	m.workerProcessed.Add(ctx, processed, attrs)
}

// RecordError records an error by code and component.
func (m *Metrics) RecordError(ctx context.Context, code, component string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("code", code),
		attribute.String("component", component),
	))
}
