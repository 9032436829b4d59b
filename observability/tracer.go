package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/pipekit/logger"
)

const instrumentation = "github.com/kbukum/pipekit"

// SpanPipeline names the root span of a pipeline run. Workers get child
// spans named after WorkerSpan.
const SpanPipeline = "pipeline.run"

// Span attribute keys.
const (
	AttrPipeline   = "pipeline.name"
	AttrPipelineID = "pipeline.id"
	AttrWorker     = "pipeline.worker"
	AttrVerb       = "pipeline.verb"
	AttrState      = "pipeline.state"
)

// Exporter names the exporting service and the OTLP/HTTP collector its
// telemetry goes to.
type Exporter struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	// Endpoint is the collector's host:port, e.g. localhost:4318.
	Endpoint string
	Insecure bool
}

func (e Exporter) resource() (*resource.Resource, error) {
	return resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(e.ServiceName),
		semconv.ServiceVersion(e.ServiceVersion),
		semconv.DeploymentEnvironment(e.Environment),
	))
}

// TracerConfig configures trace export.
type TracerConfig struct {
	Exporter
	// SampleRate is the fraction of root spans kept, from 0 to 1.
	SampleRate float64
}

// InitTracer installs a batching OTLP tracer provider as the global one.
// The caller shuts it down to flush pending spans.
func InitTracer(ctx context.Context, cfg *TracerConfig) (*sdktrace.TracerProvider, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}
	res, err := cfg.resource()
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRate))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	logger.Info("tracer initialized", logger.Fields(
		"service", cfg.ServiceName,
		"endpoint", cfg.Endpoint,
		"sample_rate", cfg.SampleRate,
	))
	return tp, nil
}

// WorkerSpan returns the span name of a worker.
func WorkerSpan(worker string) string { return "pipeline." + worker }

// StartPipeline opens the root span of a pipeline run on the global tracer
// provider.
func StartPipeline(ctx context.Context, id, name string) (context.Context, trace.Span) {
	return otel.Tracer(instrumentation).Start(ctx, SpanPipeline, trace.WithAttributes(
		attribute.String(AttrPipeline, name),
		attribute.String(AttrPipelineID, id),
	))
}

// StartWorker opens the span of one worker, a child of the span in ctx.
func StartWorker(ctx context.Context, pipelineID, worker, verb string) (context.Context, trace.Span) {
	return otel.Tracer(instrumentation).Start(ctx, WorkerSpan(worker), trace.WithAttributes(
		attribute.String(AttrPipelineID, pipelineID),
		attribute.String(AttrWorker, worker),
		attribute.String(AttrVerb, verb),
	))
}

// EndSpan records the resolved state on span and ends it. A non-nil
// failure marks the span as errored.
func EndSpan(span trace.Span, state string, failure error) {
	span.SetAttributes(attribute.String(AttrState, state))
	if failure != nil {
		span.RecordError(failure)
		span.SetStatus(codes.Error, failure.Error())
	}
	span.End()
}
