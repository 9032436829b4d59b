package pipeline

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/pipekit/observability"
)

func TestPipeline_Tracing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})

	boom := errors.New("boom")
	end := Map(FromSlice([]int{1}), func(int) (int, error) { return 0, boom }, nil)
	if _, err := ReadAll(context.Background(), end, quiet, WithTracing(), WithName("traced")); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 4 {
		t.Fatalf("got %d spans, want 4", len(spans))
	}
	var root *tracetest.SpanStub
	for i := range spans {
		if spans[i].Name == observability.SpanPipeline {
			root = &spans[i]
		}
	}
	if root == nil {
		t.Fatal("no pipeline span")
	}
	if root.Status.Code != codes.Error {
		t.Errorf("pipeline span status %v, want error", root.Status.Code)
	}
	for _, s := range spans {
		if s.Name == "pipeline.map" && s.Status.Code != codes.Error {
			t.Error("map span not marked failed")
		}
		if s.Name != observability.SpanPipeline && s.Parent.SpanID() != root.SpanContext.SpanID() {
			t.Errorf("span %s is not a child of the pipeline span", s.Name)
		}
	}
}

func TestPipeline_Metrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	metrics, err := observability.NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ReadAll(context.Background(), FromSlice([]int{1, 2, 3}), quiet, WithMetrics(metrics)); err != nil {
		t.Fatal(err)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatal(err)
	}
	var workers, pipelines int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				switch m.Name {
				case "worker.total":
					workers += dp.Value
				case "pipeline.total":
					pipelines += dp.Value
				}
			}
		}
	}
	if workers != 2 || pipelines != 1 {
		t.Errorf("recorded %d workers and %d pipelines, want 2 and 1", workers, pipelines)
	}
}
