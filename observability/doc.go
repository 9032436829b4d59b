// Package observability exports pipeline traces and metrics over OTLP/HTTP.
//
//	exp := observability.Exporter{ServiceName: "pipecopy", Endpoint: "localhost:4318", Insecure: true}
//	tp, err := observability.InitTracer(ctx, &observability.TracerConfig{Exporter: exp, SampleRate: 1})
//	defer tp.Shutdown(ctx)
//	mp, err := observability.InitMeter(ctx, &observability.MeterConfig{Exporter: exp})
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("pipecopy"))
//	p := pipeline.New(src, dst, pipeline.WithTracing(), pipeline.WithMetrics(metrics))
//
// A traced pipeline opens a "pipeline.run" span and one child span per
// worker, each ending with the worker's resolved state.
package observability
