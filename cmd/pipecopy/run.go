package main

import (
	"context"
	"io"
	"net"
	"strconv"

	"github.com/kbukum/pipekit/bootstrap"
	"github.com/kbukum/pipekit/errors"
	"github.com/kbukum/pipekit/logger"
	"github.com/kbukum/pipekit/observability"
	"github.com/kbukum/pipekit/pipeline"
	"github.com/kbukum/pipekit/report"
	"github.com/kbukum/pipekit/server"
)

// job is one copy or convert invocation.
type job struct {
	from, to             string
	decode, encode       string
	fromFormat, toFormat string
	convert              bool
}

// starter is a *pipeline.Pipeline of any buffer kind.
type starter interface {
	Start(ctx context.Context) (*pipeline.Live, error)
}

func (j job) build(o *opener, opts []pipeline.Option) (starter, error) {
	from, err := parseLocation(j.from)
	if err != nil {
		return nil, err
	}
	to, err := parseLocation(j.to)
	if err != nil {
		return nil, err
	}
	src, err := o.source(from, j.decode)
	if err != nil {
		return nil, err
	}
	dst, err := o.sink(to, j.encode)
	if err != nil {
		return nil, err
	}
	if !j.convert {
		return pipeline.New(src, dst, append(opts, pipeline.WithName("copy"))...), nil
	}

	in, err := records(formatOr(j.fromFormat, from), src)
	if err != nil {
		return nil, err
	}
	out, err := records(formatOr(j.toFormat, to), dst)
	if err != nil {
		return nil, err
	}
	return pipeline.New(in, out, append(opts, pipeline.WithName("convert"))...), nil
}

func formatOr(explicit string, loc location) string {
	if explicit != "" {
		return explicit
	}
	return detectFormat(loc.path)
}

// execute starts p, tracks it in reg and renders progress to progress (nil
// for none) until it resolves.
func execute(ctx context.Context, p starter, reg *report.Registry, cfg *Config, progress io.Writer) error {
	live, err := p.Start(ctx)
	if err != nil {
		return err
	}
	reg.Add(live)

	if progress != nil {
		if err := report.Watch(ctx, live, cfg.Pipeline.Interval(), report.NewConsole(progress)); err != nil {
			live.Cancel()
		}
	}
	return live.Wait()
}

// runtime holds what the lifecycle hooks set up for a task.
type runtime struct {
	app      *bootstrap.App[*Config]
	registry *report.Registry
	metrics  *observability.Metrics
}

func newRuntime(app *bootstrap.App[*Config]) *runtime {
	return &runtime{app: app, registry: report.NewRegistry()}
}

// withTelemetry exports traces and metrics while the task runs.
func (rt *runtime) withTelemetry() {
	cfg := rt.app.Cfg
	if !cfg.Telemetry.Enabled() {
		return
	}
	rt.app.OnStart(func(ctx context.Context) error {
		tp, err := observability.InitTracer(ctx, cfg.Telemetry.Tracer(cfg.ServiceConfig))
		if err != nil {
			return err
		}
		rt.app.OnStop(tp.Shutdown)

		mp, err := observability.InitMeter(ctx, cfg.Telemetry.Meter(cfg.ServiceConfig))
		if err != nil {
			return err
		}
		rt.app.OnStop(mp.Shutdown)

		rt.metrics, err = observability.NewMetrics(observability.Meter(serviceName))
		return err
	})
}

// withServer serves health and pipeline reports on addr while the task runs.
func (rt *runtime) withServer(addr string) error {
	if addr == "" {
		return nil
	}
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return errors.InvalidInput("serve", err.Error())
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return errors.InvalidInput("serve", "port must be a number")
	}

	cfg := rt.app.Cfg
	cfg.Server.Host, cfg.Server.Port, cfg.Server.Enabled = host, port, true
	if err := cfg.Server.Validate(); err != nil {
		return err
	}

	rt.app.OnStart(func(ctx context.Context) error {
		srv := server.New(cfg.Server, rt.app.Logger)
		srv.ApplyDefaults(cfg.Name, rt.registry.Check, rt.metrics)
		report.Register(srv.GinEngine(), rt.registry)
		if err := srv.Start(ctx); err != nil {
			return err
		}
		rt.app.Logger.Info("Serving pipeline reports", logger.Fields("addr", srv.Addr()))
		rt.app.OnStop(srv.Stop)
		return nil
	})
	return nil
}

// options builds the pipeline options once the start hooks have run.
func (rt *runtime) options() []pipeline.Option {
	cfg := rt.app.Cfg
	opts := cfg.Pipeline.Options(rt.app.Logger, rt.metrics)
	if cfg.Telemetry.Enabled() && !cfg.Pipeline.Tracing {
		opts = append(opts, pipeline.WithTracing())
	}
	return opts
}
