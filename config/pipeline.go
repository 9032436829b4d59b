package config

import (
	"time"

	"github.com/dustin/go-humanize"

	"github.com/kbukum/pipekit/buffer"
	"github.com/kbukum/pipekit/logger"
	"github.com/kbukum/pipekit/observability"
	"github.com/kbukum/pipekit/pipeline"
	"github.com/kbukum/pipekit/validation"
)

// PipelineConfig tunes how pipelines are built and run.
type PipelineConfig struct {
	// ItemCapacity bounds every item buffer.
	ItemCapacity int `yaml:"item_capacity" mapstructure:"item_capacity" validate:"gte=1"`
	// ByteCapacity bounds every byte buffer, e.g. "64KiB".
	ByteCapacity string `yaml:"byte_capacity" mapstructure:"byte_capacity" validate:"bytesize"`
	// Serial runs all synchronous workers on one dedicated goroutine.
	Serial bool `yaml:"serial" mapstructure:"serial"`
	// Tracing emits a span per pipeline and per worker.
	Tracing bool `yaml:"tracing" mapstructure:"tracing"`
	// ReportInterval is how often live reports are rendered, e.g. "250ms".
	ReportInterval string `yaml:"report_interval" mapstructure:"report_interval" validate:"duration"`
}

// ApplyDefaults fills zero values from buffer.DefaultSizing.
func (c *PipelineConfig) ApplyDefaults() {
	if c.ItemCapacity == 0 {
		c.ItemCapacity = buffer.DefaultSizing.Items
	}
	if c.ByteCapacity == "" {
		c.ByteCapacity = humanize.IBytes(uint64(buffer.DefaultSizing.Bytes))
	}
	if c.ReportInterval == "" {
		c.ReportInterval = "250ms"
	}
}

// Validate checks the struct tags.
func (c *PipelineConfig) Validate() error {
	return validation.Validate(c)
}

// Sizing converts the capacities. Call it on a validated config.
func (c *PipelineConfig) Sizing() buffer.Sizing {
	s := buffer.Sizing{Items: c.ItemCapacity}
	if n, err := humanize.ParseBytes(c.ByteCapacity); err == nil {
		s.Bytes = int64(n)
	}
	return s
}

// Interval parses ReportInterval. Call it on a validated config.
func (c *PipelineConfig) Interval() time.Duration {
	d, err := time.ParseDuration(c.ReportInterval)
	if err != nil || d <= 0 {
		return 250 * time.Millisecond
	}
	return d
}

// Options turns the config into pipeline options. log and metrics may be nil.
func (c *PipelineConfig) Options(log *logger.Logger, metrics *observability.Metrics) []pipeline.Option {
	opts := []pipeline.Option{pipeline.WithSizing(c.Sizing())}
	if log != nil {
		opts = append(opts, pipeline.WithLogger(log))
	}
	if c.Serial {
		opts = append(opts, pipeline.WithSerialExecution())
	}
	if c.Tracing {
		opts = append(opts, pipeline.WithTracing())
	}
	if metrics != nil {
		opts = append(opts, pipeline.WithMetrics(metrics))
	}
	return opts
}
