package config

import (
	"time"

	"github.com/kbukum/pipekit/observability"
	"github.com/kbukum/pipekit/validation"
	"github.com/kbukum/pipekit/version"
)

// TelemetryConfig configures OTLP export of traces and metrics. Nothing is
// exported while Endpoint is empty.
type TelemetryConfig struct {
	Endpoint       string  `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure       bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRate     float64 `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	MetricInterval string  `yaml:"metric_interval" mapstructure:"metric_interval" validate:"duration"`
}

// ApplyDefaults sets sampling to everything and a 15s export interval.
func (c *TelemetryConfig) ApplyDefaults() {
	if c.SampleRate == 0 {
		c.SampleRate = 1
	}
	if c.MetricInterval == "" {
		c.MetricInterval = "15s"
	}
}

// Validate checks the struct tags.
func (c *TelemetryConfig) Validate() error {
	return validation.Validate(c)
}

// Enabled reports whether an exporter endpoint is configured.
func (c *TelemetryConfig) Enabled() bool { return c.Endpoint != "" }

func (c *TelemetryConfig) exporter(svc ServiceConfig) observability.Exporter {
	return observability.Exporter{
		ServiceName:    svc.Name,
		ServiceVersion: version.Get().Version,
		Environment:    svc.Environment,
		Endpoint:       c.Endpoint,
		Insecure:       c.Insecure,
	}
}

// Tracer builds the tracer configuration for svc.
func (c *TelemetryConfig) Tracer(svc ServiceConfig) *observability.TracerConfig {
	return &observability.TracerConfig{Exporter: c.exporter(svc), SampleRate: c.SampleRate}
}

// Meter builds the meter configuration for svc.
func (c *TelemetryConfig) Meter(svc ServiceConfig) *observability.MeterConfig {
	interval, err := time.ParseDuration(c.MetricInterval)
	if err != nil {
		interval = 15 * time.Second
	}
	return &observability.MeterConfig{Exporter: c.exporter(svc), Interval: interval}
}
