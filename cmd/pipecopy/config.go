package main

import (
	"github.com/kbukum/pipekit/config"
	"github.com/kbukum/pipekit/server"
	"github.com/kbukum/pipekit/storage"
)

const serviceName = "pipecopy"

// Config is the pipecopy configuration file layout.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Pipeline             config.PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Telemetry            config.TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
	// Storage holds credentials and endpoint for s3:// locations. Provider
	// and Bucket are taken from the location.
	Storage storage.Config `yaml:"storage" mapstructure:"storage"`
	Server  server.Config  `yaml:"server" mapstructure:"server"`
}

func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Pipeline.ApplyDefaults()
	c.Telemetry.ApplyDefaults()
	c.Storage.ApplyDefaults()
	c.Server.ApplyDefaults()
}

func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Pipeline.Validate(); err != nil {
		return err
	}
	if err := c.Telemetry.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	return c.Server.Validate()
}
