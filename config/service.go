package config

import (
	"github.com/kbukum/pipekit/logger"
	"github.com/kbukum/pipekit/validation"
)

// ServiceConfig contains the fields every pipekit binary needs. Binaries
// extend it by embedding it in their own config structs:
//
//	type Config struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Pipeline config.PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
//	}
type ServiceConfig struct {
	Name        string        `yaml:"name" mapstructure:"name" validate:"required"`
	Environment string        `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
}

// ApplyDefaults applies default values to the base configuration.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	c.Logging.ApplyDefaults()
}

// Validate checks the base fields and the logging section.
func (c *ServiceConfig) Validate() error {
	return validation.Validate(c)
}

// GetServiceConfig returns the embedded base config. Structs embedding
// ServiceConfig get it promoted, which satisfies bootstrap.Config.
func (c *ServiceConfig) GetServiceConfig() *ServiceConfig { return c }
