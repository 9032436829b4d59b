package bootstrap

import (
	"github.com/kbukum/pipekit/config"
)

// Config is the interface constraint for application configuration types.
// Any struct that embeds config.ServiceConfig gets GetServiceConfig promoted
// and only needs ApplyDefaults and Validate of its own.
//
// Example:
//
//	type MyConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Pipeline config.PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
//	}
//
//	app, err := bootstrap.NewApp[*MyConfig](&cfg)
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
