package server

import (
	"time"

	"github.com/kbukum/pipekit/server/middleware"
	"github.com/kbukum/pipekit/validation"
)

// Config holds the settings of the report API server.
type Config struct {
	Enabled         bool                  `yaml:"enabled" mapstructure:"enabled"`
	Host            string                `yaml:"host" mapstructure:"host"`
	Port            int                   `yaml:"port" mapstructure:"port" validate:"gte=0,lte=65535"`
	ReadTimeout     string                `yaml:"read_timeout" mapstructure:"read_timeout" validate:"duration"`
	WriteTimeout    string                `yaml:"write_timeout" mapstructure:"write_timeout" validate:"duration"`
	IdleTimeout     string                `yaml:"idle_timeout" mapstructure:"idle_timeout" validate:"duration"`
	ShutdownTimeout string                `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout" validate:"duration"`
	MaxBodySize     string                `yaml:"max_body_size" mapstructure:"max_body_size" validate:"bytesize"`
	CORS            middleware.CORSConfig `yaml:"cors" mapstructure:"cors"`
}

// ApplyDefaults fills unset fields. Port 0 is kept for disabled servers so
// tests can bind an ephemeral port; enabled ones default to 8080.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 && c.Enabled {
		c.Port = 8080
	}
	for _, d := range []struct {
		field *string
		value string
	}{
		{&c.ReadTimeout, "15s"},
		{&c.WriteTimeout, "15s"},
		{&c.IdleTimeout, "60s"},
		{&c.ShutdownTimeout, "5s"},
		{&c.MaxBodySize, "64KiB"},
	} {
		if *d.field == "" {
			*d.field = d.value
		}
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
	if len(c.CORS.AllowedMethods) == 0 {
		c.CORS.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(c.CORS.AllowedHeaders) == 0 {
		c.CORS.AllowedHeaders = []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader}
	}
}

// Validate checks the server settings.
func (c *Config) Validate() error {
	return validation.Validate(c)
}

// timeout parses one of the duration fields; unset or malformed values
// yield fallback.
func timeout(s string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return fallback
}
