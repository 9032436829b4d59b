package storage

import "github.com/kbukum/pipekit/validation"

// Providers shipped with pipekit. Each registers itself when its package is
// imported.
const (
	ProviderLocal  = "local"
	ProviderS3     = "s3"
	ProviderMemory = "memory"
)

// DefaultRegion is the AWS region used when none is configured.
const DefaultRegion = "us-east-1"

// Config selects and configures a storage backend. Only the fields of the
// selected provider are read.
type Config struct {
	Provider string `yaml:"provider" mapstructure:"provider" validate:"required"`

	// local
	BasePath string `yaml:"base_path" mapstructure:"base_path" validate:"required_if=Provider local"`

	// s3 and S3-compatible stores such as MinIO.
	Bucket         string `yaml:"bucket" mapstructure:"bucket" validate:"required_if=Provider s3"`
	Region         string `yaml:"region" mapstructure:"region"`
	Endpoint       string `yaml:"endpoint" mapstructure:"endpoint" validate:"omitempty,url"`
	AccessKey      string `yaml:"access_key" mapstructure:"access_key"`
	SecretKey      string `yaml:"secret_key" mapstructure:"secret_key"`
	ForcePathStyle bool   `yaml:"force_path_style" mapstructure:"force_path_style"`
}

// ApplyDefaults selects the local provider rooted at ./data when nothing
// else is configured.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderLocal
	}
	if c.Provider == ProviderLocal && c.BasePath == "" {
		c.BasePath = "data"
	}
	if c.Provider == ProviderS3 && c.Region == "" {
		c.Region = DefaultRegion
	}
}

// Validate checks the fields the selected provider needs. Whether the
// provider is registered is checked by New.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
