package logger

import "github.com/kbukum/pipekit/validation"

// Config contains logging configuration.
type Config struct {
	Level  string `yaml:"level" mapstructure:"level" validate:"oneof=trace debug info warn error fatal disabled"`
	Format string `yaml:"format" mapstructure:"format" validate:"oneof=json console pretty"`
	// Output is stderr or stdout. pipecopy writes data to stdout, so keep
	// stderr there.
	Output    string `yaml:"output" mapstructure:"output" validate:"oneof=stdout stderr"`
	NoColor   bool   `yaml:"no_color" mapstructure:"no_color"`
	Timestamp bool   `yaml:"timestamp" mapstructure:"timestamp"`
	Caller    bool   `yaml:"caller" mapstructure:"caller"`
}

// ApplyDefaults logs at info level to stderr in console format, with
// timestamps.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = FormatConsole
	}
	if c.Output == "" {
		c.Output = "stderr"
	}
	c.Timestamp = true
}

// Validate checks level, format and output against their allowed values.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
