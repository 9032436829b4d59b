package config

import (
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/kbukum/pipekit/buffer"
	"github.com/kbukum/pipekit/logger"
)

type appConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Pipeline      PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Telemetry     TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
}

func (c *appConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Pipeline.ApplyDefaults()
	c.Telemetry.ApplyDefaults()
}

func (c *appConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Pipeline.Validate(); err != nil {
		return err
	}
	return c.Telemetry.Validate()
}

type mockFS struct {
	files  map[string]bool
	loaded []string
}

func (m *mockFS) Exists(path string) bool { return m.files[path] }

func (m *mockFS) LoadEnv(path string) error {
	m.loaded = append(m.loaded, path)
	return nil
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestServiceConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr string
	}{
		{"defaults", ServiceConfig{Name: "svc"}, ""},
		{"production", ServiceConfig{Name: "svc", Environment: "production"}, ""},
		{"missing name", ServiceConfig{}, "name: is required"},
		{"bad environment", ServiceConfig{Name: "svc", Environment: "qa"}, "environment: must be one of"},
		{"bad log level", ServiceConfig{Name: "svc", Logging: logger.Config{Level: "loud"}}, "logging.level: must be one of"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.ApplyDefaults()
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestPipelineConfig_Defaults(t *testing.T) {
	var c PipelineConfig
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	if got := c.Sizing(); got != buffer.DefaultSizing {
		t.Errorf("sizing = %+v, want %+v", got, buffer.DefaultSizing)
	}
	if c.Interval() != 250*time.Millisecond {
		t.Errorf("interval = %v", c.Interval())
	}
}

func TestPipelineConfig_Options(t *testing.T) {
	c := PipelineConfig{ItemCapacity: 8, ByteCapacity: "4KiB", Serial: true, Tracing: true}
	c.ApplyDefaults()
	if got := c.Sizing(); got.Items != 8 || got.Bytes != 4096 {
		t.Errorf("sizing = %+v", got)
	}
	if n := len(c.Options(nil, nil)); n != 3 {
		t.Errorf("got %d options, want 3", n)
	}
}

func TestPipelineConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  PipelineConfig
		want string
	}{
		{"byte size", PipelineConfig{ItemCapacity: 1, ByteCapacity: "lots", ReportInterval: "1s"}, "byte_capacity"},
		{"interval", PipelineConfig{ItemCapacity: 1, ByteCapacity: "1KB", ReportInterval: "soon"}, "report_interval"},
		{"items", PipelineConfig{ItemCapacity: -1, ByteCapacity: "1KB", ReportInterval: "1s"}, "item_capacity"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestTelemetryConfig(t *testing.T) {
	c := TelemetryConfig{Endpoint: "localhost:4317"}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	if !c.Enabled() {
		t.Error("expected telemetry to be enabled")
	}
	svc := ServiceConfig{Name: "pipecopy", Environment: "staging"}
	if tc := c.Tracer(svc); tc.ServiceName != "pipecopy" || tc.SampleRate != 1 {
		t.Errorf("unexpected tracer config %+v", tc)
	}
	if mc := c.Meter(svc); mc.Interval != 15*time.Second || mc.Environment != "staging" {
		t.Errorf("unexpected meter config %+v", mc)
	}

	c.SampleRate = 2
	if err := c.Validate(); err == nil {
		t.Error("expected sample rate above 1 to fail")
	}
}

func TestLoadConfig_YAML(t *testing.T) {
	path := writeConfig(t, `
name: pipecopy
environment: staging
logging:
  level: debug
pipeline:
  item_capacity: 32
  byte_capacity: 64KiB
  serial: true
`)
	var cfg appConfig
	if err := LoadConfig("pipecopy", &cfg, WithConfigFile(path)); err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "pipecopy" || cfg.Environment != "staging" {
		t.Errorf("unexpected service config %+v", cfg.ServiceConfig)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format == "" {
		t.Errorf("unexpected logging config %+v", cfg.Logging)
	}
	if !cfg.Pipeline.Serial || cfg.Pipeline.Sizing().Bytes != 64*1024 {
		t.Errorf("unexpected pipeline config %+v", cfg.Pipeline)
	}
	if cfg.Pipeline.ReportInterval != "250ms" {
		t.Errorf("report interval default not applied: %q", cfg.Pipeline.ReportInterval)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	path := writeConfig(t, "name: pipecopy\npipeline:\n  item_capacity: 32\n")
	t.Setenv("PIPECOPY_PIPELINE_ITEM_CAPACITY", "7")
	t.Setenv("PIPECOPY_ENVIRONMENT", "production")
	t.Setenv("OTHER_ENVIRONMENT", "qa")

	var cfg appConfig
	if err := LoadConfig("pipecopy", &cfg, WithConfigFile(path)); err != nil {
		t.Fatal(err)
	}
	if cfg.Pipeline.ItemCapacity != 7 {
		t.Errorf("item capacity = %d, want 7", cfg.Pipeline.ItemCapacity)
	}
	if cfg.Environment != "production" {
		t.Errorf("environment = %q, want production", cfg.Environment)
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	path := writeConfig(t, "name: pipecopy\npipeline:\n  byte_capacity: plenty\n")
	var cfg appConfig
	err := LoadConfig("pipecopy", &cfg, WithConfigFile(path))
	if err == nil || !strings.Contains(err.Error(), "invalid config for service pipecopy") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	t.Setenv("PIPECOPY_NAME", "from-env")
	var cfg appConfig
	err := LoadConfig("pipecopy", &cfg, WithConfigFile(filepath.Join(t.TempDir(), "nope.yml")))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "from-env" {
		t.Errorf("name = %q", cfg.Name)
	}
}

func TestResolver_ResolveFiles(t *testing.T) {
	t.Run("explicit paths win", func(t *testing.T) {
		r := &Resolver{FileSystem: &mockFS{}}
		got := r.ResolveFiles("svc", LoaderConfig{ConfigFile: "a.yml", EnvFile: "b.env"})
		if got.ConfigFile != "a.yml" || got.EnvFile != "b.env" {
			t.Errorf("unexpected %+v", got)
		}
	})

	t.Run("search order", func(t *testing.T) {
		fs := &mockFS{files: map[string]bool{
			"./config.yml":         true,
			"./cmd/svc/config.yml": true,
			"./config/.env":        true,
		}}
		got := (&Resolver{FileSystem: fs}).ResolveFiles("svc", LoaderConfig{})
		if got.ConfigFile != "./cmd/svc/config.yml" {
			t.Errorf("config file = %q", got.ConfigFile)
		}
		if got.EnvFile != "./config/.env" {
			t.Errorf("env file = %q", got.EnvFile)
		}
	})

	t.Run("nothing found", func(t *testing.T) {
		got := (&Resolver{FileSystem: &mockFS{}}).ResolveFiles("svc", LoaderConfig{})
		if got.ConfigFile != "" || got.EnvFile != "" {
			t.Errorf("unexpected %+v", got)
		}
	})
}

func TestLoadConfig_LoadsEnvFile(t *testing.T) {
	fs := &mockFS{files: map[string]bool{".env.svc": true}}
	var cfg ServiceConfig
	if err := LoadConfig("svc", &cfg, WithFileSystem(fs)); err == nil {
		t.Fatal("expected missing name to fail validation")
	}
	if !slices.Equal(fs.loaded, []string{".env.svc"}) {
		t.Errorf("loaded %v", fs.loaded)
	}
}

func TestBindEnv(t *testing.T) {
	type cors struct {
		MaxAge  int      `mapstructure:"max_age"`
		Origins []string `mapstructure:"origins"`
	}
	type server struct {
		Port int  `mapstructure:"port"`
		CORS cors `mapstructure:"cors"`
	}
	type target struct {
		ServiceConfig `mapstructure:",squash"`
		Server        *server `mapstructure:"server"`
		Ignored       string  `mapstructure:"-"`
		Started       time.Time
	}
	t.Setenv("SVC_NAME", "env-name")
	t.Setenv("SVC_SERVER_CORS_MAX_AGE", "600")
	t.Setenv("SVC_SERVER_CORS_ORIGINS", "a,b")
	t.Setenv("SVC_IGNORED", "x")

	v := viper.New()
	v.SetEnvPrefix("SVC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindEnv(v, reflect.TypeOf(&target{}), "")

	keys := v.AllKeys()
	for _, want := range []string{"name", "environment", "logging.level", "server.port", "server.cors.max_age", "started"} {
		if !slices.Contains(keys, want) {
			t.Errorf("key %q not bound; got %v", want, keys)
		}
	}
	if slices.Contains(keys, "ignored") {
		t.Error("fields tagged - must not be bound")
	}

	var got target
	if err := v.Unmarshal(&got); err != nil {
		t.Fatal(err)
	}
	if got.Name != "env-name" || got.Server == nil || got.Server.CORS.MaxAge != 600 {
		t.Errorf("unexpected %+v", got)
	}
	if !slices.Equal(got.Server.CORS.Origins, []string{"a", "b"}) {
		t.Errorf("origins = %v", got.Server.CORS.Origins)
	}
}
