package httpclient

import (
	"fmt"

	"github.com/jmcardon/http4s/config"
	"github.com/jmcardon/http4s/engine"
	"github.com/jmcardon/http4s/observability"
	"github.com/jmcardon/http4s/validation"
)

const (
	defaultName      = "httpclient"
	defaultChunkSize = 1024
)

// Config configures a Component.
type Config struct {
	// Name identifies the client in logs, metrics and spans.
	Name string `yaml:"name" mapstructure:"name"`

	// ChunkSize is the largest chunk the response body yields. Defaults to 1024.
	ChunkSize int `yaml:"chunk_size" mapstructure:"chunk_size" validate:"gte=1"`

	// Engine configures the default transport.
	Engine engine.Config `yaml:"engine" mapstructure:"engine"`

	// Blocking configures the executor response bodies are read on.
	Blocking engine.DispatcherConfig `yaml:"blocking" mapstructure:"blocking"`

	// Tracing, Metrics and Logging select the provider middlewares.
	Tracing bool `yaml:"tracing" mapstructure:"tracing"`
	Metrics bool `yaml:"metrics" mapstructure:"metrics"`
	Logging bool `yaml:"logging" mapstructure:"logging"`

	// Telemetry configures OTLP export for Tracing and Metrics.
	Telemetry observability.Config `yaml:"telemetry" mapstructure:"telemetry"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = defaultName
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = defaultChunkSize
	}
	if c.Engine.Dispatcher.Name == "" {
		c.Engine.Dispatcher.Name = c.Name
	}
	c.Engine.ApplyDefaults()
	if c.Blocking.Name == "" {
		c.Blocking.Name = c.Name + "-blocking"
	}
	c.Blocking.ApplyDefaults()
	c.Telemetry.ApplyDefaults(c.Name)
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("httpclient: %w", err)
	}
	if err := c.Engine.Validate(); err != nil {
		return err
	}
	return c.Telemetry.Validate()
}

// LoadConfig loads a Config named name from YAML, the environment and .env
// files, with defaults applied.
func LoadConfig(name string, opts ...config.LoaderOption) (*Config, error) {
	cfg := &Config{}
	if err := config.LoadConfig(name, cfg, opts...); err != nil {
		return nil, err
	}
	return cfg, nil
}
