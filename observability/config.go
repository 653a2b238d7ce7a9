package observability

import (
	"fmt"
	"time"

	"github.com/jmcardon/http4s/validation"
	"github.com/jmcardon/http4s/version"
)

const (
	defaultEnvironment    = "development"
	defaultMetricInterval = 15 * time.Second
)

// Config configures OTLP/HTTP export of client traces and metrics.
type Config struct {
	ServiceName    string `yaml:"service_name" mapstructure:"service_name"`
	ServiceVersion string `yaml:"service_version" mapstructure:"service_version"`
	Environment    string `yaml:"environment" mapstructure:"environment"`

	// Endpoint is the collector host:port, e.g. "localhost:4318". Empty
	// disables export; spans and metrics then go to the global providers.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure bool   `yaml:"insecure" mapstructure:"insecure"`

	// SampleRate is the fraction of dispatches traced. 0 means 1.
	SampleRate     float64       `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	MetricInterval time.Duration `yaml:"metric_interval" mapstructure:"metric_interval" validate:"gte=0"`
}

// ApplyDefaults fills in zero-value fields. serviceName is used when
// ServiceName is empty.
func (c *Config) ApplyDefaults(serviceName string) {
	if c.ServiceName == "" {
		c.ServiceName = serviceName
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = version.Get().Short()
	}
	if c.Environment == "" {
		c.Environment = defaultEnvironment
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1
	}
	if c.MetricInterval == 0 {
		c.MetricInterval = defaultMetricInterval
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	return nil
}

// Enabled reports whether an exporter endpoint is configured.
func (c *Config) Enabled() bool {
	return c.Endpoint != ""
}
