package telemetry

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/CrashBytes/cloudflare-monitor/internal/versions"
)

// Metrics exporters
const (
	ExporterOTLP       = "otlp"
	ExporterPrometheus = "prometheus"
)

const (
	defaultServiceName  = "cloudflare-monitor"
	defaultEndpoint     = "localhost:4318"
	defaultSampling     = 0.05
	defaultPushInterval = time.Minute
)

// Config is the telemetry section of the monitor configuration
type Config struct {
	Enabled        bool   `yaml:"enabled"`
	ServiceName    string `yaml:"serviceName,omitempty"`
	ServiceVersion string `yaml:"serviceVersion,omitempty"`

	// Endpoint is the host:port of an OTLP/HTTP collector
	Endpoint string `yaml:"endpoint,omitempty"`
	Insecure bool   `yaml:"insecure,omitempty"`

	// Headers are sent with every OTLP export, typically collector credentials
	Headers map[string]string `yaml:"headers,omitempty"`

	Tracing *TracingConfig `yaml:"tracing,omitempty"`
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`
}

// TracingConfig controls span export
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`

	// Sampling is the ratio of new traces that are recorded, 0.0 to 1.0.
	// Requests that arrive with a sampled parent are always recorded.
	Sampling *float64 `yaml:"sampling,omitempty"`
}

// MetricsConfig controls metric export
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`

	// Exporter is "otlp" (push, the default) or "prometheus" (scraped on /metrics)
	Exporter string `yaml:"exporter,omitempty"`

	// Interval between OTLP pushes. Ignored by the Prometheus exporter.
	Interval string `yaml:"interval,omitempty"`
}

// TracingEnabled reports whether spans are exported
func (c *Config) TracingEnabled() bool {
	return c != nil && c.Enabled && c.Tracing != nil && c.Tracing.Enabled
}

// MetricsEnabled reports whether metrics are exported
func (c *Config) MetricsEnabled() bool {
	return c != nil && c.Enabled && c.Metrics != nil && c.Metrics.Enabled
}

func (c *Config) serviceName() string {
	if c.ServiceName == "" {
		return defaultServiceName
	}
	return c.ServiceName
}

func (c *Config) serviceVersion() string {
	if c.ServiceVersion == "" {
		return versions.GetVersionInfo().Version
	}
	return c.ServiceVersion
}

func (c *Config) endpoint() string {
	if c.Endpoint == "" {
		return defaultEndpoint
	}
	return c.Endpoint
}

func (c *TracingConfig) sampling() float64 {
	if c == nil || c.Sampling == nil {
		return defaultSampling
	}
	return *c.Sampling
}

func (c *MetricsConfig) exporter() string {
	if c == nil || c.Exporter == "" {
		return ExporterOTLP
	}
	return c.Exporter
}

func (c *MetricsConfig) interval() time.Duration {
	if c == nil || c.Interval == "" {
		return defaultPushInterval
	}
	d, err := time.ParseDuration(c.Interval)
	if err != nil || d <= 0 {
		return defaultPushInterval
	}
	return d
}

// Validate checks the enabled parts of the configuration; a disabled section is never rejected
func (c *Config) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}

	var errs []error
	if strings.Contains(c.Endpoint, "://") {
		errs = append(errs, fmt.Errorf("endpoint must be host:port without a scheme, got %q", c.Endpoint))
	}

	if c.TracingEnabled() {
		if s := c.Tracing.sampling(); s < 0 || s > 1 {
			errs = append(errs, fmt.Errorf("tracing.sampling must be between 0.0 and 1.0, got %g", s))
		}
	}

	if c.MetricsEnabled() {
		switch c.Metrics.exporter() {
		case ExporterOTLP, ExporterPrometheus:
		default:
			errs = append(errs, fmt.Errorf("metrics.exporter must be %q or %q, got %q",
				ExporterOTLP, ExporterPrometheus, c.Metrics.Exporter))
		}
		if c.Metrics.Interval != "" {
			if d, err := time.ParseDuration(c.Metrics.Interval); err != nil || d <= 0 {
				errs = append(errs, fmt.Errorf("metrics.interval must be a positive duration, got %q", c.Metrics.Interval))
			}
		}
	}

	return errors.Join(errs...)
}
