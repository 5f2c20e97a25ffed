// Package config provides configuration loading and management for the monitor.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/CrashBytes/cloudflare-monitor/internal/cloudflare"
	"github.com/CrashBytes/cloudflare-monitor/internal/filtering"
	"github.com/CrashBytes/cloudflare-monitor/internal/telemetry"
)

// EnvPrefix is the prefix of every environment variable the monitor reads
const EnvPrefix = "CFMON"

const (
	// APITokenEnvVar holds the Cloudflare API token when no token file is configured
	APITokenEnvVar = EnvPrefix + "_CLOUDFLARE_API_TOKEN"

	// DatabasePasswordEnvVar holds the database password when no password file is configured
	DatabasePasswordEnvVar = EnvPrefix + "_DATABASE_PASSWORD"
)

// Defaults applied when a setting is omitted
const (
	DefaultPollInterval      = 60 * time.Second
	DefaultPollConcurrency   = 5
	DefaultCacheMaxSize      = 1000
	DefaultCacheTTL          = 30 * time.Second
	DefaultSweepInterval     = 5 * time.Minute
	DefaultMaxConnections    = 1000
	DefaultHeartbeatInterval = 30 * time.Second
	DefaultEventBufferSize   = 32
	DefaultRateLimitBurst    = 5
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		// Validate the path to prevent path traversal attacks
		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	Cloudflare CloudflareConfig  `yaml:"cloudflare"`
	Polling    *PollingConfig    `yaml:"polling,omitempty"`
	Cache      *CacheConfig      `yaml:"cache,omitempty"`
	Events     *EventsConfig     `yaml:"events,omitempty"`
	Database   *DatabaseConfig   `yaml:"database,omitempty"`
	Telemetry  *telemetry.Config `yaml:"telemetry,omitempty"`
}

// CloudflareConfig defines how the Cloudflare API is reached
type CloudflareConfig struct {
	// AccountID is the Cloudflare account whose Pages projects are monitored
	AccountID string `yaml:"accountId"`

	// APITokenFile is the path to a file containing the API token.
	// When empty the token is read from CFMON_CLOUDFLARE_API_TOKEN.
	APITokenFile string `yaml:"apiTokenFile,omitempty"`

	// BaseURL overrides the API root (defaults to the public v4 API)
	BaseURL string `yaml:"baseUrl,omitempty"`

	// Timeout bounds a single HTTP request (e.g., "30s")
	Timeout string `yaml:"timeout,omitempty"`

	// MaxRetries is the number of retries after the first attempt
	MaxRetries *int `yaml:"maxRetries,omitempty"`

	// BaseDelay and MaxDelay shape the exponential backoff (e.g., "1s", "30s")
	BaseDelay string `yaml:"baseDelay,omitempty"`
	MaxDelay  string `yaml:"maxDelay,omitempty"`

	// RequestsPerSecond limits outgoing requests; zero disables limiting
	RequestsPerSecond float64 `yaml:"requestsPerSecond,omitempty"`

	// Burst is the rate limiter burst size
	Burst int `yaml:"burst,omitempty"`

	// DeploymentPages is how many pages of deployments are read per project
	DeploymentPages int `yaml:"deploymentPages,omitempty"`
}

// PollingConfig defines the polling schedule
type PollingConfig struct {
	// Interval is the wait between the end of one cycle and the start of the next
	Interval string `yaml:"interval,omitempty"`

	// Jitter adds a random delay in [0, jitter) to every wait
	Jitter string `yaml:"jitter,omitempty"`

	// Concurrency bounds parallel deployment fetches; zero means unbounded
	Concurrency *int `yaml:"concurrency,omitempty"`

	// CycleTimeout bounds a whole cycle; empty means no bound
	CycleTimeout string `yaml:"cycleTimeout,omitempty"`

	// Include and Exclude are glob patterns over project names. Exclude wins.
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
}

// CacheConfig defines the read caches
type CacheConfig struct {
	MaxSize       int    `yaml:"maxSize,omitempty"`
	TTL           string `yaml:"ttl,omitempty"`
	SweepInterval string `yaml:"sweepInterval,omitempty"`
}

// EventsConfig defines the event stream hub
type EventsConfig struct {
	MaxConnections    int    `yaml:"maxConnections,omitempty"`
	HeartbeatInterval string `yaml:"heartbeatInterval,omitempty"`
	StaleAfter        string `yaml:"staleAfter,omitempty"`
	BufferSize        int    `yaml:"bufferSize,omitempty"`
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname or IP address
	Host string `yaml:"host"`

	// Port is the database server port
	Port int `yaml:"port"`

	// User is the database username
	User string `yaml:"user"`

	// PasswordFile is the path to a file containing the database password
	// This is the recommended approach for production deployments
	// The file should contain only the password with optional trailing whitespace
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Database is the database name
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxOpenConns is the maximum number of open connections to the database
	MaxOpenConns int32 `yaml:"maxOpenConns,omitempty"`

	// MaxIdleConns is the minimum number of idle connections kept in the pool
	MaxIdleConns int32 `yaml:"maxIdleConns,omitempty"`

	// ConnMaxLifetime is the maximum lifetime of a connection (e.g., "1h", "30m")
	ConnMaxLifetime string `yaml:"connMaxLifetime,omitempty"`
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	// Read the entire file into memory
	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML content
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	// Validate the config
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := c.Cloudflare.validate(); err != nil {
		return err
	}
	if err := c.Polling.validate(); err != nil {
		return err
	}
	if err := c.Cache.validate(); err != nil {
		return err
	}
	if err := c.Events.validate(); err != nil {
		return err
	}
	if err := c.Database.validate(); err != nil {
		return err
	}
	if c.Telemetry != nil {
		if err := c.Telemetry.Validate(); err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
	}

	return nil
}

func (c *CloudflareConfig) validate() error {
	if c.AccountID == "" {
		return fmt.Errorf("cloudflare.accountId is required")
	}
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("cloudflare.baseUrl must be an absolute URL: %s", c.BaseURL)
		}
	}
	if c.MaxRetries != nil && *c.MaxRetries < 0 {
		return fmt.Errorf("cloudflare.maxRetries must not be negative")
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("cloudflare.requestsPerSecond must not be negative")
	}
	if c.Burst < 0 || c.DeploymentPages < 0 {
		return fmt.Errorf("cloudflare.burst and cloudflare.deploymentPages must not be negative")
	}
	return validateDurations("cloudflare", map[string]string{
		"timeout":   c.Timeout,
		"baseDelay": c.BaseDelay,
		"maxDelay":  c.MaxDelay,
	})
}

func (p *PollingConfig) validate() error {
	if p == nil {
		return nil
	}
	if p.Concurrency != nil && *p.Concurrency < 0 {
		return fmt.Errorf("polling.concurrency must not be negative")
	}
	if _, err := p.ProjectFilter(); err != nil {
		return fmt.Errorf("polling.%w", err)
	}
	return validateDurations("polling", map[string]string{
		"interval":     p.Interval,
		"jitter":       p.Jitter,
		"cycleTimeout": p.CycleTimeout,
	})
}

func (c *CacheConfig) validate() error {
	if c == nil {
		return nil
	}
	if c.MaxSize < 0 {
		return fmt.Errorf("cache.maxSize must not be negative")
	}
	return validateDurations("cache", map[string]string{
		"ttl":           c.TTL,
		"sweepInterval": c.SweepInterval,
	})
}

func (e *EventsConfig) validate() error {
	if e == nil {
		return nil
	}
	if e.MaxConnections < 0 || e.BufferSize < 0 {
		return fmt.Errorf("events.maxConnections and events.bufferSize must not be negative")
	}
	return validateDurations("events", map[string]string{
		"heartbeatInterval": e.HeartbeatInterval,
		"staleAfter":        e.StaleAfter,
	})
}

func (d *DatabaseConfig) validate() error {
	if d == nil {
		return nil
	}
	if d.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if d.Port <= 0 {
		return fmt.Errorf("database.port is required")
	}
	if d.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if d.Database == "" {
		return fmt.Errorf("database.database is required")
	}
	return validateDurations("database", map[string]string{
		"connMaxLifetime": d.ConnMaxLifetime,
	})
}

// validateDurations checks that every non-empty value parses as a positive duration
func validateDurations(section string, values map[string]string) error {
	for key, value := range values {
		if value == "" {
			continue
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%s.%s: invalid duration format '%s': %w", section, key, value, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s.%s must be positive, got %s", section, key, value)
		}
	}
	return nil
}

// durationOr parses value, returning fallback when it is empty or invalid
func durationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// readSecret returns the trimmed content of path, or the value of envVar when path is empty
func readSecret(path, envVar, what string) (string, error) {
	if path != "" {
		// Use filepath.Clean to prevent path traversal attacks
		cleanPath := filepath.Clean(path)

		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read %s from file %s: %w", what, path, err)
		}

		// Trim whitespace (including newlines) from file content
		return strings.TrimSpace(string(data)), nil
	}

	if value := os.Getenv(envVar); value != "" {
		return value, nil
	}

	return "", fmt.Errorf("no %s configured: set the file path or the %s environment variable", what, envVar)
}

// GetAPIToken returns the API token from APITokenFile, falling back to CFMON_CLOUDFLARE_API_TOKEN
func (c *CloudflareConfig) GetAPIToken() (string, error) {
	return readSecret(c.APITokenFile, APITokenEnvVar, "cloudflare api token")
}

// GetBaseURL returns the API root
func (c *CloudflareConfig) GetBaseURL() string {
	if c.BaseURL == "" {
		return cloudflare.DefaultBaseURL
	}
	return c.BaseURL
}

// GetTimeout returns the per-request timeout
func (c *CloudflareConfig) GetTimeout() time.Duration {
	return durationOr(c.Timeout, cloudflare.DefaultTimeout)
}

// GetRetryPolicy returns the configured retry schedule
func (c *CloudflareConfig) GetRetryPolicy() cloudflare.RetryPolicy {
	p := cloudflare.DefaultRetryPolicy
	if c.MaxRetries != nil {
		p.MaxRetries = *c.MaxRetries
	}
	p.BaseDelay = durationOr(c.BaseDelay, p.BaseDelay)
	p.MaxDelay = durationOr(c.MaxDelay, p.MaxDelay)
	return p
}

// GetBurst returns the rate limiter burst
func (c *CloudflareConfig) GetBurst() int {
	if c.Burst == 0 {
		return DefaultRateLimitBurst
	}
	return c.Burst
}

// GetDeploymentPages returns how many deployment pages are read per project
func (c *CloudflareConfig) GetDeploymentPages() int {
	if c.DeploymentPages == 0 {
		return 1
	}
	return c.DeploymentPages
}

// GetInterval returns the polling interval
func (p *PollingConfig) GetInterval() time.Duration {
	if p == nil {
		return DefaultPollInterval
	}
	return durationOr(p.Interval, DefaultPollInterval)
}

// GetJitter returns the polling jitter, zero when unset
func (p *PollingConfig) GetJitter() time.Duration {
	if p == nil {
		return 0
	}
	return durationOr(p.Jitter, 0)
}

// GetConcurrency returns the deployment fetch concurrency
func (p *PollingConfig) GetConcurrency() int {
	if p == nil || p.Concurrency == nil {
		return DefaultPollConcurrency
	}
	return *p.Concurrency
}

// GetCycleTimeout returns the per-cycle deadline, zero when unbounded
func (p *PollingConfig) GetCycleTimeout() time.Duration {
	if p == nil {
		return 0
	}
	return durationOr(p.CycleTimeout, 0)
}

// ProjectFilter compiles the include and exclude patterns. It returns a nil filter, which
// allows every project, when no patterns are configured.
func (p *PollingConfig) ProjectFilter() (*filtering.ProjectFilter, error) {
	if p == nil || (len(p.Include) == 0 && len(p.Exclude) == 0) {
		return nil, nil
	}
	return filtering.NewProjectFilter(p.Include, p.Exclude)
}

// GetMaxSize returns the capacity of each read cache
func (c *CacheConfig) GetMaxSize() int {
	if c == nil || c.MaxSize == 0 {
		return DefaultCacheMaxSize
	}
	return c.MaxSize
}

// GetTTL returns the cache entry lifetime
func (c *CacheConfig) GetTTL() time.Duration {
	if c == nil {
		return DefaultCacheTTL
	}
	return durationOr(c.TTL, DefaultCacheTTL)
}

// GetSweepInterval returns how often expired cache entries are removed
func (c *CacheConfig) GetSweepInterval() time.Duration {
	if c == nil {
		return DefaultSweepInterval
	}
	return durationOr(c.SweepInterval, DefaultSweepInterval)
}

// GetMaxConnections returns the subscriber cap
func (e *EventsConfig) GetMaxConnections() int {
	if e == nil || e.MaxConnections == 0 {
		return DefaultMaxConnections
	}
	return e.MaxConnections
}

// GetHeartbeatInterval returns the heartbeat period
func (e *EventsConfig) GetHeartbeatInterval() time.Duration {
	if e == nil {
		return DefaultHeartbeatInterval
	}
	return durationOr(e.HeartbeatInterval, DefaultHeartbeatInterval)
}

// GetStaleAfter returns the liveness threshold, twice the heartbeat by default
func (e *EventsConfig) GetStaleAfter() time.Duration {
	fallback := 2 * e.GetHeartbeatInterval()
	if e == nil {
		return fallback
	}
	return durationOr(e.StaleAfter, fallback)
}

// GetBufferSize returns the per-subscriber buffer
func (e *EventsConfig) GetBufferSize() int {
	if e == nil || e.BufferSize == 0 {
		return DefaultEventBufferSize
	}
	return e.BufferSize
}

// GetPassword returns the database password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from CFMON_DATABASE_PASSWORD environment variable
//
// The password from file will have leading/trailing whitespace trimmed.
func (d *DatabaseConfig) GetPassword() (string, error) {
	return readSecret(d.PasswordFile, DatabasePasswordEnvVar, "database password")
}

// GetConnectionString builds a PostgreSQL connection string with proper password handling.
// The password is URL-escaped to handle special characters safely.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	// URL-escape the password to handle special characters
	escapedPassword := url.QueryEscape(password)

	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User,
		escapedPassword,
		d.Host,
		d.Port,
		d.Database,
		sslMode,
	)

	return connString, nil
}

// GetConnMaxLifetime returns the pool connection lifetime, zero to keep the pgxpool default
func (d *DatabaseConfig) GetConnMaxLifetime() time.Duration {
	return durationOr(d.ConnMaxLifetime, 0)
}
