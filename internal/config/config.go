// Package config loads the application configuration from a YAML file and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"logogrouper/pkg/transport"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config represents the application configuration structure.
// It contains settings for the environment, the fetch stage, outgoing TLS,
// file locations, grouping, the metrics endpoint and graceful shutdown.
type Config struct {
	// Environment specifies the current running environment (development, production, etc.)
	Environment string `env:"ENVIRONMENT" env-default:"development" yaml:"environment"`
	// LogLevel overrides the environment's default log level when set (debug, info, warn, error)
	LogLevel string `env:"LOG_LEVEL" yaml:"logLevel"`

	// Fetch contains the logo fetch stage configuration
	Fetch struct {
		// Workers is the maximum number of domains fetched concurrently
		Workers int `env:"FETCH_WORKERS" env-default:"128" yaml:"workers"`
		// RequestTimeout bounds every outgoing request, body included
		RequestTimeout time.Duration `env:"FETCH_REQUEST_TIMEOUT" env-default:"10s" yaml:"requestTimeout"`
		// UserAgent is sent with every outgoing request
		UserAgent string `env:"FETCH_USER_AGENT" env-default:"Mozilla/5.0 (compatible; logogrouper/1.0)" yaml:"userAgent"` //nolint: lll
		// CDNBaseURL is the logo CDN endpoint the domain is appended to
		CDNBaseURL string `env:"FETCH_CDN_BASE_URL" env-default:"https://logo.clearbit.com/" yaml:"cdnBaseURL"`
		// CDNRateLimit is the maximum number of CDN requests per second, 0 means unlimited
		CDNRateLimit float64 `env:"FETCH_CDN_RATE_LIMIT" env-default:"0" yaml:"cdnRateLimit"`
		// CDNBurst is the number of CDN requests allowed at once when rate limited
		CDNBurst int `env:"FETCH_CDN_BURST" env-default:"1" yaml:"cdnBurst"`
		// MaxLogoBytes is the largest logo that is saved
		MaxLogoBytes int64 `env:"FETCH_MAX_LOGO_BYTES" env-default:"10485760" yaml:"maxLogoBytes"`
	} `yaml:"fetch"`

	// Transport contains the TLS policy of outgoing connections
	Transport struct {
		// TLSVersion is the only TLS version negotiated: 1.0, 1.1, 1.2 or 1.3
		TLSVersion string `env:"TRANSPORT_TLS_VERSION" env-default:"1.2" yaml:"tlsVersion"`
		// CipherLevel is "default" or "legacy", which also offers weak suites old servers need
		CipherLevel string `env:"TRANSPORT_CIPHER_LEVEL" env-default:"legacy" yaml:"cipherLevel"`
		// InsecureSkipVerify disables certificate verification
		InsecureSkipVerify bool `env:"TRANSPORT_INSECURE_SKIP_VERIFY" env-default:"false" yaml:"insecureSkipVerify"`
		// DialTimeout bounds TCP connection establishment
		DialTimeout time.Duration `env:"TRANSPORT_DIAL_TIMEOUT" env-default:"5s" yaml:"dialTimeout"`
		// TLSHandshakeTimeout bounds the TLS handshake
		TLSHandshakeTimeout time.Duration `env:"TRANSPORT_TLS_HANDSHAKE_TIMEOUT" env-default:"5s" yaml:"tlsHandshakeTimeout"`
	} `yaml:"transport"`

	// Paths contains the input file and output directories
	Paths struct {
		// Input is the domain list (parquet, xlsx, csv or plain text)
		Input string `env:"PATHS_INPUT" env-default:"logos.snappy.parquet" yaml:"input"`
		// LogosDir receives one downloaded logo per domain
		LogosDir string `env:"PATHS_LOGOS_DIR" env-default:"logos" yaml:"logosDir"`
		// GroupsDir receives one directory per group of similar logos
		GroupsDir string `env:"PATHS_GROUPS_DIR" env-default:"groups" yaml:"groupsDir"`
		// ReportsDir receives the text reports
		ReportsDir string `env:"PATHS_REPORTS_DIR" env-default:"." yaml:"reportsDir"`
	} `yaml:"paths"`

	// Group contains the similarity grouping configuration
	Group struct {
		// Threshold links two logos whose fingerprints differ in fewer bits
		Threshold int `env:"GROUP_THRESHOLD" env-default:"19" yaml:"threshold"`
		// KeepStaleGroups keeps group directories of earlier runs instead of removing them
		KeepStaleGroups bool `env:"GROUP_KEEP_STALE_GROUPS" env-default:"false" yaml:"keepStaleGroups"`
	} `yaml:"group"`

	// Metrics contains the optional metrics and profiling endpoint configuration
	Metrics struct {
		// Addr is the listen address; the endpoint is disabled when empty
		Addr string `env:"METRICS_ADDR" yaml:"addr"`
		// Path defines the URL path where metrics are exposed
		Path string `env:"METRICS_PATH" env-default:"/metrics" yaml:"path"`
	} `yaml:"metrics"`

	// GracefulShutdownTimeout is the maximum duration to wait for the metrics server to stop
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_TIMEOUT" env-default:"10s" yaml:"gracefulShutdownTimeout"` //nolint: lll
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Fetch.Workers < 1 {
		return fmt.Errorf("fetch.workers must be at least 1, got %d", c.Fetch.Workers)
	}
	if c.Group.Threshold < 0 {
		return fmt.Errorf("group.threshold must not be negative, got %d", c.Group.Threshold)
	}
	if _, err := c.TLSPolicy(); err != nil {
		return err
	}

	return nil
}

// TLSPolicy returns the transport TLS policy described by the configuration.
func (c *Config) TLSPolicy() (transport.TLSPolicy, error) {
	version, err := transport.ParseVersion(c.Transport.TLSVersion)
	if err != nil {
		return transport.TLSPolicy{}, fmt.Errorf("invalid transport.tlsVersion: %w", err)
	}

	policy := transport.TLSPolicy{
		Version:            version,
		CipherLevel:        transport.CipherLevel(c.Transport.CipherLevel),
		InsecureSkipVerify: c.Transport.InsecureSkipVerify,
	}
	if _, err := policy.Config(); err != nil {
		return transport.TLSPolicy{}, fmt.Errorf("invalid transport.cipherLevel: %w", err)
	}

	return policy, nil
}

// Load receives the path for yaml config file and returns a filled and
// validated Config struct. When the file does not exist, the configuration is
// read from the environment and defaults only.
func Load(configPath string) (*Config, error) {
	var cfg Config

	var err error
	if _, statErr := os.Stat(configPath); errors.Is(statErr, os.ErrNotExist) {
		err = cleanenv.ReadEnv(&cfg)
	} else {
		err = cleanenv.ReadConfig(configPath, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
