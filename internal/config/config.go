// Package config provides application configuration management.
// It loads settings from environment variables (and an optional .env file)
// and provides defaults for each responder variant.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Variant identifies which demo responder a binary runs.
type Variant string

const (
	VariantStatic  Variant = "static"
	VariantPodInfo Variant = "podinfo"
	VariantHello   Variant = "hello"
)

// Defaults shared by every variant.
const (
	DefaultHost      = "0.0.0.0"
	DefaultPort      = "8080"
	DefaultBundleKey = "site.tar.zst"

	// DefaultHealthcheckPath is served with 200 by every variant: the static
	// index, the podinfo description and the hello greeting.
	DefaultHealthcheckPath = "/"
)

// Config holds all application configuration
type Config struct {
	Variant Variant

	// Server Configuration
	Host            string
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Static site configuration
	SiteRoot          string // Directory served by the static responder
	CompressResponses bool   // gzip responses for clients that accept it
	DataDir           string // Scratch space for extracted bundles

	Bundle      BundleConfig
	Sentry      SentryConfig
	BetterStack BetterStackConfig
}

// BundleConfig configures fetching the static site from object storage.
type BundleConfig struct {
	Enabled         bool
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Key             string
	PollInterval    time.Duration // 0 disables polling after the initial sync
}

// SentryConfig configures Better Stack Errors via the Sentry SDK.
type SentryConfig struct {
	Token       string
	Host        string
	Environment string
	SampleRate  float64
}

// BetterStackConfig configures remote log shipping.
type BetterStackConfig struct {
	Token    string
	Endpoint string
}

// Load reads configuration for the given variant from environment variables.
// It attempts to load a .env file first; a missing file is not an error.
func Load(variant Variant) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Variant: variant,

		Host:            getEnv(EnvHost, DefaultHost),
		Port:            resolvePort(variant),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, GracefulShutdown),

		SiteRoot:          getEnv(EnvSiteRoot, "."),
		CompressResponses: getBoolEnv(EnvCompressResponses, false),
		DataDir:           getEnv(EnvDataDir, filepath.Join(os.TempDir(), "demo-servers")),

		Bundle: BundleConfig{
			Enabled:         getBoolEnv(EnvBundleEnabled, false),
			Endpoint:        getEnv(EnvBundleEndpoint, ""),
			AccessKeyID:     getEnv(EnvBundleAccessKeyID, ""),
			SecretAccessKey: getEnv(EnvBundleSecretAccessKey, ""),
			Bucket:          getEnv(EnvBundleBucket, ""),
			Key:             getEnv(EnvBundleKey, DefaultBundleKey),
			PollInterval:    getDurationEnv(EnvBundlePollInterval, BundlePollInterval),
		},

		Sentry: SentryConfig{
			Token:       getEnv(EnvSentryToken, ""),
			Host:        getEnv(EnvSentryHost, ""),
			Environment: getEnv(EnvSentryEnvironment, "production"),
			SampleRate:  getFloatEnv(EnvSentrySampleRate, 1.0),
		},

		BetterStack: BetterStackConfig{
			Token:    getEnv(EnvBetterStackToken, ""),
			Endpoint: getEnv(EnvBetterStackEndpoint, ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// resolvePort applies the variant's port lookup order.
// The hello responder honors SERVER_PORT first, like the runtime images it stands in for.
func resolvePort(variant Variant) string {
	if variant == VariantHello {
		if port := getEnv(EnvServerPort, ""); port != "" {
			return port
		}
	}
	return getEnv(EnvPort, DefaultPort)
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	var errs []error

	switch c.Variant {
	case VariantStatic, VariantPodInfo, VariantHello:
	default:
		errs = append(errs, fmt.Errorf("unknown variant %q", c.Variant))
	}

	if port, err := strconv.Atoi(c.Port); err != nil || port < 0 || port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be a number between 0 and 65535, got %q", c.Port))
	}
	if c.Host != "" && net.ParseIP(c.Host) == nil && strings.ContainsAny(c.Host, " /:") {
		errs = append(errs, fmt.Errorf("HOST is not a valid host, got %q", c.Host))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %v", c.ShutdownTimeout))
	}
	if c.Variant == VariantStatic && c.SiteRoot == "" {
		errs = append(errs, errors.New("SITE_ROOT is required"))
	}
	if c.Bundle.Enabled {
		if err := c.Bundle.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("bundle: %w", err))
		}
		if c.DataDir == "" {
			errs = append(errs, errors.New("DATA_DIR is required when BUNDLE_ENABLED is set"))
		}
	}
	if c.Sentry.Token != "" && c.Sentry.Host == "" {
		errs = append(errs, errors.New("SENTRY_HOST is required when SENTRY_TOKEN is set"))
	}

	return errors.Join(errs...)
}

// Validate checks the bundle settings needed to reach object storage.
func (b BundleConfig) Validate() error {
	var errs []error
	if b.Endpoint == "" {
		errs = append(errs, errors.New("BUNDLE_ENDPOINT is required"))
	}
	if b.AccessKeyID == "" {
		errs = append(errs, errors.New("BUNDLE_ACCESS_KEY_ID is required"))
	}
	if b.SecretAccessKey == "" {
		errs = append(errs, errors.New("BUNDLE_SECRET_ACCESS_KEY is required"))
	}
	if b.Bucket == "" {
		errs = append(errs, errors.New("BUNDLE_BUCKET is required"))
	}
	if b.Key == "" {
		errs = append(errs, errors.New("BUNDLE_KEY is required"))
	}
	if b.PollInterval < 0 {
		errs = append(errs, fmt.Errorf("BUNDLE_POLL_INTERVAL cannot be negative, got %v", b.PollInterval))
	}
	return errors.Join(errs...)
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getBoolEnv accepts the strconv.ParseBool spellings; anything else yields the default.
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
