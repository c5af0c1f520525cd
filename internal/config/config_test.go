package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every key Load reads so host settings cannot leak into tests.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvHost, EnvPort, EnvServerPort, EnvLogLevel, EnvShutdownTimeout,
		EnvSiteRoot, EnvCompressResponses, EnvDataDir,
		EnvBundleEnabled, EnvBundleEndpoint, EnvBundleAccessKeyID, EnvBundleSecretAccessKey,
		EnvBundleBucket, EnvBundleKey, EnvBundlePollInterval,
		EnvSentryToken, EnvSentryHost, EnvSentryEnvironment, EnvSentrySampleRate,
		EnvBetterStackToken, EnvBetterStackEndpoint,
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(VariantStatic)
	require.NoError(t, err)

	assert.Equal(t, VariantStatic, cfg.Variant)
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, GracefulShutdown, cfg.ShutdownTimeout)
	assert.Equal(t, ".", cfg.SiteRoot)
	assert.False(t, cfg.CompressResponses)
	assert.False(t, cfg.Bundle.Enabled)
	assert.Equal(t, "site.tar.zst", cfg.Bundle.Key)
	assert.Empty(t, cfg.Sentry.Token)
}

func TestLoad_PortOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvPort, "9090")

	cfg, err := Load(VariantPodInfo)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
}

func TestLoad_HelloPrefersServerPort(t *testing.T) {
	tests := []struct {
		name       string
		port       string
		serverPort string
		variant    Variant
		want       string
	}{
		{"hello uses SERVER_PORT", "9000", "3000", VariantHello, "3000"},
		{"hello falls back to PORT", "9000", "", VariantHello, "9000"},
		{"hello default", "", "", VariantHello, "8080"},
		{"static ignores SERVER_PORT", "", "3000", VariantStatic, "8080"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(EnvPort, tt.port)
			t.Setenv(EnvServerPort, tt.serverPort)

			cfg, err := Load(tt.variant)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Port)
		})
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvShutdownTimeout, "soon")
	t.Setenv(EnvCompressResponses, "maybe")
	t.Setenv(EnvSentrySampleRate, "lots")

	cfg, err := Load(VariantStatic)
	require.NoError(t, err)
	assert.Equal(t, GracefulShutdown, cfg.ShutdownTimeout)
	assert.False(t, cfg.CompressResponses)
	assert.InDelta(t, 1.0, cfg.Sentry.SampleRate, 1e-9)
}

func TestLoad_BundleRequiresCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvBundleEnabled, "true")

	_, err := Load(VariantStatic)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BUNDLE_ENDPOINT")
	assert.Contains(t, err.Error(), "BUNDLE_BUCKET")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Variant:         VariantStatic,
			Host:            DefaultHost,
			Port:            DefaultPort,
			ShutdownTimeout: time.Second,
			SiteRoot:        "www",
			DataDir:         "/tmp/data",
		}
	}

	tests := []struct {
		name        string
		mutate      func(*Config)
		errContains string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown variant", func(c *Config) { c.Variant = "ftp" }, "unknown variant"},
		{"non-numeric port", func(c *Config) { c.Port = "http" }, "PORT"},
		{"port out of range", func(c *Config) { c.Port = "70000" }, "PORT"},
		{"bad host", func(c *Config) { c.Host = "not a host" }, "HOST"},
		{"zero shutdown", func(c *Config) { c.ShutdownTimeout = 0 }, "SHUTDOWN_TIMEOUT"},
		{"static needs root", func(c *Config) { c.SiteRoot = "" }, "SITE_ROOT"},
		{"podinfo needs no root", func(c *Config) { c.Variant = VariantPodInfo; c.SiteRoot = "" }, ""},
		{"sentry needs host", func(c *Config) { c.Sentry.Token = "tok" }, "SENTRY_HOST"},
		{"negative poll", func(c *Config) {
			c.Bundle = BundleConfig{
				Enabled: true, Endpoint: "https://r2", AccessKeyID: "a", SecretAccessKey: "s",
				Bucket: "b", Key: "k", PollInterval: -time.Second,
			}
		}, "BUNDLE_POLL_INTERVAL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}
