// Package config defines environment variable keys for configuration.
package config

//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Server
	EnvHost            = "HOST"
	EnvPort            = "PORT"
	EnvServerPort      = "SERVER_PORT"
	EnvLogLevel        = "LOG_LEVEL"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	// Static site
	EnvSiteRoot          = "SITE_ROOT"
	EnvCompressResponses = "COMPRESS_RESPONSES"
	EnvDataDir           = "DATA_DIR"

	// Pod metadata, injected by the Kubernetes downward API
	EnvPodName  = "POD_NAME"
	EnvPodIP    = "POD_IP"
	EnvNodeName = "NODE_NAME"

	// Environment checker
	EnvPython     = "PYTHON"
	EnvVirtualEnv = "VIRTUAL_ENV"

	// Health probe
	EnvHealthcheckPath = "HEALTHCHECK_PATH"

	// Site bundle feature
	EnvBundleEnabled         = "BUNDLE_ENABLED"
	EnvBundleEndpoint        = "BUNDLE_ENDPOINT"
	EnvBundleAccessKeyID     = "BUNDLE_ACCESS_KEY_ID"
	EnvBundleSecretAccessKey = "BUNDLE_SECRET_ACCESS_KEY"
	EnvBundleBucket          = "BUNDLE_BUCKET"
	EnvBundleKey             = "BUNDLE_KEY"
	EnvBundlePollInterval    = "BUNDLE_POLL_INTERVAL"

	// Sentry feature
	EnvSentryToken       = "SENTRY_TOKEN"
	EnvSentryHost        = "SENTRY_HOST"
	EnvSentryEnvironment = "SENTRY_ENVIRONMENT"
	EnvSentrySampleRate  = "SENTRY_SAMPLE_RATE"

	// Better Stack feature
	EnvBetterStackToken    = "BETTERSTACK_TOKEN"
	EnvBetterStackEndpoint = "BETTERSTACK_ENDPOINT"
)
