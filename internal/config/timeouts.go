// Package config provides centralized timeout constants for the application.
//
// The demo responders answer from local disk or memory, so HTTP timeouts are
// short. Bundle downloads talk to object storage and get more room.
package config

import "time"

// HTTP server timeouts
const (
	// HTTPReadHeader bounds how long a client may take to send request headers.
	HTTPReadHeader = 5 * time.Second

	// HTTPRead is the server read timeout. Fixture requests carry no body.
	HTTPRead = 10 * time.Second

	// HTTPWrite is the server write timeout; large static assets need headroom.
	HTTPWrite = 60 * time.Second

	// HTTPIdle is the idle timeout for keep-alive connections.
	HTTPIdle = 120 * time.Second
)

// Graceful shutdown
const (
	// GracefulShutdown is the default timeout for graceful server shutdown.
	// Kubernetes sends SIGKILL 30s after SIGTERM by default.
	GracefulShutdown = 25 * time.Second

	// SentryFlush bounds how long shutdown waits for queued error events.
	SentryFlush = 2 * time.Second
)

// Site bundle
const (
	// BundleDownload is the timeout for fetching and extracting one bundle.
	BundleDownload = 5 * time.Minute

	// BundlePollInterval is the default interval between ETag checks.
	BundlePollInterval = 5 * time.Minute

	// BundleHeadTimeout bounds a single ETag check.
	BundleHeadTimeout = 15 * time.Second
)

// Tooling
const (
	// HealthcheckRequest is the probe timeout. Docker's default HEALTHCHECK timeout is 30s.
	HealthcheckRequest = 8 * time.Second

	// CommandTimeout bounds each subprocess the environment checker runs.
	CommandTimeout = 60 * time.Second

	// VerifyRequest bounds each request the fixture verifier sends.
	VerifyRequest = 10 * time.Second
)
