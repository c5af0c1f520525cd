// Package app provides the serving shell shared by every HTTP demo responder:
// logger and error tracking setup, the gin engine and its middleware, the
// http.Server and graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/garyellow/demo-servers/internal/buildinfo"
	"github.com/garyellow/demo-servers/internal/config"
	"github.com/garyellow/demo-servers/internal/logger"
	"github.com/garyellow/demo-servers/internal/sentry"
	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"golang.org/x/sync/errgroup"
)

// Responder is one demo variant. It registers its handlers on the router.
type Responder interface {
	Mount(router *gin.Engine)
}

// Job is a background task that runs until ctx is done.
// A returned error stops the whole application.
type Job func(ctx context.Context) error

type namedJob struct {
	name string
	run  Job
}

// Option configures an Application.
type Option func(*Application)

// WithJob runs job alongside the HTTP server.
func WithJob(name string, job Job) Option {
	return func(a *Application) {
		a.jobs = append(a.jobs, namedJob{name: name, run: job})
	}
}

// Application manages the application lifecycle and dependencies.
type Application struct {
	cfg    *config.Config
	logger *logger.Logger
	router *gin.Engine
	server *http.Server
	jobs   []namedJob
}

// NewLogger builds the process logger from configuration and installs it as
// the slog default so package-level slog calls carry the same fields.
func NewLogger(cfg *config.Config) *logger.Logger {
	log := logger.NewWithOptions(cfg.LogLevel, os.Stdout, logger.Options{
		BetterStackToken:    cfg.BetterStack.Token,
		BetterStackEndpoint: cfg.BetterStack.Endpoint,
	})

	log = log.WithField("service", "demo-servers").WithField("component", string(cfg.Variant))
	if host, err := os.Hostname(); err == nil && host != "" {
		log = log.WithField("instance_id", host)
	}
	slog.SetDefault(log.Logger)
	return log
}

// Initialize wires the responder into a ready-to-run Application.
func Initialize(cfg *config.Config, log *logger.Logger, responder Responder, opts ...Option) (*Application, error) {
	log.WithField("version", buildinfo.Release()).Info("Initializing application...")
	if cfg.BetterStack.Token != "" {
		log.WithField("endpoint", cfg.BetterStack.Endpoint).Info("Better Stack logging enabled")
	}

	hostname, _ := os.Hostname()
	if err := sentry.Initialize(sentry.Config{
		Token:       cfg.Sentry.Token,
		Host:        cfg.Sentry.Host,
		Environment: cfg.Sentry.Environment,
		Release:     buildinfo.Release(),
		ServerName:  hostname,
		SampleRate:  cfg.Sentry.SampleRate,
	}); err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	if sentry.IsEnabled() {
		log.WithField("environment", cfg.Sentry.Environment).Info("Sentry error tracking enabled")
	}

	app := &Application{
		cfg:    cfg,
		logger: log,
		router: newRouter(cfg, log, responder),
	}
	for _, opt := range opts {
		opt(app)
	}

	var handler http.Handler = app.router
	if cfg.CompressResponses {
		handler = gzhttp.GzipHandler(app.router)
		log.Info("Response compression enabled")
	}

	app.server = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: config.HTTPReadHeader,
		ReadTimeout:       config.HTTPRead,
		WriteTimeout:      config.HTTPWrite,
		IdleTimeout:       config.HTTPIdle,
	}

	log.Info("Initialization complete")
	return app, nil
}

// newRouter builds the gin engine with the shared middleware stack and mounts the responder.
func newRouter(cfg *config.Config, log *logger.Logger, responder Responder) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	// "/health/" is an ordinary path for the responders, not a redirect.
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false

	router.Use(gin.Recovery())
	if sentry.IsEnabled() {
		router.Use(sentry.Middleware())
	}
	router.Use(securityHeadersMiddleware())
	router.Use(requestContextMiddleware(string(cfg.Variant)))
	router.Use(loggingMiddleware(log))

	responder.Mount(router)
	return router
}

// Handler returns the root HTTP handler, including optional compression.
func (a *Application) Handler() http.Handler {
	return a.server.Handler
}

// Run serves until ctx is canceled, SIGINT/SIGTERM arrives, the listener
// fails, or a background job returns an error. It then shuts down gracefully.
// A port that cannot be bound is returned immediately.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.server.Addr, err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.WithField("addr", ln.Addr().String()).Info("Starting HTTP server")
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	for _, job := range a.jobs {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					a.logger.WithField("job", job.name).WithField("panic", r).Error("Panic in background job")
					err = fmt.Errorf("%s: panic: %v", job.name, r)
				}
			}()
			a.logger.WithField("job", job.name).Debug("Background job started")
			if err := job.run(gctx); err != nil {
				return fmt.Errorf("%s: %w", job.name, err)
			}
			a.logger.WithField("job", job.name).Debug("Background job stopped")
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		reason := "shutdown requested"
		if cause := context.Cause(gctx); cause != nil && !errors.Is(cause, context.Canceled) {
			reason = cause.Error()
		}
		a.logger.WithField("reason", reason).Info("Shutting down...")
		return a.shutdown()
	})

	return g.Wait()
}

// shutdown stops accepting requests, waits for in-flight ones, then flushes
// error events and buffered logs.
func (a *Application) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	a.logger.Info("Stopping HTTP server...")
	var shutdownErr error
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Error("HTTP server shutdown error")
		shutdownErr = fmt.Errorf("http server shutdown: %w", err)
	}

	if sentry.IsEnabled() && !sentry.Flush(config.SentryFlush) {
		a.logger.Warn("Sentry flush timed out")
	}

	a.logger.Info("Shutdown complete")
	if err := a.logger.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Warn("Logger shutdown timed out")
	}
	return shutdownErr
}
