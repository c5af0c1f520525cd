// Package main serves a directory of static files for container smoke tests.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/garyellow/demo-servers/internal/app"
	"github.com/garyellow/demo-servers/internal/bundle"
	"github.com/garyellow/demo-servers/internal/config"
	"github.com/garyellow/demo-servers/internal/logger"
	"github.com/garyellow/demo-servers/internal/r2client"
	"github.com/garyellow/demo-servers/internal/staticsite"
)

func main() {
	cfg, err := config.Load(config.VariantStatic)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := app.NewLogger(cfg)
	if err := run(context.Background(), cfg, log); err != nil {
		log.WithError(err).Error("Static server exited with error")
		_ = log.Shutdown(context.Background())
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	site, err := staticsite.New(cfg.SiteRoot, log)
	if err != nil {
		return err
	}

	var opts []app.Option
	if cfg.Bundle.Enabled {
		syncer, err := newSyncer(ctx, cfg, site, log)
		if err != nil {
			return err
		}
		opts = append(opts, app.WithJob("bundle_poll", syncer.Poll))
	}

	application, err := app.Initialize(cfg, log, site, opts...)
	if err != nil {
		return err
	}

	log.WithField("root", site.Root()).
		WithField("addr", cfg.Addr()).
		Info("Serving static files, press Ctrl+C to stop")
	return application.Run(ctx)
}

// newSyncer connects to object storage and publishes the initial bundle.
// A missing bundle keeps SITE_ROOT in place; polling picks the bundle up once uploaded.
func newSyncer(ctx context.Context, cfg *config.Config, site *staticsite.Site, log *logger.Logger) (*bundle.Syncer, error) {
	client, err := r2client.New(ctx, r2client.Config{
		Endpoint:    cfg.Bundle.Endpoint,
		AccessKeyID: cfg.Bundle.AccessKeyID,
		SecretKey:   cfg.Bundle.SecretAccessKey,
		BucketName:  cfg.Bundle.Bucket,
	})
	if err != nil {
		return nil, fmt.Errorf("bundle storage: %w", err)
	}

	syncer := bundle.NewSyncer(client, site, bundle.Config{
		Key:          cfg.Bundle.Key,
		DataDir:      cfg.DataDir,
		PollInterval: cfg.Bundle.PollInterval,
	}, log)

	if err := syncer.Sync(ctx); err != nil {
		if !errors.Is(err, r2client.ErrNotFound) {
			return nil, fmt.Errorf("initial bundle sync: %w", err)
		}
		log.WithField("key", cfg.Bundle.Key).Warn("Site bundle not found, serving SITE_ROOT until one is uploaded")
	}
	return syncer, nil
}
