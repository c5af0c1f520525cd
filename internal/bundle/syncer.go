// Package bundle keeps a static site in sync with a zstd-compressed tar
// archive held in object storage.
//
// A sync downloads the archive, extracts it into a fresh directory under the
// data dir and publishes that directory as the site root. Polling compares the
// remote ETag and re-syncs only when it changes.
package bundle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/garyellow/demo-servers/internal/config"
	"github.com/garyellow/demo-servers/internal/logger"
	"github.com/garyellow/demo-servers/internal/r2client"
)

// ContentType is the media type bundles are uploaded with.
const ContentType = "application/zstd"

// Store is the object storage surface a Syncer needs. *r2client.Client implements it.
type Store interface {
	Download(ctx context.Context, key string) (io.ReadCloser, string, error)
	HeadObject(ctx context.Context, key string) (string, error)
}

// Publisher receives each freshly extracted site directory.
type Publisher interface {
	SetRoot(dir string) error
}

// Config holds syncer settings.
type Config struct {
	Key          string        // Object key of the bundle
	DataDir      string        // Parent directory for extracted sites
	PollInterval time.Duration // 0 disables polling
}

// Syncer downloads bundles and publishes them.
type Syncer struct {
	store  Store
	site   Publisher
	config Config
	logger *logger.Logger

	mu      sync.Mutex // serializes syncs
	etag    string
	current string
	retired string // previous root, kept until the next publish
}

// NewSyncer creates a Syncer.
func NewSyncer(store Store, site Publisher, cfg Config, log *logger.Logger) *Syncer {
	return &Syncer{
		store:  store,
		site:   site,
		config: cfg,
		logger: log.WithModule("bundle"),
	}
}

// ETag returns the ETag of the bundle currently published.
func (s *Syncer) ETag() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.etag
}

// Sync downloads the bundle, extracts it and publishes the result.
// The directory it replaces stays on disk until the following sync, so
// requests that resolved a file against the old root can still open it.
// Returns r2client.ErrNotFound if the bundle does not exist.
func (s *Syncer) Sync(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, config.BundleDownload)
	defer cancel()

	start := time.Now()
	body, etag, err := s.store.Download(ctx, s.config.Key)
	if err != nil {
		return fmt.Errorf("bundle: download %q: %w", s.config.Key, err)
	}
	defer body.Close()

	if err := os.MkdirAll(s.config.DataDir, 0o755); err != nil {
		return fmt.Errorf("bundle: create data dir: %w", err)
	}
	dir, err := os.MkdirTemp(s.config.DataDir, "site-")
	if err != nil {
		return fmt.Errorf("bundle: create site dir: %w", err)
	}

	files, err := Extract(body, dir)
	if err != nil {
		_ = os.RemoveAll(dir)
		return err
	}
	if err := s.site.SetRoot(dir); err != nil {
		_ = os.RemoveAll(dir)
		return fmt.Errorf("bundle: publish: %w", err)
	}

	stale := s.retired
	s.retired, s.current, s.etag = s.current, dir, etag

	s.logger.WithFields(map[string]any{
		"etag":     etag,
		"dir":      dir,
		"files":    files,
		"duration": time.Since(start).String(),
	}).Info("Site bundle published")

	if stale != "" {
		if err := os.RemoveAll(stale); err != nil {
			s.logger.WithError(err).WithField("dir", stale).Warn("Failed to remove retired site dir")
		}
	}
	return nil
}

// Poll checks the remote ETag every PollInterval until ctx is done.
// It returns nil on cancellation so it can run inside an errgroup.
func (s *Syncer) Poll(ctx context.Context) error {
	if s.config.PollInterval <= 0 {
		return nil
	}

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	s.logger.WithField("interval", s.config.PollInterval.String()).Info("Bundle polling started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Bundle polling stopped")
			return nil
		case <-ticker.C:
			s.pollOnce(ctx)
		}
	}
}

// pollOnce re-syncs when the remote ETag differs. Reports whether a sync ran.
func (s *Syncer) pollOnce(ctx context.Context) bool {
	headCtx, cancel := context.WithTimeout(ctx, config.BundleHeadTimeout)
	remote, err := s.store.HeadObject(headCtx, s.config.Key)
	cancel()
	if err != nil {
		if !errors.Is(err, r2client.ErrNotFound) {
			s.logger.WithError(err).Warn("Bundle poll: head object failed")
		}
		return false
	}

	current := s.ETag()
	if remote == current {
		return false
	}

	s.logger.WithFields(map[string]any{
		"old_etag": current,
		"new_etag": remote,
	}).Info("New site bundle detected")
	if err := s.Sync(ctx); err != nil {
		s.logger.WithError(err).Warn("Bundle re-sync failed")
		return false
	}
	return true
}
