// Package main packs a site directory into a zstd-compressed tar bundle and
// uploads it to the bucket the static server syncs from.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/garyellow/demo-servers/internal/bundle"
	"github.com/garyellow/demo-servers/internal/config"
	"github.com/garyellow/demo-servers/internal/logger"
	"github.com/garyellow/demo-servers/internal/r2client"
	"github.com/joho/godotenv"
)

// CLI flags
var (
	dirFlag = flag.String("dir", "", "Directory to pack (default SITE_ROOT, then .)")
	keyFlag = flag.String("key", "", "Object key to upload to (default BUNDLE_KEY)")
	outFlag = flag.String("out", "", "Write the bundle to this file instead of uploading")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()

	log := logger.NewWithWriter(os.Getenv(config.EnvLogLevel), os.Stderr)

	dir := firstNonEmpty(*dirFlag, os.Getenv(config.EnvSiteRoot), ".")
	start := time.Now()

	if *outFlag != "" {
		files, err := packToFile(dir, *outFlag)
		if err != nil {
			log.WithError(err).Error("Failed to write bundle")
			os.Exit(1)
		}
		fmt.Printf("✅ Packed %d files from %s into %s (%v)\n", files, dir, *outFlag, time.Since(start).Round(time.Millisecond))
		return
	}

	bundleCfg := config.BundleConfig{
		Endpoint:        os.Getenv(config.EnvBundleEndpoint),
		AccessKeyID:     os.Getenv(config.EnvBundleAccessKeyID),
		SecretAccessKey: os.Getenv(config.EnvBundleSecretAccessKey),
		Bucket:          os.Getenv(config.EnvBundleBucket),
		Key:             firstNonEmpty(*keyFlag, os.Getenv(config.EnvBundleKey), config.DefaultBundleKey),
	}
	if err := bundleCfg.Validate(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Invalid bundle config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.BundleDownload)
	defer cancel()

	etag, files, err := upload(ctx, bundleCfg, dir)
	if err != nil {
		log.WithError(err).Error("Failed to upload bundle")
		os.Exit(1)
	}
	log.WithField("key", bundleCfg.Key).WithField("etag", etag).Info("Bundle uploaded")
	fmt.Printf("✅ Uploaded %d files from %s to %s/%s (etag %s, %v)\n",
		files, dir, bundleCfg.Bucket, bundleCfg.Key, etag, time.Since(start).Round(time.Millisecond))
}

// packToFile writes the bundle for dir to path.
func packToFile(dir, path string) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}
	files, err := bundle.Pack(f, dir)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close %s: %w", path, closeErr)
	}
	if err != nil {
		_ = os.Remove(path)
		return 0, err
	}
	return files, nil
}

// upload packs dir into a temp file, then streams it to object storage.
func upload(ctx context.Context, cfg config.BundleConfig, dir string) (string, int, error) {
	client, err := r2client.New(ctx, r2client.Config{
		Endpoint:    cfg.Endpoint,
		AccessKeyID: cfg.AccessKeyID,
		SecretKey:   cfg.SecretAccessKey,
		BucketName:  cfg.Bucket,
	})
	if err != nil {
		return "", 0, err
	}

	tmp, err := os.CreateTemp("", "site-*.tar.zst")
	if err != nil {
		return "", 0, fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	files, err := bundle.Pack(tmp, dir)
	if err != nil {
		return "", 0, err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return "", 0, fmt.Errorf("rewind bundle: %w", err)
	}

	etag, err := client.Upload(ctx, cfg.Key, tmp, bundle.ContentType)
	if err != nil {
		return "", 0, err
	}
	return etag, files, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
