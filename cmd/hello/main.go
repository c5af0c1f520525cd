// Package main answers every request with a plaintext greeting.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/garyellow/demo-servers/internal/app"
	"github.com/garyellow/demo-servers/internal/config"
	"github.com/garyellow/demo-servers/internal/hello"
)

func main() {
	cfg, err := config.Load(config.VariantHello)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := app.NewLogger(cfg)
	application, err := app.Initialize(cfg, log, hello.New())
	if err != nil {
		log.WithError(err).Error("Failed to initialize")
		_ = log.Shutdown(context.Background())
		os.Exit(1)
	}

	if err := application.Run(context.Background()); err != nil {
		log.WithError(err).Error("Server exited with error")
		os.Exit(1)
	}
}
