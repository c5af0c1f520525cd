// Package main runs the Kubernetes info responder: /health for probes and a
// JSON description of the pod for every other path.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/garyellow/demo-servers/internal/app"
	"github.com/garyellow/demo-servers/internal/config"
	"github.com/garyellow/demo-servers/internal/podinfo"
)

func main() {
	cfg, err := config.Load(config.VariantPodInfo)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := app.NewLogger(cfg)
	application, err := app.Initialize(cfg, log, podinfo.New(log))
	if err != nil {
		log.WithError(err).Error("Failed to initialize")
		_ = log.Shutdown(context.Background())
		os.Exit(1)
	}

	log.WithField("port", cfg.Port).Info("Server running")
	if err := application.Run(context.Background()); err != nil {
		log.WithError(err).Error("Server exited with error")
		os.Exit(1)
	}
}
