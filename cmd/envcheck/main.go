// Package main prints a report on the Python toolchain available in the
// current container: interpreter, key package versions, pip packages and
// Jupyter kernels. Problems are printed in the report; the exit code is 0.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/garyellow/demo-servers/internal/config"
	"github.com/garyellow/demo-servers/internal/envcheck"
	"github.com/garyellow/demo-servers/internal/logger"
	"github.com/joho/godotenv"
)

var timeoutFlag = flag.Duration("timeout", config.CommandTimeout, "Timeout for each subprocess")

func main() {
	flag.Parse()
	_ = godotenv.Load()

	level := os.Getenv(config.EnvLogLevel)
	if level == "" {
		level = "warn"
	}
	// stdout carries the report; diagnostics go to stderr.
	log := logger.NewWithWriter(level, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checker := envcheck.New(log, envcheck.WithCommandTimeout(*timeoutFlag))
	if _, err := checker.Check(ctx).WriteTo(os.Stdout); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to write report: %v\n", err)
	}
}
