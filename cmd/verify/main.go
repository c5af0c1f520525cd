// Package main checks a running demo responder against its documented
// behavior and exits non-zero if any check fails.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/garyellow/demo-servers/internal/config"
	"github.com/garyellow/demo-servers/internal/verify"
)

// Environment keys read when the matching flag is not given.
const (
	envVerifyURL     = "VERIFY_URL"
	envVerifyMode    = "VERIFY_MODE"
	envVerifyDirPath = "VERIFY_DIR_PATH"
)

func main() {
	urlFlag := flag.String("url", envOr(envVerifyURL, "http://localhost:"+config.DefaultPort), "Base URL of the running responder")
	modeFlag := flag.String("mode", envOr(envVerifyMode, string(verify.ModeStatic)), "Responder to verify (static, podinfo, hello)")
	dirFlag := flag.String("dir", envOr(envVerifyDirPath, "/assets/"), "Directory path expected to return 403 (static mode)")
	flag.Parse()

	fmt.Println("🔍 Demo Servers - Fixture Verification Tool")
	fmt.Println("===========================================")
	fmt.Printf("Target: %s (%s)\n", *urlFlag, *modeFlag)

	client, err := verify.NewClient(*urlFlag, config.VerifyRequest)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	mode := verify.Mode(strings.ToLower(strings.TrimSpace(*modeFlag)))
	results, err := client.Run(context.Background(), mode, verify.Options{DirPath: *dirFlag})
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	if _, failed := verify.Summarize(os.Stdout, results); failed > 0 {
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
