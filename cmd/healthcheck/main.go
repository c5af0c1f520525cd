// Package main is a container HEALTHCHECK probe: it exits 0 when the local
// responder answers its health path with 200 and 1 otherwise.
//
// The path defaults to "/" because the static variant has no /health route;
// podinfo deployments set HEALTHCHECK_PATH=/health to hit the plain OK.
package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/garyellow/demo-servers/internal/config"
)

func main() {
	os.Exit(probe(os.Getenv))
}

// probe returns the process exit code for one health request.
func probe(getenv func(string) string) int {
	client := &http.Client{Timeout: config.HealthcheckRequest}

	resp, err := client.Get(healthURL(getenv))
	if err != nil {
		return 1
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 1
	}
	return 0
}

func healthURL(getenv func(string) string) string {
	port := getenv(config.EnvPort)
	if port == "" {
		port = config.DefaultPort
	}
	path := getenv(config.EnvHealthcheckPath)
	if path == "" {
		path = config.DefaultHealthcheckPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return fmt.Sprintf("http://localhost:%s%s", port, path)
}
