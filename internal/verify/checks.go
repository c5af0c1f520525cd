package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Mode selects which responder the checks target.
type Mode string

const (
	ModeStatic  Mode = "static"
	ModePodInfo Mode = "podinfo"
	ModeHello   Mode = "hello"
)

// Expected response bodies.
const (
	directoryListingBody = "Directory listing not allowed"
	healthBody           = "OK"
	helloBody            = "Hello from Go!\n"
)

// podInfoFields must be present in every podinfo JSON reply.
var podInfoFields = []string{"message", "hostname", "timestamp", "path", "pod_name", "pod_ip", "node_name"}

// Result is the outcome of one check.
type Result struct {
	Name    string
	Passed  bool
	Message string
}

// Options tunes the checks.
type Options struct {
	DirPath string // directory the static check expects a 403 for
}

// Run executes every check for mode. It only returns an error for an unknown mode;
// failed requests become failed results.
func (c *Client) Run(ctx context.Context, mode Mode, opts Options) ([]Result, error) {
	switch mode {
	case ModeStatic:
		dir := opts.DirPath
		if dir == "" {
			dir = "/assets/"
		}
		return []Result{
			c.checkRootIsIndex(ctx),
			c.checkDirectoryForbidden(ctx, dir),
			c.checkMissingFile(ctx),
			c.checkUnsupportedMethod(ctx),
		}, nil
	case ModePodInfo:
		return []Result{
			c.checkHealth(ctx),
			c.checkPathEcho(ctx),
			c.checkUnsupportedMethod(ctx),
		}, nil
	case ModeHello:
		return []Result{
			c.checkHello(ctx),
		}, nil
	default:
		return nil, fmt.Errorf("verify: unknown mode %q", mode)
	}
}

func pass(name, format string, args ...any) Result {
	return Result{Name: name, Passed: true, Message: fmt.Sprintf(format, args...)}
}

func fail(name, format string, args ...any) Result {
	return Result{Name: name, Passed: false, Message: fmt.Sprintf(format, args...)}
}

func (c *Client) checkRootIsIndex(ctx context.Context) Result {
	const name = "Root serves index.html"

	root, err := c.do(ctx, http.MethodGet, "/")
	if err != nil {
		return fail(name, "GET /: %v", err)
	}
	index, err := c.do(ctx, http.MethodGet, "/index.html")
	if err != nil {
		return fail(name, "GET /index.html: %v", err)
	}
	if root.status != index.status {
		return fail(name, "status differs: / returned %d, /index.html returned %d", root.status, index.status)
	}
	if root.status != http.StatusOK {
		return fail(name, "expected 200, got %d", root.status)
	}
	if !bytes.Equal(root.body, index.body) {
		return fail(name, "bodies differ (%d vs %d bytes)", len(root.body), len(index.body))
	}

	title, err := root.title()
	if err != nil {
		return fail(name, "%v", err)
	}
	indexTitle, err := index.title()
	if err != nil {
		return fail(name, "%v", err)
	}
	if title != indexTitle {
		return fail(name, "titles differ: %q vs %q", title, indexTitle)
	}
	return pass(name, "%d bytes, title %q", len(root.body), title)
}

func (c *Client) checkDirectoryForbidden(ctx context.Context, dir string) Result {
	name := "Directory listing blocked for " + dir

	resp, err := c.do(ctx, http.MethodGet, dir)
	if err != nil {
		return fail(name, "%v", err)
	}
	if resp.status != http.StatusForbidden {
		return fail(name, "expected 403, got %d", resp.status)
	}
	if !strings.Contains(string(resp.body), directoryListingBody) {
		return fail(name, "403 body does not mention %q", directoryListingBody)
	}
	return pass(name, "403 %s", directoryListingBody)
}

func (c *Client) checkMissingFile(ctx context.Context) Result {
	const name = "Missing file returns 404"

	target := "/verify-missing-" + uuid.NewString() + ".html"
	resp, err := c.do(ctx, http.MethodGet, target)
	if err != nil {
		return fail(name, "%v", err)
	}
	if resp.status != http.StatusNotFound {
		return fail(name, "expected 404 for %s, got %d", target, resp.status)
	}
	return pass(name, "404 for %s", target)
}

func (c *Client) checkUnsupportedMethod(ctx context.Context) Result {
	const name = "Unsupported method rejected"

	resp, err := c.do(ctx, http.MethodPost, "/")
	if err != nil {
		return fail(name, "%v", err)
	}
	if resp.status != http.StatusNotImplemented {
		return fail(name, "expected 501 for POST, got %d", resp.status)
	}
	return pass(name, "501 for POST")
}

func (c *Client) checkHealth(ctx context.Context) Result {
	const name = "Health endpoint"

	resp, err := c.do(ctx, http.MethodGet, "/health")
	if err != nil {
		return fail(name, "%v", err)
	}
	if resp.status != http.StatusOK {
		return fail(name, "expected 200, got %d", resp.status)
	}
	if string(resp.body) != healthBody {
		return fail(name, "expected body %q, got %q", healthBody, resp.body)
	}
	if resp.mediaType() != "text/plain" {
		return fail(name, "expected text/plain, got %q", resp.contentType)
	}
	return pass(name, "200 %s", healthBody)
}

func (c *Client) checkPathEcho(ctx context.Context) Result {
	const name = "Request path echoed"

	target := "/verify/" + uuid.NewString() + "?probe=1"
	resp, err := c.do(ctx, http.MethodGet, target)
	if err != nil {
		return fail(name, "%v", err)
	}
	if resp.status != http.StatusOK {
		return fail(name, "expected 200, got %d", resp.status)
	}
	if resp.mediaType() != "application/json" {
		return fail(name, "expected application/json, got %q", resp.contentType)
	}

	var info map[string]any
	if err := json.Unmarshal(resp.body, &info); err != nil {
		return fail(name, "decode JSON: %v", err)
	}
	var missing []string
	for _, field := range podInfoFields {
		if _, ok := info[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return fail(name, "missing fields: %s", strings.Join(missing, ", "))
	}
	if got, _ := info["path"].(string); got != target {
		return fail(name, "expected path %q, got %q", target, got)
	}
	ts, _ := info["timestamp"].(string)
	if _, err := time.Parse("2006-01-02T15:04:05.999999Z", ts); err != nil {
		return fail(name, "timestamp %q is not UTC ISO-8601: %v", ts, err)
	}
	return pass(name, "path %s on pod %v (node %v)", target, info["pod_name"], info["node_name"])
}

func (c *Client) checkHello(ctx context.Context) Result {
	const name = "Hello greeting"

	resp, err := c.do(ctx, http.MethodGet, "/")
	if err != nil {
		return fail(name, "%v", err)
	}
	if resp.status != http.StatusOK || string(resp.body) != helloBody {
		return fail(name, "expected 200 %q, got %d %q", helloBody, resp.status, resp.body)
	}
	return pass(name, "200 %q", strings.TrimSpace(helloBody))
}

// Summarize prints results in the form the verify command uses and returns the counts.
func Summarize(w io.Writer, results []Result) (passed, failed int) {
	_, _ = fmt.Fprintln(w, "\n📊 Verification Results:")
	_, _ = fmt.Fprintln(w, "========================")

	for _, result := range results {
		status := "❌"
		if result.Passed {
			status = "✅"
			passed++
		} else {
			failed++
		}
		_, _ = fmt.Fprintf(w, "%s %s: %s\n", status, result.Name, result.Message)
	}

	_, _ = fmt.Fprintf(w, "\n📈 Summary: %d passed, %d failed\n", passed, failed)
	return passed, failed
}
