package verify

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/garyellow/demo-servers/internal/hello"
	"github.com/garyellow/demo-servers/internal/logger"
	"github.com/garyellow/demo-servers/internal/podinfo"
	"github.com/garyellow/demo-servers/internal/staticsite"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/traditionalchinese"
)

type mounter interface {
	Mount(router *gin.Engine)
}

func serve(t *testing.T, m mounter) *Client {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	m.Mount(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL, 5*time.Second)
	require.NoError(t, err)
	return client
}

func assertAllPassed(t *testing.T, results []Result) {
	t.Helper()
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.True(t, r.Passed, "%s: %s", r.Name, r.Message)
	}
}

func TestRun_Static(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<html><head><title>Demo</title></head></html>"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "assets"), 0o755))

	site, err := staticsite.New(root, logger.NewWithWriter("error", io.Discard))
	require.NoError(t, err)

	results, err := serve(t, site).Run(context.Background(), ModeStatic, Options{})
	require.NoError(t, err)
	assertAllPassed(t, results)
	assert.Contains(t, results[0].Message, `title "Demo"`)
}

func TestRun_StaticFailures(t *testing.T) {
	// A site without index.html and without the directory under test.
	site, err := staticsite.New(t.TempDir(), logger.NewWithWriter("error", io.Discard))
	require.NoError(t, err)

	results, err := serve(t, site).Run(context.Background(), ModeStatic, Options{DirPath: "/nope/"})
	require.NoError(t, err)
	assert.False(t, results[0].Passed)
	assert.False(t, results[1].Passed)
	assert.True(t, results[2].Passed)
}

func TestRun_PodInfo(t *testing.T) {
	responder := podinfo.New(logger.NewWithWriter("error", io.Discard),
		podinfo.WithEnv(func(string) (string, bool) { return "", false }))

	results, err := serve(t, responder).Run(context.Background(), ModePodInfo, Options{})
	require.NoError(t, err)
	assertAllPassed(t, results)
	assert.Contains(t, results[1].Message, "on pod unknown")
}

func TestRun_Hello(t *testing.T) {
	results, err := serve(t, hello.New()).Run(context.Background(), ModeHello, Options{})
	require.NoError(t, err)
	assertAllPassed(t, results)
}

func TestRun_WrongTarget(t *testing.T) {
	// The hello responder answers everything with 200, so podinfo checks must fail.
	results, err := serve(t, hello.New()).Run(context.Background(), ModePodInfo, Options{})
	require.NoError(t, err)
	for _, r := range results[:2] {
		assert.False(t, r.Passed, r.Name)
	}
}

func TestRun_UnknownMode(t *testing.T) {
	client, err := NewClient("http://localhost:1", time.Second)
	require.NoError(t, err)
	_, err = client.Run(context.Background(), Mode("bogus"), Options{})
	assert.Error(t, err)
}

func TestRun_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := NewClient(url, time.Second)
	require.NoError(t, err)
	results, err := client.Run(context.Background(), ModeHello, Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Passed)
}

func TestNewClient_Validation(t *testing.T) {
	for _, raw := range []string{"localhost:8080", "ftp://example.com", "http://", "://bad"} {
		_, err := NewClient(raw, time.Second)
		assert.Error(t, err, raw)
	}

	client, err := NewClient("http://localhost:8080/", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", client.base.String())
}

func TestRequestsCarryUserAgent(t *testing.T) {
	agents := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agents <- r.Header.Get("User-Agent")
		_, _ = io.WriteString(w, helloBody)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, time.Second)
	require.NoError(t, err)
	client.userAgent = func() string { return "verify-test/1.0" }

	_, err = client.do(context.Background(), http.MethodGet, "/")
	require.NoError(t, err)
	assert.Equal(t, "verify-test/1.0", <-agents)
}

func TestResponseTitle_DecodesCharset(t *testing.T) {
	encoded, err := traditionalchinese.Big5.NewEncoder().String("<html><head><title>首頁</title></head></html>")
	require.NoError(t, err)

	resp := &response{contentType: "text/html; charset=big5", body: []byte(encoded)}
	title, err := resp.title()
	require.NoError(t, err)
	assert.Equal(t, "首頁", title)

	resp = &response{contentType: "text/html; charset=x-unknown-charset", body: []byte(encoded)}
	_, err = resp.title()
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	var buf bytes.Buffer
	passed, failed := Summarize(&buf, []Result{
		{Name: "a", Passed: true, Message: "ok"},
		{Name: "b", Passed: false, Message: "nope"},
		{Name: "c", Passed: true, Message: "ok"},
	})

	assert.Equal(t, 2, passed)
	assert.Equal(t, 1, failed)
	out := buf.String()
	assert.Contains(t, out, "✅ a: ok")
	assert.Contains(t, out, "❌ b: nope")
	assert.True(t, strings.HasSuffix(out, "📈 Summary: 2 passed, 1 failed\n"))
}
