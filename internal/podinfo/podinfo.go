// Package podinfo answers every request with a JSON description of the pod
// that served it, and /health with a plain "OK". It is deployed to kind and
// real clusters to check Service routing and the downward API wiring.
package podinfo

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/garyellow/demo-servers/internal/config"
	"github.com/garyellow/demo-servers/internal/logger"
	"github.com/garyellow/demo-servers/internal/respond"
	"github.com/gin-gonic/gin"
)

// Fixed response values.
const (
	Greeting   = "Hello from Kubernetes!"
	HealthPath = "/health"
	HealthBody = "OK"
	Unknown    = "unknown"
)

// TimestampLayout is ISO-8601 in UTC with microseconds and a literal Z.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// Info is the JSON body returned for every path except /health.
type Info struct {
	Message   string `json:"message"`
	Hostname  string `json:"hostname"`
	Timestamp string `json:"timestamp"`
	Path      string `json:"path"`
	PodName   string `json:"pod_name"`
	PodIP     string `json:"pod_ip"`
	NodeName  string `json:"node_name"`
}

// Responder builds Info from the hostname, the clock and the environment.
type Responder struct {
	hostname func() (string, error)
	now      func() time.Time
	lookup   func(string) (string, bool)
	logger   *logger.Logger
}

// Option customizes a Responder; tests use these to pin inputs.
type Option func(*Responder)

// WithHostname overrides os.Hostname.
func WithHostname(fn func() (string, error)) Option {
	return func(r *Responder) { r.hostname = fn }
}

// WithClock overrides time.Now.
func WithClock(fn func() time.Time) Option {
	return func(r *Responder) { r.now = fn }
}

// WithEnv overrides os.LookupEnv.
func WithEnv(fn func(string) (string, bool)) Option {
	return func(r *Responder) { r.lookup = fn }
}

// New creates a Responder reading real process state unless overridden.
func New(log *logger.Logger, opts ...Option) *Responder {
	r := &Responder{
		hostname: os.Hostname,
		now:      time.Now,
		lookup:   os.LookupEnv,
		logger:   log.WithModule("podinfo"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Mount sends every request through Serve.
func (r *Responder) Mount(router *gin.Engine) {
	router.NoRoute(respond.ReadOnly(), r.accessLog(), r.Serve)
}

// Serve answers OK only when the raw request target is exactly /health.
// A query string or a percent-encoded spelling gets the JSON description.
func (r *Responder) Serve(c *gin.Context) {
	if requestTarget(c.Request) == HealthPath {
		r.Health(c)
		return
	}
	r.Describe(c)
}

// Health always reports OK.
func (r *Responder) Health(c *gin.Context) {
	c.Data(http.StatusOK, "text/plain", []byte(HealthBody))
}

// Describe writes the pod description for the request.
func (r *Responder) Describe(c *gin.Context) {
	body, err := json.MarshalIndent(r.Snapshot(requestTarget(c.Request)), "", "  ")
	if err != nil {
		_ = c.Error(err)
		respond.Text(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	c.Data(http.StatusOK, "application/json", body)
}

// Snapshot computes Info for a request target. Unset env values are reported
// as "unknown"; a variable set to the empty string is echoed as empty.
func (r *Responder) Snapshot(requestPath string) Info {
	host, err := r.hostname()
	if err != nil {
		r.logger.WithError(err).Warn("Failed to read hostname")
		host = Unknown
	}
	return Info{
		Message:   Greeting,
		Hostname:  host,
		Timestamp: r.now().UTC().Format(TimestampLayout),
		Path:      requestPath,
		PodName:   r.env(config.EnvPodName),
		PodIP:     r.env(config.EnvPodIP),
		NodeName:  r.env(config.EnvNodeName),
	}
}

func (r *Responder) env(key string) string {
	if v, ok := r.lookup(key); ok {
		return v
	}
	return Unknown
}

// accessLog writes one info line per request, mirroring what
// operators tail with kubectl logs.
func (r *Responder) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		r.logger.WithField("http_method", c.Request.Method).
			WithField("http_path", requestTarget(c.Request)).
			WithField("http_status", c.Writer.Status()).
			InfoContext(c.Request.Context(), "Request served")
	}
}

// requestTarget is the path and query exactly as the client sent them.
func requestTarget(req *http.Request) string {
	if req.RequestURI != "" {
		return req.RequestURI
	}
	return req.URL.RequestURI()
}
