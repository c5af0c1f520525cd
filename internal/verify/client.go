// Package verify exercises a running demo responder over HTTP and reports
// which of its documented behaviors hold.
package verify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/corpix/uarand"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// maxBody caps how much of any response the verifier reads.
const maxBody = 4 << 20

// Client sends verification requests to one base URL.
type Client struct {
	httpClient *http.Client
	base       *url.URL
	userAgent  func() string
}

// NewClient creates a Client for baseURL, given as scheme and host.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("verify: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("verify: base url must be http or https, got %q", baseURL)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("verify: base url has no host: %q", baseURL)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		base:      base,
		userAgent: uarand.GetRandom,
	}, nil
}

// response is a fully read reply.
type response struct {
	status      int
	contentType string
	body        []byte
}

func (r *response) mediaType() string {
	mt, _, err := mime.ParseMediaType(r.contentType)
	if err != nil {
		return ""
	}
	return mt
}

// do sends one request to target, which is a path with optional query.
func (c *Client) do(ctx context.Context, method, target string) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return &response{
		status:      resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
		body:        body,
	}, nil
}

// document parses an HTML body, decoding it from the charset its Content-Type names.
func (r *response) document() (*goquery.Document, error) {
	var reader io.Reader = bytes.NewReader(r.body)

	_, params, err := mime.ParseMediaType(r.contentType)
	if err == nil {
		if name := params["charset"]; name != "" && !strings.EqualFold(name, "utf-8") {
			enc, err := htmlindex.Get(name)
			if err != nil {
				return nil, fmt.Errorf("unsupported charset %q: %w", name, err)
			}
			reader = transform.NewReader(reader, enc.NewDecoder())
		}
	}

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

func (r *response) title() (string, error) {
	doc, err := r.document()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(doc.Find("title").First().Text()), nil
}
