// Package staticsite serves a directory of static files the way the demo
// container images expect: "/" maps to index.html and directories are never
// listed.
package staticsite

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/gabriel-vasile/mimetype"
	domerrors "github.com/garyellow/demo-servers/internal/errors"
	"github.com/garyellow/demo-servers/internal/logger"
	"github.com/garyellow/demo-servers/internal/respond"
	"github.com/gin-gonic/gin"
)

// Response bodies for the explicit error cases.
const (
	DirectoryListingBody = "Directory listing not allowed"
	NotFoundBody         = "File not found"
	InternalErrorBody    = "Internal Server Error"
)

// IndexFile is served in place of "/".
const IndexFile = "index.html"

// Site serves files from a root directory that can be swapped at runtime.
type Site struct {
	root   atomic.Pointer[string]
	logger *logger.Logger
}

// New creates a Site rooted at dir. The directory must exist.
func New(dir string, log *logger.Logger) (*Site, error) {
	s := &Site{logger: log.WithModule("staticsite")}
	if err := s.SetRoot(dir); err != nil {
		return nil, err
	}
	return s, nil
}

// Root returns the directory currently being served.
func (s *Site) Root() string {
	return *s.root.Load()
}

// SetRoot publishes a new site root. Requests that already resolved a file keep
// the old path; the caller must leave the old directory in place for them.
func (s *Site) SetRoot(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("staticsite: resolve root %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("staticsite: stat root %q: %w", abs, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("staticsite: root %q is not a directory", abs)
	}
	s.root.Store(&abs)
	return nil
}

// Mount registers the site as the catch-all for GET and HEAD.
func (s *Site) Mount(router *gin.Engine) {
	router.NoRoute(respond.ReadOnly(), s.Handle)
}

// Handle serves one request.
func (s *Site) Handle(c *gin.Context) {
	name, info, err := s.Resolve(c.Request.URL.Path)
	switch {
	case errors.Is(err, domerrors.ErrDirectoryListing):
		respond.Text(c, http.StatusForbidden, DirectoryListingBody)
		return
	case errors.Is(err, domerrors.ErrNotFound), errors.Is(err, domerrors.ErrInvalidPath):
		respond.Text(c, http.StatusNotFound, NotFoundBody)
		return
	case err != nil:
		s.fail(c, err)
		return
	}

	f, err := os.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			respond.Text(c, http.StatusNotFound, NotFoundBody)
			return
		}
		s.fail(c, domerrors.NewWrapper("staticsite", "open").Wrapf(err, "open %s", c.Request.URL.Path))
		return
	}
	defer func() { _ = f.Close() }()

	ctype, err := ContentType(name, f)
	if err != nil {
		s.fail(c, domerrors.NewWrapper("staticsite", "detect_type").Wrapf(err, "sniff %s", c.Request.URL.Path))
		return
	}
	c.Header("Content-Type", ctype)
	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), f)
}

func (s *Site) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	s.logger.WithError(err).ErrorContext(c.Request.Context(), "Failed to serve file")
	respond.Text(c, http.StatusInternalServerError, InternalErrorBody)
}

// Resolve maps a URL path onto a regular file under the current root.
// "/" resolves to index.html. Directories yield ErrDirectoryListing; missing
// files yield ErrNotFound.
func (s *Site) Resolve(urlPath string) (string, fs.FileInfo, error) {
	if strings.ContainsRune(urlPath, 0) {
		return "", nil, domerrors.ErrInvalidPath
	}
	if urlPath == "/" || urlPath == "" {
		urlPath = "/" + IndexFile
	}

	// Cleaning an absolute path drops every ".." that would climb above "/".
	clean := path.Clean("/" + urlPath)
	name := filepath.Join(s.Root(), filepath.FromSlash(clean))

	info, err := os.Stat(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return "", nil, domerrors.ErrNotFound
		}
		return "", nil, domerrors.NewWrapper("staticsite", "resolve").Wrapf(err, "stat %s", clean)
	}
	if info.IsDir() {
		return "", nil, domerrors.ErrDirectoryListing
	}
	return name, info, nil
}

// ContentType infers a content type from the file extension, falling back to
// sniffing the content. r is rewound to the start afterwards.
func ContentType(name string, r io.ReadSeeker) (string, error) {
	if ctype := mime.TypeByExtension(filepath.Ext(name)); ctype != "" {
		return ctype, nil
	}
	detected, err := mimetype.DetectReader(r)
	if err != nil {
		return "", err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return detected.String(), nil
}
