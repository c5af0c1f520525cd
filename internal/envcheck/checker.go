// Package envcheck reports on the Python toolchain inside a container image:
// interpreter location, key package versions, installed packages and Jupyter
// kernels. Every failure is printed into the report; nothing is fatal.
package envcheck

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/garyellow/demo-servers/internal/config"
	domerrors "github.com/garyellow/demo-servers/internal/errors"
	"github.com/garyellow/demo-servers/internal/logger"
	"golang.org/x/sync/errgroup"
)

// Packages are reported in this order.
var Packages = []string{"pip", "setuptools", "wheel", "jupyter", "ipykernel", "bash_kernel"}

// Section titles, in report order.
const (
	TitleEnvironment = "=== Environment Info ==="
	TitlePackages    = "=== Package Versions ==="
	TitlePipList     = "=== pip list (short) ==="
	TitleKernels     = "=== Jupyter Kernels ==="
)

const (
	// NotInstalled replaces the version of any package that cannot be looked up.
	NotInstalled = "NOT INSTALLED"

	// None is printed for absent values.
	None = "None"

	// JupyterNotFound is printed when the interpreter itself cannot be started.
	JupyterNotFound = "Jupyter not found."

	pipListLimit      = 20
	lookupConcurrency = 4
)

// Interpreter one-liners. Both read their input from argv so nothing is interpolated.
const (
	probeScript   = "import sys, platform; print(sys.executable); print(sys.prefix); print(platform.system(), platform.release())"
	versionScript = "import sys; from importlib.metadata import version; print(version(sys.argv[1]))"
)

// interpreterCandidates are tried on PATH when PYTHON is unset.
var interpreterCandidates = []string{"python3", "python"}

// Checker builds environment reports.
type Checker struct {
	runner    Runner
	lookupEnv func(string) (string, bool)
	lookPath  func(string) (string, error)
	now       func() time.Time
	timeout   time.Duration
	logger    *logger.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithRunner replaces the subprocess runner.
func WithRunner(r Runner) Option {
	return func(c *Checker) { c.runner = r }
}

// WithEnv replaces the environment lookup.
func WithEnv(fn func(string) (string, bool)) Option {
	return func(c *Checker) { c.lookupEnv = fn }
}

// WithLookPath replaces executable discovery.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(c *Checker) { c.lookPath = fn }
}

// WithClock replaces the clock used for the "Current time" line.
func WithClock(fn func() time.Time) Option {
	return func(c *Checker) { c.now = fn }
}

// WithCommandTimeout bounds each subprocess.
func WithCommandTimeout(d time.Duration) Option {
	return func(c *Checker) { c.timeout = d }
}

// New creates a Checker backed by os/exec and the process environment.
func New(log *logger.Logger, opts ...Option) *Checker {
	c := &Checker{
		runner:    ExecRunner{},
		lookupEnv: os.LookupEnv,
		lookPath:  exec.LookPath,
		now:       time.Now,
		timeout:   config.CommandTimeout,
		logger:    log.WithModule("envcheck"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check runs every section and returns the assembled report.
// Sections run one after another; only package lookups fan out.
func (c *Checker) Check(ctx context.Context) *Report {
	python, err := c.Interpreter()
	if err != nil {
		c.logger.WithError(err).Warn("No Python interpreter available")
	}

	return &Report{Sections: []Section{
		c.environment(ctx, python),
		c.packages(ctx, python),
		c.pipList(ctx, python),
		c.kernels(ctx, python),
	}}
}

// Interpreter resolves the Python binary: PYTHON if set, else the first
// candidate found on PATH.
func (c *Checker) Interpreter() (string, error) {
	if name, ok := c.lookupEnv(config.EnvPython); ok && name != "" {
		path, err := c.lookPath(name)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", domerrors.ErrInterpreterNotFound, name, err)
		}
		return path, nil
	}
	for _, name := range interpreterCandidates {
		if path, err := c.lookPath(name); err == nil {
			return path, nil
		}
	}
	return "", domerrors.ErrInterpreterNotFound
}

func (c *Checker) environment(ctx context.Context, python string) Section {
	executable, prefix, platform := None, None, runtime.GOOS+" "+runtime.GOARCH
	if python != "" {
		res, err := c.run(ctx, python, "-c", probeScript)
		if err != nil {
			c.logger.WithError(err).Debug("Interpreter probe failed")
			executable = python
		} else {
			lines := strings.Split(strings.TrimRight(res.Stdout, "\r\n"), "\n")
			if len(lines) > 0 && lines[0] != "" {
				executable = strings.TrimSpace(lines[0])
			}
			if len(lines) > 1 {
				prefix = strings.TrimSpace(lines[1])
			}
			if len(lines) > 2 {
				platform = strings.TrimSpace(lines[2])
			}
		}
	}

	virtualEnv, ok := c.lookupEnv(config.EnvVirtualEnv)
	if !ok {
		virtualEnv = None
	}

	return Section{Title: TitleEnvironment, Lines: []string{
		"Python executable: " + executable,
		"VIRTUAL_ENV: " + virtualEnv,
		"sys.prefix: " + prefix,
		"Platform: " + platform,
		"Current time: " + c.now().Format("2006-01-02 15:04:05.000000"),
	}}
}

func (c *Checker) packages(ctx context.Context, python string) Section {
	versions := make([]string, len(Packages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lookupConcurrency)
	for i, name := range Packages {
		g.Go(func() error {
			version, err := c.Version(gctx, python, name)
			if err != nil {
				c.logger.WithField("package", name).WithError(err).Debug("Package lookup failed")
				version = NotInstalled
			}
			versions[i] = version
			return nil
		})
	}
	_ = g.Wait()

	lines := make([]string, len(Packages))
	for i, name := range Packages {
		lines[i] = fmt.Sprintf("%-12s: %s", name, versions[i])
	}
	return Section{Title: TitlePackages, Lines: lines}
}

// Version returns the installed version of a distribution.
// Any failure, including a missing interpreter, yields an error wrapping ErrNotInstalled.
func (c *Checker) Version(ctx context.Context, python, name string) (string, error) {
	if python == "" {
		return "", fmt.Errorf("%w: %s: %w", domerrors.ErrNotInstalled, name, domerrors.ErrInterpreterNotFound)
	}
	res, err := c.run(ctx, python, "-c", versionScript, name)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", domerrors.ErrNotInstalled, name, err)
	}
	version := strings.TrimSpace(res.Stdout)
	if version == "" {
		return "", fmt.Errorf("%w: %s: empty version", domerrors.ErrNotInstalled, name)
	}
	return version, nil
}

func (c *Checker) pipList(ctx context.Context, python string) Section {
	section := Section{Title: TitlePipList}
	if python == "" {
		section.Lines = []string{"Error running pip list: " + domerrors.ErrInterpreterNotFound.Error()}
		return section
	}

	res, err := c.run(ctx, python, "-m", "pip", "list", "--disable-pip-version-check")
	if err != nil {
		section.Lines = []string{"Error running pip list: " + err.Error()}
		return section
	}

	lines := splitLines(res.Stdout)
	if len(lines) > pipListLimit {
		lines = lines[:pipListLimit]
	}
	section.Lines = []string{strings.Join(lines, "\n")}
	return section
}

func (c *Checker) kernels(ctx context.Context, python string) Section {
	section := Section{Title: TitleKernels}
	if python == "" {
		section.Lines = []string{JupyterNotFound}
		return section
	}

	res, err := c.run(ctx, python, "-m", "jupyter", "kernelspec", "list")
	if err == nil {
		section.Lines = []string{res.Stdout}
		return section
	}

	if startFailed(err) {
		section.Lines = []string{JupyterNotFound}
		return section
	}

	section.Lines = []string{"Error checking kernels: " + err.Error()}
	if res.Stdout != "" {
		section.Lines = append(section.Lines, res.Stdout)
	}
	if res.Stderr != "" {
		section.Lines = append(section.Lines, res.Stderr)
	}
	return section
}

func (c *Checker) run(ctx context.Context, name string, args ...string) (Result, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.runner.Run(ctx, name, args...)
}

// startFailed reports whether the binary itself could not be found.
func startFailed(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist)
}

// splitLines splits like Python's str.splitlines for the newline styles pip emits.
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
