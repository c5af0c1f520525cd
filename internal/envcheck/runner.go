package envcheck

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	domerrors "github.com/garyellow/demo-servers/internal/errors"
)

// Result is the captured output of one finished command.
type Result struct {
	Stdout string
	Stderr string
}

// Runner executes a command and captures its output.
// A non-zero exit is reported as *errors.CommandError carrying the captured output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}

	cmdErr := &domerrors.CommandError{
		Command:  commandLine(name, args),
		ExitCode: -1,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
		Err:      err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		cmdErr.ExitCode = exitErr.ExitCode()
	}
	return res, cmdErr
}

func commandLine(name string, args []string) string {
	return strings.Join(append([]string{name}, args...), " ")
}
