// Package errors provides domain-specific error types and sentinel errors
// shared by the demo responders and the environment checker.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrNotFound indicates a requested file does not exist under the site root.
	ErrNotFound = errors.New("resource not found")

	// ErrDirectoryListing indicates a request resolved to a directory.
	ErrDirectoryListing = errors.New("directory listing not allowed")

	// ErrInvalidPath indicates a request path that cannot be mapped onto the site root.
	ErrInvalidPath = errors.New("invalid path")

	// ErrNotInstalled indicates a package lookup found nothing.
	ErrNotInstalled = errors.New("not installed")

	// ErrInterpreterNotFound indicates the interpreter binary is absent.
	ErrInterpreterNotFound = errors.New("interpreter not found")
)

// CommandError describes a subprocess that could not run or exited non-zero.
type CommandError struct {
	Command  string
	ExitCode int // -1 when the process never started
	Stdout   string
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("command %q returned non-zero exit status %d", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("command %q: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
