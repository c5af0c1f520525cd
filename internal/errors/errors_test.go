package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandError(t *testing.T) {
	cause := errors.New("exit status 2")

	t.Run("non-zero exit", func(t *testing.T) {
		err := &CommandError{Command: "python3 -m pip list", ExitCode: 2, Err: cause}
		assert.Equal(t, `command "python3 -m pip list" returned non-zero exit status 2`, err.Error())
		assert.ErrorIs(t, err, cause)
	})

	t.Run("never started", func(t *testing.T) {
		err := &CommandError{Command: "python3", ExitCode: -1, Err: ErrInterpreterNotFound}
		assert.Contains(t, err.Error(), "interpreter not found")
		assert.ErrorIs(t, fmt.Errorf("outer: %w", err), ErrInterpreterNotFound)
	})
}

func TestErrorWrapper(t *testing.T) {
	w := NewWrapper("staticsite", "serve_file")

	assert.NoError(t, w.Wrap(nil, "ignored"))
	assert.NoError(t, w.Wrapf(nil, "ignored %d", 1))

	err := w.Wrapf(ErrNotFound, "open %s", "/missing.html")
	var wrapped *WrappedError
	if assert.ErrorAs(t, err, &wrapped) {
		assert.Equal(t, "staticsite", wrapped.Module)
		assert.Equal(t, "serve_file", wrapped.Operation)
		assert.Equal(t, "open /missing.html", wrapped.Message)
	}
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "[staticsite:serve_file] open /missing.html: resource not found", err.Error())
}
