//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"errors"
	"fmt"
	"io"
)

const (
	// ExitSucceeded is the status of a successful invocation.
	ExitSucceeded = 0
	// ExitFailed is the status of every usage, validation or runtime failure.
	ExitFailed = 1
)

// ExitError carries an exit status whose diagnostic has already been printed.
type ExitError struct {
	Code int
}

// Error implements error.
func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// Failed returns the error for an invocation that must exit with ExitFailed.
func Failed() error {
	return &ExitError{Code: ExitFailed}
}

// Fail prints "FAILED: <msg>" to w and returns Failed().
func Fail(w io.Writer, format string, args ...any) error {
	_, _ = fmt.Fprintf(w, "FAILED: "+format+"\n", args...)

	return Failed()
}

// ExitCode maps the error returned by a subcommand to the process exit status.
// Errors that were not reported yet are printed as a FAILED line.
func ExitCode(w io.Writer, err error) int {
	if err == nil {
		return ExitSucceeded
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	_, _ = fmt.Fprintf(w, "FAILED: %v\n", err)

	return ExitFailed
}
