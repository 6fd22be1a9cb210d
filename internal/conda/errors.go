package conda

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBackendNotFound is returned when no working conda or mamba executable
// could be located.
var ErrBackendNotFound = errors.New("no conda or mamba installation found; install Miniforge or set conda_executable in the config file")

// ErrEnvBusy is returned when an operation is requested on an environment
// that already has one in flight.
var ErrEnvBusy = errors.New("another operation is already running on this environment")

// ErrEnvNotFound is returned when a named environment is not present in the
// backend's listing.
var ErrEnvNotFound = errors.New("environment not found")

// CommandError reports a backend invocation that exited non-zero.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("command failed: %s (exit %d)", strings.Join(e.Args, " "), e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }

// ParseError reports backend output that did not match the expected shape.
// Raw carries the unparsed output for diagnostics.
type ParseError struct {
	Args []string
	Raw  string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse output of %s: %v", strings.Join(e.Args, " "), e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// TermsOfServiceError indicates the Anaconda defaults channels require
// accepting their Terms of Service before the operation can proceed.
// The caller is expected to show the user the `conda tos accept` commands.
type TermsOfServiceError struct {
	Stderr string
}

func (e *TermsOfServiceError) Error() string {
	return "the Anaconda defaults channels require accepting their Terms of Service; run 'conda tos accept' in a terminal and retry"
}

// tosStderrMarkers are substrings conda emits when it refuses to proceed
// without ToS acceptance from a non-interactive session.
var tosStderrMarkers = []string{
	"CondaToSNonInteractiveError",
	"Terms of Service",
	"tos accept",
}

// isToSFailure reports whether stderr text looks like a ToS refusal.
func isToSFailure(stderr string) bool {
	for _, marker := range tosStderrMarkers {
		if strings.Contains(stderr, marker) {
			return true
		}
	}
	return false
}

// wrapCommandError converts a non-zero exit into the typed error taxonomy,
// upgrading ToS refusals to TermsOfServiceError.
func wrapCommandError(args []string, exitCode int, stderr string, err error) error {
	if isToSFailure(stderr) {
		return &TermsOfServiceError{Stderr: stderr}
	}
	return &CommandError{Args: args, ExitCode: exitCode, Stderr: stderr, Err: err}
}
