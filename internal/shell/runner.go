package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Result is the outcome of a captured command.
type Result struct {
	// Output is everything the command wrote to standard output.
	Output string
	// Status is the command's exit status.
	Status int
}

// OK reports whether the command exited with status zero.
func (r Result) OK() bool {
	return r.Status == 0
}

// Executor runs runtime subcommands. Arguments never include the runtime binary itself.
type Executor interface {
	// Run captures standard output and the exit status. A non-zero status is not an error.
	Run(ctx context.Context, args ...string) (Result, error)
	// Stream attaches the command to the terminal and returns its exit status.
	// env entries (KEY=VALUE) are added to the inherited environment.
	Stream(ctx context.Context, env []string, args ...string) (int, error)
}

// CommandFunc creates the exec.Cmd for a command. Tests replace it.
type CommandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// Option configures a Runner.
type Option func(*Runner)

// Runner executes commands of one runtime binary.
type Runner struct {
	binary  string
	debug   bool
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	command CommandFunc
}

var _ Executor = (*Runner)(nil)

// errNotStarted is wrapped when a command could not be started at all.
var errNotStarted = errors.New("command did not start")

// WithDebug echoes every command, its status and its output.
func WithDebug(debug bool) Option {
	return func(r *Runner) {
		r.debug = debug
	}
}

// WithStreams sets the terminal streams. Nil values keep the process streams.
func WithStreams(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(r *Runner) {
		if stdin != nil {
			r.stdin = stdin
		}

		if stdout != nil {
			r.stdout = stdout
		}

		if stderr != nil {
			r.stderr = stderr
		}
	}
}

// WithCommandFunc replaces exec.CommandContext.
func WithCommandFunc(fn CommandFunc) Option {
	return func(r *Runner) {
		if fn != nil {
			r.command = fn
		}
	}
}

// New creates a Runner for binary.
func New(binary string, opts ...Option) *Runner {
	r := &Runner{
		binary:  binary,
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		command: exec.CommandContext,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run executes the command and captures its standard output.
// Standard error is passed through to the terminal.
func (r *Runner) Run(ctx context.Context, args ...string) (Result, error) {
	cmd := r.command(ctx, r.binary, args...)

	var out bytes.Buffer

	cmd.Stdout = &out
	cmd.Stderr = r.stderr

	status, err := exitStatus(cmd.Run())
	result := Result{
		Output: out.String(),
		Status: status,
	}

	if r.debug {
		r.echo(args, result.Status)
		writeLine(r.stderr, result.Output)
	}

	if err != nil {
		return result, fmt.Errorf("%s: %w", r.Line(args...), err)
	}

	return result, nil
}

// Stream executes the command with the terminal attached.
func (r *Runner) Stream(ctx context.Context, env []string, args ...string) (int, error) {
	cmd := r.command(ctx, r.binary, args...)
	cmd.Stdin = r.stdin
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr

	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}

	status, err := exitStatus(cmd.Run())

	if r.debug {
		r.echo(args, status)
	}

	if err != nil {
		return status, fmt.Errorf("%s: %w", r.Line(args...), err)
	}

	return status, nil
}

// Line renders the full command line with shell quoting, as it would be typed.
func (r *Runner) Line(args ...string) string {
	words := make([]string, 0, len(args)+1)
	words = append(words, Quote(r.binary))

	for _, arg := range args {
		words = append(words, Quote(arg))
	}

	return strings.Join(words, " ")
}

// echo writes the command line to stderr and the status to stdout.
func (r *Runner) echo(args []string, status int) {
	_, _ = fmt.Fprintln(r.stderr, r.Line(args...))
	_, _ = fmt.Fprintln(r.stdout, status)
}

// Quote quotes s for a POSIX shell, leaving plain words untouched.
func Quote(s string) string {
	quoted, err := syntax.Quote(s, syntax.LangPOSIX)
	if err != nil {
		return fmt.Sprintf("%q", s)
	}

	return quoted
}

// exitStatus converts the error of exec.Cmd.Run into a status.
// Exit errors become their status; anything else is returned as an error with status -1.
func exitStatus(err error) (int, error) {
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}

	return -1, fmt.Errorf("%w: %w", errNotStarted, err)
}

// writeLine writes s followed by a newline unless s already ends with one.
func writeLine(w io.Writer, s string) {
	if strings.HasSuffix(s, "\n") {
		_, _ = io.WriteString(w, s)
		return
	}

	_, _ = io.WriteString(w, s+"\n")
}
