// Package shelltest provides an in-memory container runtime for tests.
package shelltest

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/cyber-dojo/commander/internal/shell"
)

// Call is one recorded invocation.
type Call struct {
	// Args are the runtime arguments.
	Args []string
	// Env is the extra environment passed to Stream.
	Env []string
	// Streamed is true for Stream calls.
	Streamed bool
}

// Fake is a scripted shell.Executor. Unscripted Run calls return empty output
// with status 1; unscripted Stream calls return status 0.
type Fake struct {
	mu      sync.Mutex
	results map[string]shell.Result
	errs    map[string]error
	status  map[string]int
	calls   []Call
}

var _ shell.Executor = (*Fake)(nil)

// New returns an empty Fake.
func New() *Fake {
	return &Fake{
		results: make(map[string]shell.Result),
		errs:    make(map[string]error),
		status:  make(map[string]int),
	}
}

// On scripts the result of a Run call with exactly args.
func (f *Fake) On(result shell.Result, args ...string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.results[key(args)] = result

	return f
}

// OnOutput scripts a successful Run call with exactly args.
func (f *Fake) OnOutput(output string, args ...string) *Fake {
	return f.On(shell.Result{Output: output}, args...)
}

// Fail makes a Run or Stream call with exactly args return err.
func (f *Fake) Fail(err error, args ...string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.errs[key(args)] = err

	return f
}

// OnStream scripts the status of a Stream call with exactly args.
func (f *Fake) OnStream(status int, args ...string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.status[key(args)] = status

	return f
}

// Run implements shell.Executor.
func (f *Fake) Run(_ context.Context, args ...string) (shell.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, Call{Args: slices.Clone(args)})

	k := key(args)
	if err, ok := f.errs[k]; ok {
		return shell.Result{Status: -1}, err
	}

	if res, ok := f.results[k]; ok {
		return res, nil
	}

	return shell.Result{Status: 1}, nil
}

// Stream implements shell.Executor.
func (f *Fake) Stream(_ context.Context, env []string, args ...string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, Call{
		Args:     slices.Clone(args),
		Env:      slices.Clone(env),
		Streamed: true,
	})

	k := key(args)
	if err, ok := f.errs[k]; ok {
		return -1, err
	}

	return f.status[k], nil
}

// Calls returns every recorded invocation in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()

	return slices.Clone(f.calls)
}

// Count returns how many invocations started with prefix.
func (f *Fake) Count(prefix ...string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0

	for _, c := range f.calls {
		if len(c.Args) >= len(prefix) && slices.Equal(c.Args[:len(prefix)], prefix) {
			n++
		}
	}

	return n
}

// Streamed returns the arguments of every Stream call in order.
func (f *Fake) Streamed() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out [][]string

	for _, c := range f.calls {
		if c.Streamed {
			out = append(out, c.Args)
		}
	}

	return out
}

func key(args []string) string {
	return strings.Join(args, "\x00")
}
