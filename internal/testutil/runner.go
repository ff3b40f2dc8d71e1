package testutil

import (
	"context"
	"strings"
	"sync"

	"deckhand/internal/runner"
)

// FakeRunner is a scripted runner.Runner. Responses are matched against the
// rendered command line by substring in registration order; unmatched
// commands succeed with empty output.
type FakeRunner struct {
	mu        sync.Mutex
	calls     []runner.Command
	responses []fakeResponse

	// OnRun, when set, is called before a response is chosen. Tests use it to
	// block or observe a command in flight.
	OnRun func(ctx context.Context, cmd runner.Command)
}

type fakeResponse struct {
	match  string
	result runner.Result
	err    error
}

// NewFakeRunner creates a FakeRunner with no scripted responses
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{}
}

// On scripts the result returned for commands containing match
func (f *FakeRunner) On(match string, result runner.Result, err error) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, fakeResponse{match: match, result: result, err: err})
	return f
}

// OnSuccess scripts a zero exit with the given stdout
func (f *FakeRunner) OnSuccess(match, stdout string) *FakeRunner {
	return f.On(match, runner.Result{Stdout: stdout}, nil)
}

// OnFailure scripts a nonzero exit with the given stderr
func (f *FakeRunner) OnFailure(match, stderr string, exitCode int) *FakeRunner {
	return f.On(match, runner.Result{Stderr: stderr, ExitCode: exitCode}, nil)
}

// OnError scripts a launch or timeout error
func (f *FakeRunner) OnError(match string, err error) *FakeRunner {
	return f.On(match, runner.Result{}, err)
}

// Run implements runner.Runner
func (f *FakeRunner) Run(ctx context.Context, cmd runner.Command) (*runner.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	hook := f.OnRun
	f.mu.Unlock()

	if hook != nil {
		hook(ctx, cmd)
	}

	line := cmd.String()

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.responses {
		if strings.Contains(line, r.match) {
			if r.err != nil {
				return nil, r.err
			}
			result := r.result
			return &result, nil
		}
	}
	return &runner.Result{}, nil
}

// Calls returns every command received so far
func (f *FakeRunner) Calls() []runner.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]runner.Command(nil), f.calls...)
}

// CommandLines returns the rendered command lines received so far
func (f *FakeRunner) CommandLines() []string {
	calls := f.Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = c.String()
	}
	return lines
}
