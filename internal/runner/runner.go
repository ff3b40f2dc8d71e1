// Package runner executes external programs with captured output and a hard
// time bound. A nonzero exit status is reported in the Result, never as an
// error; errors are reserved for launch failures and timeouts.
package runner

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"os/exec"
	"strings"
	"time"

	"deckhand/internal/constants"
	"deckhand/internal/errors"
	"deckhand/internal/logger"
)

// Command describes a single program invocation
type Command struct {
	Name    string
	Args    []string
	Dir     string
	Env     []string
	Timeout time.Duration
}

// String renders the command line for logs and error messages
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result holds the captured outcome of a finished command
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Success reports whether the command exited with status 0
func (r *Result) Success() bool {
	return r.ExitCode == 0
}

// Combined joins stdout and stderr for display
func (r *Result) Combined() string {
	switch {
	case r.Stdout == "":
		return r.Stderr
	case r.Stderr == "":
		return r.Stdout
	default:
		return strings.TrimRight(r.Stdout, "\n") + "\n" + r.Stderr
	}
}

// Runner runs commands. Implementations must be safe for concurrent use.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// ExecRunner runs commands as child processes
type ExecRunner struct {
	// DefaultTimeout applies when a Command carries no timeout of its own
	DefaultTimeout time.Duration
}

// NewExecRunner creates an ExecRunner with the given default timeout
func NewExecRunner(defaultTimeout time.Duration) *ExecRunner {
	if defaultTimeout <= 0 {
		defaultTimeout = constants.DefaultCommandTimeout
	}
	return &ExecRunner{DefaultTimeout: defaultTimeout}
}

// Run starts the command and waits for it to exit or time out. Cancelling
// ctx does not kill a process that has already been launched; only the
// timeout does.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = r.DefaultTimeout
	}
	if timeout <= 0 {
		timeout = constants.DefaultCommandTimeout
	}

	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	c := exec.CommandContext(runCtx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Stdout = &stdout
	c.Stderr = &stderr
	c.WaitDelay = 5 * time.Second
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}

	log := logger.WithContext(ctx).WithField("command", cmd.String())
	log.Debug("Running command")

	start := time.Now()
	err := c.Run()
	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if stderrors.Is(runCtx.Err(), context.DeadlineExceeded) {
		result.ExitCode = -1
		log.WithField("timeout", timeout).Error("Command timed out")
		return result, errors.OperationTimeout("command", cmd.String(), runCtx.Err()).
			WithOutput(result.Combined())
	}

	if err != nil {
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			log.WithField("exit_code", result.ExitCode).Debug("Command exited with nonzero status")
			return result, nil
		}
		log.WithError(err).Error("Failed to launch command")
		return nil, errors.CommandLaunchFailed(cmd.Name, err)
	}

	return result, nil
}
