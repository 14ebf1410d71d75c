package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CommandResult is the captured outcome of one external process.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Combined returns stderr followed by stdout, trimmed.
func (r CommandResult) Combined() string {
	parts := make([]string, 0, 2)
	if s := strings.TrimSpace(r.Stderr); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(r.Stdout); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, "\n")
}

// CommandRunner abstracts process execution for testability.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (CommandResult, error)
}

// CommandRunnerFunc adapts a function to CommandRunner.
type CommandRunnerFunc func(ctx context.Context, name string, args ...string) (CommandResult, error)

// Run implements CommandRunner.
func (f CommandRunnerFunc) Run(ctx context.Context, name string, args ...string) (CommandResult, error) {
	return f(ctx, name, args...)
}

// ExecRunner executes commands via os/exec.
type ExecRunner struct {
	// Env, when non-empty, replaces the inherited environment.
	Env []string
}

// Run executes one command and captures stdout/stderr and exit code. The
// process is killed when ctx is done.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) (CommandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if len(r.Env) > 0 {
		cmd.Env = r.Env
	}
	cmd.WaitDelay = 5 * time.Second
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}
	return result, nil
}

// RunTool runs name through runner bounded by timeout. A zero timeout only
// honours ctx. Failures come back as *ToolError; a hit deadline additionally
// matches ErrTimeout.
func RunTool(ctx context.Context, runner CommandRunner, timeout time.Duration, name string, args ...string) (CommandResult, error) {
	if runner == nil {
		runner = ExecRunner{}
	}
	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, err := runner.Run(runCtx, name, args...)
	if err == nil {
		return result, nil
	}

	toolErr := &ToolError{
		Command:  name,
		Args:     append([]string(nil), args...),
		ExitCode: result.ExitCode,
		Output:   result.Combined(),
		Err:      err,
	}
	switch {
	case ctx.Err() != nil:
		toolErr.Err = ctx.Err()
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		toolErr.ExitCode = -1
		toolErr.Err = fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
	return result, toolErr
}
