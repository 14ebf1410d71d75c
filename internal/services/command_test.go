package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"whisperstudio/internal/services"
)

func TestRunToolSuccess(t *testing.T) {
	res, err := services.RunTool(context.Background(), services.ExecRunner{}, time.Minute, "sh", "-c", "echo hello")
	if err != nil {
		t.Fatalf("RunTool: %v", err)
	}
	if strings.TrimSpace(res.Stdout) != "hello" {
		t.Fatalf("unexpected stdout %q", res.Stdout)
	}
}

func TestRunToolCapturesExitCodeAndOutput(t *testing.T) {
	_, err := services.RunTool(context.Background(), services.ExecRunner{}, time.Minute, "sh", "-c", "echo broken >&2; exit 3")
	var toolErr *services.ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("expected ToolError, got %v", err)
	}
	if toolErr.ExitCode != 3 {
		t.Fatalf("expected exit code 3, got %d", toolErr.ExitCode)
	}
	if services.Diagnostics(err) != "broken" {
		t.Fatalf("unexpected diagnostics %q", services.Diagnostics(err))
	}
}

func TestRunToolTimeout(t *testing.T) {
	start := time.Now()
	_, err := services.RunTool(context.Background(), services.ExecRunner{}, 100*time.Millisecond, "sleep", "5")
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if time.Since(start) > 4*time.Second {
		t.Fatal("expected process to be killed at the deadline")
	}
}

func TestRunToolParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	runner := services.CommandRunnerFunc(func(ctx context.Context, name string, args ...string) (services.CommandResult, error) {
		return services.CommandResult{ExitCode: -1}, ctx.Err()
	})
	_, err := services.RunTool(ctx, runner, time.Minute, "noop")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if errors.Is(err, services.ErrTimeout) {
		t.Fatal("cancellation must not be reported as timeout")
	}
}
