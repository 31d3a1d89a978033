package exiftool

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"
)

// scriptedRunner returns queued results in order
type scriptedRunner struct {
	results []error
	calls   int
}

func (r *scriptedRunner) Run(ctx context.Context, args ...string) (string, error) {
	i := r.calls
	r.calls++
	if i < len(r.results) && r.results[i] != nil {
		return "", r.results[i]
	}
	return "ok", nil
}

func TestToolErrorIs(t *testing.T) {
	err := error(&ToolError{Args: []string{"-RegionName", "a.jpg"}, Stderr: "boom", ExitCode: 1})
	if !errors.Is(err, ErrExternalToolFailed) {
		t.Error("Expected ToolError to match ErrExternalToolFailed")
	}

	wrapped := errors.Join(errors.New("context"), err)
	var toolErr *ToolError
	if !errors.As(wrapped, &toolErr) {
		t.Fatal("Expected errors.As to find the ToolError")
	}
	if toolErr.Stderr != "boom" {
		t.Errorf("Expected stderr 'boom', got %q", toolErr.Stderr)
	}
}

func TestIsPermanent(t *testing.T) {
	if !IsPermanent("Error: File not found - a.jpg") {
		t.Error("Expected missing file to be permanent")
	}
	if IsPermanent("Error: Temporary resource unavailable") {
		t.Error("Expected transient failure not to be permanent")
	}
}

func TestRetryRunnerRecovers(t *testing.T) {
	inner := &scriptedRunner{results: []error{
		&ToolError{Stderr: "busy", ExitCode: 1},
		nil,
	}}
	r := NewRetryRunner(inner, 3, time.Millisecond, nil)

	out, err := r.Run(context.Background(), "-ver")
	if err != nil {
		t.Fatalf("Expected success after retry, got %v", err)
	}
	if out != "ok" {
		t.Errorf("Expected 'ok', got %q", out)
	}
	if inner.calls != 2 {
		t.Errorf("Expected 2 calls, got %d", inner.calls)
	}
}

func TestRetryRunnerBounded(t *testing.T) {
	busy := &ToolError{Stderr: "busy", ExitCode: 1}
	inner := &scriptedRunner{results: []error{busy, busy, busy, busy}}
	r := NewRetryRunner(inner, 3, time.Millisecond, nil)

	if _, err := r.Run(context.Background()); !errors.Is(err, ErrExternalToolFailed) {
		t.Errorf("Expected tool failure, got %v", err)
	}
	if inner.calls != 3 {
		t.Errorf("Expected 3 calls, got %d", inner.calls)
	}
}

func TestRetryRunnerPermanent(t *testing.T) {
	inner := &scriptedRunner{results: []error{&ToolError{Stderr: "Error: File not found - x", ExitCode: 1}}}
	r := NewRetryRunner(inner, 5, time.Millisecond, nil)

	if _, err := r.Run(context.Background()); err == nil {
		t.Error("Expected error")
	}
	if inner.calls != 1 {
		t.Errorf("Expected a single call for a permanent failure, got %d", inner.calls)
	}
}

func TestCommandRunnerFailure(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	r := NewCommandRunner(sh, nil)

	_, err = r.Run(context.Background(), "-c", "echo broken >&2; exit 3")
	var toolErr *ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("Expected ToolError, got %v", err)
	}
	if toolErr.ExitCode != 3 {
		t.Errorf("Expected exit code 3, got %d", toolErr.ExitCode)
	}
	if toolErr.Stderr != "broken" {
		t.Errorf("Expected stderr 'broken', got %q", toolErr.Stderr)
	}
}

func TestCommandRunnerStdout(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	r := NewCommandRunner(sh, nil)

	out, err := r.Run(context.Background(), "-c", "echo 'Region Name : A, B'")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out != "Region Name : A, B\n" {
		t.Errorf("Unexpected stdout %q", out)
	}
}
