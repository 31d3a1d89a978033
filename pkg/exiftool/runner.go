// Package exiftool invokes the exiftool metadata utility.
//
// Two backends are provided: CommandRunner starts one exiftool process per
// call and returns its text output, StayOpen keeps a single process alive
// through github.com/barasher/go-exiftool and returns structured fields.
package exiftool

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/menta2k/image-redactor/internal/logger"
)

// DefaultBinary is looked up in PATH when no binary is configured
const DefaultBinary = "exiftool"

// Runner executes exiftool with the given arguments and returns its stdout.
// A non-zero exit yields a *ToolError.
type Runner interface {
	Run(ctx context.Context, args ...string) (string, error)
}

// CommandRunner runs exiftool as a child process per call
type CommandRunner struct {
	binary string
	log    *logger.Logger
}

// NewCommandRunner creates a runner for binary (DefaultBinary when empty)
func NewCommandRunner(binary string, log *logger.Logger) *CommandRunner {
	if binary == "" {
		binary = DefaultBinary
	}
	if log == nil {
		log = logger.Nop()
	}
	return &CommandRunner{binary: binary, log: log.WithComponent("exiftool")}
}

// Run starts exiftool, waits for it and captures stdout and stderr.
func (r *CommandRunner) Run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, r.binary, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.log.Debug("Running exiftool", zap.Strings("args", args))

	err := cmd.Run()
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		toolErr := &ToolError{
			Args:     args,
			Stderr:   strings.TrimSpace(stderr.String()),
			ExitCode: -1,
			cause:    err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			toolErr.ExitCode = exitErr.ExitCode()
		}
		return "", toolErr
	}
	return stdout.String(), nil
}
