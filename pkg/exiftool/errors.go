package exiftool

import (
	"errors"
	"fmt"
	"strings"
)

// ErrExternalToolFailed matches every *ToolError via errors.Is.
var ErrExternalToolFailed = errors.New("exiftool failed")

// ToolError holds the outcome of a failed exiftool invocation.
type ToolError struct {
	Args     []string
	Stderr   string
	ExitCode int
	cause    error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("exiftool %s: exit %d", strings.Join(e.Args, " "), e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// Is reports ErrExternalToolFailed as a match.
func (e *ToolError) Is(target error) bool {
	return target == ErrExternalToolFailed
}

func (e *ToolError) Unwrap() error {
	return e.cause
}
