package exiftool

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/menta2k/image-redactor/internal/logger"
)

// Failures that will not go away by running exiftool again.
var rePermanent = regexp.MustCompile(
	`(?i)File not found|` +
		`Error: File format error|` +
		`Unknown file type|` +
		`Invalid TIFF header|` +
		`Not a valid`)

// IsPermanent reports whether stderr describes a failure that a retry
// cannot fix.
func IsPermanent(stderr string) bool {
	return rePermanent.MatchString(stderr)
}

// RetryRunner retries failed invocations of an inner Runner a bounded
// number of times. Permanent failures and cancellation are returned at once.
type RetryRunner struct {
	inner       Runner
	maxAttempts int
	delay       time.Duration
	log         *logger.Logger
}

// NewRetryRunner wraps inner. maxAttempts below 1 is treated as 1.
func NewRetryRunner(inner Runner, maxAttempts int, delay time.Duration, log *logger.Logger) *RetryRunner {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	return &RetryRunner{inner: inner, maxAttempts: maxAttempts, delay: delay, log: log.WithComponent("exiftool")}
}

// Run calls the inner runner until it succeeds or attempts run out.
func (r *RetryRunner) Run(ctx context.Context, args ...string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		out, err := r.inner.Run(ctx, args...)
		if err == nil {
			return out, nil
		}
		lastErr = err

		var toolErr *ToolError
		if !errors.As(err, &toolErr) || IsPermanent(toolErr.Stderr) {
			return "", err
		}
		if attempt == r.maxAttempts {
			break
		}

		r.log.Warn("Retrying", zap.Int("attempt", attempt+1), zap.Int("max_attempts", r.maxAttempts), zap.Error(err))
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(r.delay):
		}
	}
	return "", lastErr
}
