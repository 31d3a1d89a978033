// Package provenance copies descriptive metadata (orientation, GPS, capture
// dates) from an original image to its redacted copy.
package provenance

import (
	"context"
	"fmt"

	"github.com/menta2k/image-redactor/pkg/exiftool"
)

// Flags selects the tag groups to copy
type Flags struct {
	Orientation bool `json:"orientation" yaml:"orientation" mapstructure:"orientation"`
	GPS         bool `json:"gps" yaml:"gps" mapstructure:"gps"`
	Date        bool `json:"date" yaml:"date" mapstructure:"date"`
}

// Any reports whether at least one tag group is selected
func (f Flags) Any() bool {
	return f.Orientation || f.GPS || f.Date
}

// Copier re-applies metadata through exiftool
type Copier struct {
	runner exiftool.Runner
}

// NewCopier creates a copier backed by runner
func NewCopier(runner exiftool.Runner) *Copier {
	return &Copier{runner: runner}
}

// Args returns the exiftool arguments copying the selected tags from src to dst
func Args(src, dst string, flags Flags) []string {
	args := []string{"-overwrite_original", "-tagsfromfile", src}
	if flags.Orientation {
		args = append(args, "-orientation")
	}
	if flags.GPS {
		args = append(args, "-gps:all")
	}
	if flags.Date {
		args = append(args, "-alldates")
	}
	return append(args, dst)
}

// Copy copies the selected tag groups from src to dst in a single exiftool
// call. Nothing runs when no group is selected. dst is left in place on
// failure.
func (c *Copier) Copy(ctx context.Context, src, dst string, flags Flags) error {
	if !flags.Any() {
		return nil
	}
	if _, err := c.runner.Run(ctx, Args(src, dst, flags)...); err != nil {
		return fmt.Errorf("failed to copy metadata to %s: %w", dst, err)
	}
	return nil
}
