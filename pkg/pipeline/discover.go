package pipeline

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/menta2k/image-redactor/internal/logger"
	"github.com/menta2k/image-redactor/internal/utils"
)

// ErrNotADirectory is returned when the batch root is missing or not a directory
var ErrNotADirectory = errors.New("not a directory")

// Discover recursively lists the processing candidates under root: files
// with one of exts (case-insensitive) whose stem does not end with marker.
// The result is sorted. Excluded outputs are logged at debug level.
func Discover(root string, exts []string, marker string, log *logger.Logger) ([]string, error) {
	if log == nil {
		log = logger.Nop()
	}

	if !utils.DirExists(root) {
		return nil, fmt.Errorf("%w: %s", ErrNotADirectory, root)
	}

	files, err := utils.ListImageFiles(root, exts)
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	candidates := files[:0]
	for _, f := range files {
		if utils.HasMarker(f, marker) {
			log.Debug("Skipping already redacted file", zap.String("file", f))
			continue
		}
		candidates = append(candidates, f)
	}
	sort.Strings(candidates)
	return candidates, nil
}
