package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/menta2k/image-redactor/internal/utils"
	"github.com/menta2k/image-redactor/pkg/imagefiles"
)

// Watch runs the batch once, then again whenever image or sidecar files
// under root are created, written or renamed. Bursts of events closer than
// debounce are coalesced into one run. onReport, if set, receives the report
// of every run. Watch returns when ctx is cancelled.
func (r *Runner) Watch(ctx context.Context, root string, debounce time.Duration, onReport func(*Report)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := r.watchTree(watcher, root); err != nil {
		return err
	}

	run := func() error {
		report, err := r.Run(ctx, root)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		if report != nil && onReport != nil {
			onReport(report)
		}
		return nil
	}

	if err := run(); err != nil {
		return err
	}

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) && utils.DirExists(event.Name) {
				if err := r.watchTree(watcher, event.Name); err != nil {
					r.log.Warn("Failed to watch new directory", zap.Error(err))
				}
			}
			if !r.relevant(event) {
				continue
			}
			r.log.Debug("Change detected", zap.String("file", event.Name), zap.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.log.Warn("Watcher error", zap.Error(err))

		case <-fire:
			fire = nil
			if err := run(); err != nil {
				return err
			}
		}
	}
}

// watchTree adds dir and every directory below it to watcher
func (r *Runner) watchTree(watcher *fsnotify.Watcher, dir string) error {
	dirs, err := utils.ListDirs(dir)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", dir, err)
	}
	for _, d := range dirs {
		if err := watcher.Add(d); err != nil {
			return fmt.Errorf("failed to watch %s: %w", d, err)
		}
	}
	return nil
}

// relevant filters out our own outputs, temp files and removals
func (r *Runner) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return false
	}
	if imagefiles.IsSidecar(event.Name) {
		return true
	}
	return utils.HasExtension(event.Name, r.config.Extensions) &&
		!utils.HasMarker(event.Name, r.pipeline.Options().Marker)
}
