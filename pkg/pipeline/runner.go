package pipeline

import (
	"context"
	"sync"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/menta2k/image-redactor/internal/logger"
	"github.com/menta2k/image-redactor/pkg/types"
)

// RunnerConfig configures batch execution
type RunnerConfig struct {
	Extensions []string
	Workers    int
	Progress   bool
}

// Runner applies a Pipeline to every candidate under a root directory
type Runner struct {
	pipeline *Pipeline
	config   RunnerConfig
	log      *logger.Logger
}

// NewRunner creates a batch runner
func NewRunner(p *Pipeline, config RunnerConfig, log *logger.Logger) *Runner {
	if config.Workers < 1 {
		config.Workers = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Runner{pipeline: p, config: config, log: log.WithComponent("runner")}
}

// Run processes every candidate under root with a bounded number of
// workers. A failing file is recorded and the batch moves on. Once ctx is
// cancelled no new file is started; files in flight finish their current
// step and report the cancellation.
func (r *Runner) Run(ctx context.Context, root string) (*Report, error) {
	files, err := Discover(root, r.config.Extensions, r.pipeline.Options().Marker, r.log)
	if err != nil {
		return nil, err
	}

	r.log.Info("Starting batch",
		zap.String("root", root),
		zap.Int("files", len(files)),
		zap.Int("workers", r.config.Workers))

	report := NewReport()
	bar := r.newProgressBar(len(files))

	sem := make(chan struct{}, r.config.Workers)
	var wg sync.WaitGroup

schedule:
	for _, path := range files {
		if ctx.Err() != nil {
			break schedule
		}
		select {
		case <-ctx.Done():
			break schedule
		case sem <- struct{}{}:
		}
		// select picks at random when both cases are ready
		if ctx.Err() != nil {
			<-sem
			break schedule
		}

		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			defer func() { <-sem }()

			outcome := r.pipeline.ProcessFile(ctx, path)
			r.logOutcome(outcome)
			report.Add(outcome)

			if bar != nil {
				_ = bar.Add(1)
			}
		}(path)
	}
	wg.Wait()

	if bar != nil {
		_ = bar.Finish()
	}

	r.log.Info("Batch finished", zap.String("summary", report.Summary()))
	return report, ctx.Err()
}

func (r *Runner) logOutcome(o types.Outcome) {
	switch o.Status {
	case types.StatusFailed:
		r.log.Error("Failed to redact", zap.String("file", o.Source), zap.Error(o.Err))
	case types.StatusRedacted, types.StatusWouldRedact:
		fields := []zap.Field{
			zap.String("file", o.Source),
			zap.String("status", string(o.Status)),
			zap.Int("regions", o.Regions),
		}
		if o.Warning != "" {
			fields = append(fields, zap.String("warning", o.Warning))
		}
		r.log.Info("Processed", fields...)
	default:
		r.log.Debug("Processed", zap.String("file", o.Source), zap.String("status", string(o.Status)))
	}
}

// newProgressBar creates a progress bar, or nil when disabled
func (r *Runner) newProgressBar(count int) *progressbar.ProgressBar {
	if !r.config.Progress || count == 0 {
		return nil
	}
	return progressbar.NewOptions(count,
		progressbar.OptionSetDescription("Redacting"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("images"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)
}
