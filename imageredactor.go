// Package imageredactor blurs tagged regions, such as faces, in batches of
// images.
//
// Regions are read from the image metadata (or an XMP sidecar) with
// exiftool, filtered by name and type, and blurred through a mask. The
// result is written next to the source under a marked name, and the
// orientation, GPS and capture dates are copied back from the original.
// Files already carrying the marker, and sources whose output exists, are
// skipped, so a directory can be processed again safely.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//
//		"github.com/menta2k/image-redactor"
//		"github.com/menta2k/image-redactor/internal/config"
//		"github.com/menta2k/image-redactor/internal/logger"
//	)
//
//	func main() {
//		cfg := config.Default()
//		cfg.Input.Dir = "photos"
//		cfg.Redaction.Names = []string{"Alice"}
//
//		redactor, err := imageredactor.New(cfg, logger.Nop())
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer redactor.Close()
//
//		report, err := redactor.Run(context.Background())
//		if err != nil {
//			log.Fatal(err)
//		}
//		fmt.Println(report.Summary())
//	}
//
// The package wires these components:
//
//  1. Exiftool (pkg/exiftool): one-shot, retrying and stay-open exiftool backends
//  2. Regions (pkg/regions): region metadata parsing
//  3. Geometry (pkg/geometry): filtering and normalized to pixel mapping
//  4. Processing (pkg/processing): masked blur, resize, text overlay, atomic save
//  5. Provenance (pkg/provenance): metadata copy to the redacted output
//  6. Pipeline (pkg/pipeline): skip rules, batch runner, watch mode, reports
package imageredactor

import (
	"context"
	"fmt"
	"image"

	"go.uber.org/zap"

	"github.com/menta2k/image-redactor/internal/config"
	"github.com/menta2k/image-redactor/internal/logger"
	"github.com/menta2k/image-redactor/pkg/exiftool"
	"github.com/menta2k/image-redactor/pkg/geometry"
	"github.com/menta2k/image-redactor/pkg/imagefiles"
	"github.com/menta2k/image-redactor/pkg/pipeline"
	"github.com/menta2k/image-redactor/pkg/processing"
	"github.com/menta2k/image-redactor/pkg/provenance"
	"github.com/menta2k/image-redactor/pkg/regions"
	"github.com/menta2k/image-redactor/pkg/types"
)

// Version of the image redactor
const Version = "1.0.0"

// ImageRedactor provides a high-level interface over the redaction pipeline
type ImageRedactor struct {
	config    *config.Config
	log       *logger.Logger
	stayOpen  *exiftool.StayOpen
	source    regions.Source
	processor *processing.Processor
	pipeline  *pipeline.Pipeline
	runner    *pipeline.Runner
}

// New creates an ImageRedactor backed by the exiftool binary named in cfg.
// With exiftool.stay_open set, region reads go through a single long-lived
// exiftool process; Close must then be called to stop it.
func New(cfg *config.Config, log *logger.Logger) (*ImageRedactor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if log == nil {
		log = logger.Nop()
	}

	tool := NewToolRunner(cfg.Exiftool, log)

	if !cfg.Exiftool.StayOpen {
		return NewWithComponents(cfg, regions.NewExtractor(tool), tool, log)
	}

	stayOpen, err := exiftool.NewStayOpen(cfg.Exiftool.Binary)
	if err != nil {
		return nil, err
	}
	r, err := NewWithComponents(cfg, regions.NewFieldExtractor(stayOpen), tool, log)
	if err != nil {
		stayOpen.Close()
		return nil, err
	}
	r.stayOpen = stayOpen
	return r, nil
}

// NewToolRunner returns the exiftool runner described by cfg, wrapped in
// bounded retries when cfg.Retries is positive.
func NewToolRunner(cfg config.ExiftoolConfig, log *logger.Logger) exiftool.Runner {
	var runner exiftool.Runner = exiftool.NewCommandRunner(cfg.Binary, log)
	if cfg.Retries > 0 {
		runner = exiftool.NewRetryRunner(runner, cfg.Retries+1, cfg.RetryDelay, log)
	}
	return runner
}

// NewWithComponents creates an ImageRedactor reading regions from source
// and copying metadata through tool.
func NewWithComponents(cfg *config.Config, source regions.Source, tool exiftool.Runner, log *logger.Logger) (*ImageRedactor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if log == nil {
		log = logger.Nop()
	}

	processor := processing.NewProcessorWithConfig(cfg.Processing(), log)
	p := pipeline.New(source, processor, provenance.NewCopier(tool), pipeline.Options{
		Spec:           cfg.Spec(),
		Marker:         cfg.Output.Marker,
		Reprocess:      cfg.Batch.Reprocess,
		DeleteOriginal: cfg.Batch.DeleteOriginal,
		DryRun:         cfg.Batch.DryRun,
		Provenance:     cfg.Provenance,
		Post:           cfg.PostProcessing(),
	}, log)

	runner := pipeline.NewRunner(p, pipeline.RunnerConfig{
		Extensions: cfg.Input.Extensions,
		Workers:    cfg.Batch.Workers,
		Progress:   cfg.Batch.Progress,
	}, log)

	return &ImageRedactor{
		config:    cfg,
		log:       log,
		source:    source,
		processor: processor,
		pipeline:  p,
		runner:    runner,
	}, nil
}

// Config returns the configuration the redactor was built with
func (ir *ImageRedactor) Config() *config.Config {
	return ir.config
}

// Run processes the configured input directory and writes the report file
// when one is configured.
func (ir *ImageRedactor) Run(ctx context.Context) (*pipeline.Report, error) {
	report, err := ir.runner.Run(ctx, ir.config.Input.Dir)
	if report != nil {
		ir.saveReport(report)
	}
	return report, err
}

// Watch processes the input directory and keeps processing new files
// until ctx is cancelled.
func (ir *ImageRedactor) Watch(ctx context.Context, onReport func(*pipeline.Report)) error {
	return ir.runner.Watch(ctx, ir.config.Input.Dir, ir.config.Batch.WatchDebounce, func(report *pipeline.Report) {
		ir.saveReport(report)
		if onReport != nil {
			onReport(report)
		}
	})
}

// RedactFile runs the skip rules and the pipeline for a single file
func (ir *ImageRedactor) RedactFile(ctx context.Context, path string) types.Outcome {
	return ir.pipeline.ProcessFile(ctx, path)
}

// Regions returns every region tagged on path, read from its sidecar when
// it has one.
func (ir *ImageRedactor) Regions(ctx context.Context, path string) ([]types.Region, error) {
	set, err := imagefiles.New(path)
	if err != nil {
		return nil, err
	}
	return ir.source.Extract(ctx, set.MetadataSource())
}

// LoadImage loads path the way the pipeline does
func (ir *ImageRedactor) LoadImage(path string) (image.Image, error) {
	return ir.processor.LoadImage(path)
}

// Preview writes a copy of path to dst with the regions that would be
// blurred outlined in red and all other regions in green.
func (ir *ImageRedactor) Preview(ctx context.Context, path, dst string) error {
	found, err := ir.Regions(ctx, path)
	if err != nil {
		return err
	}

	spec := ir.config.Spec()
	selected, err := geometry.Select(found, spec)
	if err != nil {
		return err
	}

	var others []types.NormalizedRectangle
	for _, region := range found {
		if geometry.Matches(region, spec) {
			continue
		}
		rect, err := geometry.ToRectangle(region)
		if err != nil {
			ir.log.Warn("Skipping region in preview", zap.String("region", region.String()), zap.Error(err))
			continue
		}
		others = append(others, rect)
	}

	img, err := ir.processor.LoadImage(path)
	if err != nil {
		return err
	}
	return ir.processor.SaveImageAtomic(ir.processor.CreatePreview(img, selected, others), dst)
}

// Close stops the stay-open exiftool process, if any
func (ir *ImageRedactor) Close() error {
	if ir.stayOpen == nil {
		return nil
	}
	return ir.stayOpen.Close()
}

func (ir *ImageRedactor) saveReport(report *pipeline.Report) {
	if ir.config.Output.Report == "" {
		return
	}
	if err := report.SaveYAML(ir.config.Output.Report); err != nil {
		ir.log.Error("Failed to write report", zap.String("path", ir.config.Output.Report), zap.Error(err))
	}
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
