// Package pipeline sequences discovery, the skip rules and the per-file
// redaction steps over a directory tree.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/menta2k/image-redactor/internal/logger"
	"github.com/menta2k/image-redactor/internal/utils"
	"github.com/menta2k/image-redactor/pkg/geometry"
	"github.com/menta2k/image-redactor/pkg/imagefiles"
	"github.com/menta2k/image-redactor/pkg/processing"
	"github.com/menta2k/image-redactor/pkg/provenance"
	"github.com/menta2k/image-redactor/pkg/regions"
	"github.com/menta2k/image-redactor/pkg/types"
)

// Options configures a Pipeline
type Options struct {
	Spec           types.RedactionSpec
	Marker         string
	Reprocess      bool
	DeleteOriginal bool
	DryRun         bool
	Provenance     provenance.Flags
	Post           processing.Options
}

// Pipeline redacts one file at a time. It holds no per-file state and may
// be shared by concurrent workers.
type Pipeline struct {
	source    regions.Source
	processor *processing.Processor
	copier    *provenance.Copier
	opts      Options
	log       *logger.Logger
}

// New creates a pipeline from its components
func New(source regions.Source, processor *processing.Processor, copier *provenance.Copier, opts Options, log *logger.Logger) *Pipeline {
	if log == nil {
		log = logger.Nop()
	}
	return &Pipeline{
		source:    source,
		processor: processor,
		copier:    copier,
		opts:      opts,
		log:       log.WithComponent("pipeline"),
	}
}

// Options returns the pipeline settings
func (p *Pipeline) Options() Options {
	return p.opts
}

// Destination returns the output path for path
func (p *Pipeline) Destination(path string) string {
	return utils.GenerateOutputFilename(path, p.opts.Marker)
}

// ProcessFile runs the skip rules and the redaction steps for path. Errors
// are reported in the returned outcome and never abort the caller.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) types.Outcome {
	log := p.log.WithFile(path)
	out := types.Outcome{Source: path, Destination: p.Destination(path)}

	decision := Decide(path, utils.FileExists(out.Destination), Policy{
		Marker:    p.opts.Marker,
		Reprocess: p.opts.Reprocess,
	})

	switch decision {
	case SkipAlreadyRedacted:
		log.Debug("Skipping already redacted file")
		out.Destination = ""
		out.Status = types.StatusSkippedRedacted
		return out
	case SkipDestinationExists:
		log.Debug("Skipping, output already exists", zap.String("destination", out.Destination))
		out.Status = types.StatusSkippedExists
		return out
	}

	if err := ctx.Err(); err != nil {
		return failed(out, err)
	}

	// Region tags may have changed since the output was written.
	if decision == ReprocessDestination && !p.opts.DryRun {
		log.Info("Removing stale output", zap.String("destination", out.Destination))
		if err := utils.RemoveIfExists(out.Destination); err != nil {
			return failed(out, fmt.Errorf("failed to remove stale output: %w", err))
		}
	}

	set, err := imagefiles.New(path)
	if err != nil {
		return failed(out, err)
	}

	found, err := p.source.Extract(ctx, set.MetadataSource())
	if err != nil {
		return failed(out, fmt.Errorf("failed to read regions: %w", err))
	}

	rects, err := geometry.Select(found, p.opts.Spec)
	if err != nil {
		return failed(out, err)
	}
	if len(rects) == 0 {
		log.Debug("No matching regions", zap.Int("regions", len(found)))
		out.Destination = ""
		out.Status = types.StatusNoMatch
		return out
	}
	out.Regions = len(rects)

	if p.opts.DryRun {
		out.Status = types.StatusWouldRedact
		return out
	}

	img, err := p.processor.LoadImage(set.Primary())
	if err != nil {
		return failed(out, err)
	}

	result, err := p.processor.Process(img, rects, p.opts.Post)
	if err != nil {
		return failed(out, err)
	}

	if err := ctx.Err(); err != nil {
		return failed(out, err)
	}

	if err := p.processor.SaveImageAtomic(result, out.Destination); err != nil {
		return failed(out, err)
	}
	out.Status = types.StatusRedacted

	// The sidecar holds edits made after capture, so it wins over the primary.
	if err := p.copier.Copy(ctx, set.MetadataSource(), out.Destination, p.opts.Provenance); err != nil {
		log.Warn("Metadata copy failed, keeping output", zap.Error(err))
		out.Warning = err.Error()
		return out
	}

	if p.opts.DeleteOriginal && ctx.Err() == nil {
		if err := deleteSources(set); err != nil {
			log.Warn("Failed to delete original", zap.Error(err))
			out.Warning = err.Error()
		}
	}

	log.Debug("Redacted", zap.Int("regions", out.Regions), zap.String("destination", out.Destination))
	return out
}

// deleteSources removes the primary file and its sidecar
func deleteSources(set *imagefiles.ImageFileSet) error {
	if err := utils.RemoveIfExists(set.Primary()); err != nil {
		return fmt.Errorf("failed to delete %s: %w", set.Primary(), err)
	}
	if sidecar, ok := set.Sidecar(); ok {
		if err := utils.RemoveIfExists(sidecar); err != nil {
			return fmt.Errorf("failed to delete %s: %w", sidecar, err)
		}
	}
	return nil
}

func failed(out types.Outcome, err error) types.Outcome {
	out.Status = types.StatusFailed
	out.Err = err
	return out
}
