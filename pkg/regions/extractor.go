// Package regions reads tagged image regions (faces, pets, ...) from
// image metadata.
package regions

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/menta2k/image-redactor/pkg/exiftool"
	"github.com/menta2k/image-redactor/pkg/types"
)

// Metadata tags queried per region attribute
const (
	TagName      = "RegionName"
	TagType      = "RegionType"
	TagAreaUnit  = "RegionAreaUnit"
	TagRectangle = "RegionRectangle"
)

// ErrMalformedRegionData is returned when rectangle values cannot be
// grouped into x, y, w, h tuples.
var ErrMalformedRegionData = errors.New("malformed region data")

// Source yields the regions tagged on an image or sidecar file
type Source interface {
	Extract(ctx context.Context, path string) ([]types.Region, error)
}

// Extractor reads regions by running exiftool once per attribute
type Extractor struct {
	runner exiftool.Runner
}

// NewExtractor creates an extractor backed by runner
func NewExtractor(runner exiftool.Runner) *Extractor {
	return &Extractor{runner: runner}
}

// Extract returns the regions tagged on path. An untagged file yields an
// empty list.
func (e *Extractor) Extract(ctx context.Context, path string) ([]types.Region, error) {
	tags := []string{TagName, TagType, TagAreaUnit, TagRectangle}
	outputs := make([]string, len(tags))

	for i, tag := range tags {
		out, err := e.runner.Run(ctx, "-"+tag, path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", tag, err)
		}
		outputs[i] = out
	}

	return Parse(outputs[0], outputs[1], outputs[2], outputs[3])
}

// Parse builds regions from the four "<Label>: v1, v2, ..." outputs.
func Parse(names, regionTypes, areaUnits, rectangles string) ([]types.Region, error) {
	if names == "" && regionTypes == "" && areaUnits == "" && rectangles == "" {
		return []types.Region{}, nil
	}

	var lists [4][]string
	for i, out := range []string{names, regionTypes, areaUnits, rectangles} {
		tokens, err := ParseList(out)
		if err != nil {
			return nil, err
		}
		lists[i] = tokens
	}

	return Assemble(lists[0], lists[1], lists[2], lists[3])
}

// ParseList splits one exiftool output line into its value tokens.
func ParseList(output string) ([]string, error) {
	output = strings.TrimSpace(output)
	if output == "" {
		return nil, nil
	}

	_, values, found := strings.Cut(output, ":")
	if !found {
		return nil, fmt.Errorf("%w: no label in %q", ErrMalformedRegionData, output)
	}
	values = strings.TrimSpace(values)
	if values == "" {
		return nil, nil
	}
	return strings.Split(values, ", "), nil
}

// Assemble zips index aligned attribute lists into regions. The rectangle
// list is flat and must hold a multiple of four values. When the lists
// disagree in length, the shortest one wins.
func Assemble(names, regionTypes, areaUnits, rectangleTokens []string) ([]types.Region, error) {
	rectangles, err := groupRectangles(rectangleTokens)
	if err != nil {
		return nil, err
	}

	n := min(len(names), len(regionTypes), len(areaUnits), len(rectangles))
	regions := make([]types.Region, 0, n)
	for i := 0; i < n; i++ {
		regions = append(regions, types.Region{
			Name:      names[i],
			Type:      regionTypes[i],
			AreaUnit:  types.AreaUnit(areaUnits[i]),
			Rectangle: rectangles[i],
		})
	}
	return regions, nil
}

func groupRectangles(tokens []string) ([][4]float64, error) {
	if len(tokens)%4 != 0 {
		return nil, fmt.Errorf("%w: %d rectangle values is not a multiple of 4", ErrMalformedRegionData, len(tokens))
	}

	rectangles := make([][4]float64, len(tokens)/4)
	for i, token := range tokens {
		v, err := strconv.ParseFloat(strings.TrimSpace(token), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: rectangle value %q: %v", ErrMalformedRegionData, token, err)
		}
		rectangles[i/4][i%4] = v
	}
	return rectangles, nil
}
