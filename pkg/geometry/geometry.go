// Package geometry converts metadata regions into normalized rectangles and
// selects the regions to redact.
package geometry

import (
	"errors"
	"fmt"
	"image"
	"math"
	"slices"

	"github.com/menta2k/image-redactor/pkg/types"
)

// ErrUnsupportedAreaUnit is returned for regions not expressed in
// normalized coordinates.
var ErrUnsupportedAreaUnit = errors.New("unsupported area unit")

// ToRectangle converts a region into a normalized rectangle
func ToRectangle(region types.Region) (types.NormalizedRectangle, error) {
	if region.AreaUnit != types.AreaUnitNormalized {
		return types.NormalizedRectangle{}, fmt.Errorf("%w: %q for region %q", ErrUnsupportedAreaUnit, region.AreaUnit, region.Name)
	}
	return types.NormalizedRectangle{
		X:      region.Rectangle[0],
		Y:      region.Rectangle[1],
		Width:  region.Rectangle[2],
		Height: region.Rectangle[3],
	}, nil
}

// Matches reports whether region passes both the type and the name filter
func Matches(region types.Region, spec types.RedactionSpec) bool {
	if len(spec.Types) > 0 && !slices.Contains(spec.Types, region.Type) {
		return false
	}
	if len(spec.Names) > 0 && !slices.Contains(spec.Names, region.Name) {
		return false
	}
	return true
}

// Filter returns the matching regions, preserving order
func Filter(regions []types.Region, spec types.RedactionSpec) []types.Region {
	matched := make([]types.Region, 0, len(regions))
	for _, r := range regions {
		if Matches(r, spec) {
			matched = append(matched, r)
		}
	}
	return matched
}

// Select filters regions and converts the matches to rectangles.
func Select(regions []types.Region, spec types.RedactionSpec) ([]types.NormalizedRectangle, error) {
	matched := Filter(regions, spec)
	rects := make([]types.NormalizedRectangle, 0, len(matched))
	for _, r := range matched {
		rect, err := ToRectangle(r)
		if err != nil {
			return nil, err
		}
		rects = append(rects, rect)
	}
	return rects, nil
}

// PixelBounds maps a normalized rectangle onto a width x height image.
// Width and height scale with the full image dimension, so the result may
// extend past the image; it is not clipped here.
func PixelBounds(rect types.NormalizedRectangle, width, height int) image.Rectangle {
	w, h := float64(width), float64(height)
	x1 := rect.X * w
	y1 := rect.Y * h
	x2 := x1 + rect.Width*w
	y2 := y1 + rect.Height*h
	return image.Rect(
		int(math.Round(x1)),
		int(math.Round(y1)),
		int(math.Round(x2)),
		int(math.Round(y2)),
	)
}
