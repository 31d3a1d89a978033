package types

import "fmt"

// AreaUnit is the coordinate system a region rectangle is expressed in
type AreaUnit string

// AreaUnitNormalized marks rectangles whose values are fractions of the
// image width and height.
const AreaUnitNormalized AreaUnit = "normalized"

// Region is a tagged rectangular area read from image metadata, e.g. a face
type Region struct {
	Name      string     `json:"name" yaml:"name"`
	Type      string     `json:"type" yaml:"type"`
	AreaUnit  AreaUnit   `json:"area_unit" yaml:"area_unit"`
	Rectangle [4]float64 `json:"rectangle" yaml:"rectangle"` // x, y, w, h
}

func (r Region) String() string {
	return fmt.Sprintf("%s (%s) %s %v", r.Name, r.Type, r.AreaUnit, r.Rectangle)
}

// NormalizedRectangle represents a bounding box with coordinates in [0,1] range.
// X+Width and Y+Height may exceed 1; consumers clip.
type NormalizedRectangle struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// RedactionSpec selects the regions to blur. An empty set accepts everything.
type RedactionSpec struct {
	Types []string `json:"types" yaml:"types"`
	Names []string `json:"names" yaml:"names"`
}

// RedactionResult is the outcome of redacting a single image
type RedactionResult struct {
	Destination string `json:"destination" yaml:"destination"`
	Matched     bool   `json:"matched" yaml:"matched"`
	Regions     int    `json:"regions" yaml:"regions"`
}

// Status is the per-file outcome reported by a batch run
type Status string

const (
	StatusSkippedRedacted Status = "skipped-already-redacted"
	StatusSkippedExists   Status = "skipped-exists"
	StatusNoMatch         Status = "no-matching-regions"
	StatusRedacted        Status = "redacted"
	StatusWouldRedact     Status = "would-redact"
	StatusFailed          Status = "failed"
)

// Outcome describes what happened to one candidate file
type Outcome struct {
	Source      string `json:"source" yaml:"source"`
	Destination string `json:"destination,omitempty" yaml:"destination,omitempty"`
	Status      Status `json:"status" yaml:"status"`
	Regions     int    `json:"regions,omitempty" yaml:"regions,omitempty"`
	Err         error  `json:"-" yaml:"-"`
	// Warning carries non-fatal problems, e.g. a failed metadata copy.
	Warning string `json:"warning,omitempty" yaml:"warning,omitempty"`
}
