package geometry

import (
	"errors"
	"image"
	"testing"

	"github.com/menta2k/image-redactor/pkg/types"
)

func sampleRegions() []types.Region {
	return []types.Region{
		{Name: "A", Type: "Face", AreaUnit: types.AreaUnitNormalized, Rectangle: [4]float64{0.1, 0.2, 0.3, 0.4}},
		{Name: "B", Type: "Face", AreaUnit: types.AreaUnitNormalized, Rectangle: [4]float64{0.5, 0.6, 0.7, 0.8}},
		{Name: "Rex", Type: "Pet", AreaUnit: types.AreaUnitNormalized, Rectangle: [4]float64{0, 0, 0.1, 0.1}},
	}
}

func TestToRectangle(t *testing.T) {
	rect, err := ToRectangle(sampleRegions()[0])
	if err != nil {
		t.Fatalf("ToRectangle failed: %v", err)
	}
	want := types.NormalizedRectangle{X: 0.1, Y: 0.2, Width: 0.3, Height: 0.4}
	if rect != want {
		t.Errorf("Expected %v, got %v", want, rect)
	}
}

func TestToRectangleUnsupportedUnit(t *testing.T) {
	region := types.Region{Name: "A", Type: "Face", AreaUnit: "pixel", Rectangle: [4]float64{10, 10, 20, 20}}
	if _, err := ToRectangle(region); !errors.Is(err, ErrUnsupportedAreaUnit) {
		t.Errorf("Expected ErrUnsupportedAreaUnit, got %v", err)
	}
}

func TestFilterByType(t *testing.T) {
	got := Filter(sampleRegions(), types.RedactionSpec{Types: []string{"Face"}})
	if len(got) != 2 || got[0].Name != "A" || got[1].Name != "B" {
		t.Errorf("Expected faces A and B in order, got %v", got)
	}
}

func TestFilterByName(t *testing.T) {
	got := Filter(sampleRegions(), types.RedactionSpec{Names: []string{"A"}})
	if len(got) != 1 || got[0].Name != "A" {
		t.Errorf("Expected only A, got %v", got)
	}
}

func TestFilterEmptySpecAcceptsAll(t *testing.T) {
	got := Filter(sampleRegions(), types.RedactionSpec{})
	if len(got) != 3 {
		t.Errorf("Expected all regions, got %d", len(got))
	}
}

func TestFilterTypeAndName(t *testing.T) {
	got := Filter(sampleRegions(), types.RedactionSpec{Types: []string{"Pet"}, Names: []string{"A", "Rex"}})
	if len(got) != 1 || got[0].Name != "Rex" {
		t.Errorf("Expected only Rex, got %v", got)
	}
}

func TestSelectStopsOnUnsupportedUnit(t *testing.T) {
	regions := append(sampleRegions(), types.Region{Name: "C", Type: "Face", AreaUnit: "pixel"})

	if _, err := Select(regions, types.RedactionSpec{Types: []string{"Face"}}); !errors.Is(err, ErrUnsupportedAreaUnit) {
		t.Errorf("Expected ErrUnsupportedAreaUnit, got %v", err)
	}

	// The offending region is filtered out, so selection succeeds.
	rects, err := Select(regions, types.RedactionSpec{Names: []string{"A"}})
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(rects) != 1 {
		t.Errorf("Expected 1 rectangle, got %d", len(rects))
	}
}

func TestPixelBounds(t *testing.T) {
	got := PixelBounds(types.NormalizedRectangle{X: 0.1, Y: 0.2, Width: 0.3, Height: 0.4}, 200, 100)
	want := image.Rect(20, 20, 80, 60)
	if got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestPixelBoundsOverflow(t *testing.T) {
	got := PixelBounds(types.NormalizedRectangle{X: 0.8, Y: 0.9, Width: 0.5, Height: 0.5}, 100, 100)
	want := image.Rect(80, 90, 130, 140)
	if got != want {
		t.Errorf("Expected unclipped %v, got %v", want, got)
	}
}
