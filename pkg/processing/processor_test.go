package processing

import (
	"errors"
	"image"
	"image/color"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/menta2k/image-redactor/pkg/types"
)

// createTestImage creates a checkerboard so that blurring changes every pixel
func createTestImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x+y)%2 == 0 {
				img.Set(x, y, color.NRGBA{255, 255, 255, 255})
			} else {
				img.Set(x, y, color.NRGBA{0, 0, 0, 255})
			}
		}
	}
	return img
}

func countRedacted(mask *image.Gray) int {
	n := 0
	for _, v := range mask.Pix {
		if v == MaskRedact {
			n++
		}
	}
	return n
}

func testProcessor() *Processor {
	cfg := DefaultConfig()
	cfg.BlurRadius = 3
	cfg.FontSize = 12
	cfg.TextMargin = 4
	return NewProcessorWithConfig(cfg, nil)
}

func TestBlurWithoutRectanglesIsNoop(t *testing.T) {
	p := testProcessor()
	img := createTestImage(20, 20)

	out, err := p.Blur(img, nil)
	if err != nil {
		t.Fatalf("Blur failed: %v", err)
	}
	if out != image.Image(img) {
		t.Error("Expected the source image to be returned unchanged")
	}
}

func TestBuildMaskArea(t *testing.T) {
	rect := types.NormalizedRectangle{X: 0.1, Y: 0.2, Width: 0.3, Height: 0.4}
	mask := BuildMask(200, 100, []types.NormalizedRectangle{rect})

	want := int(math.Round(0.3*200)) * int(math.Round(0.4*100))
	if got := countRedacted(mask); got != want {
		t.Errorf("Expected %d redacted pixels, got %d", want, got)
	}
	if mask.GrayAt(19, 19).Y != MaskKeep {
		t.Error("Expected pixel outside the rectangle to be kept")
	}
	if mask.GrayAt(20, 20).Y != MaskRedact {
		t.Error("Expected top-left pixel of the rectangle to be redacted")
	}
}

func TestBuildMaskClipsOverflow(t *testing.T) {
	rect := types.NormalizedRectangle{X: 0.8, Y: 0.9, Width: 0.5, Height: 0.5}
	mask := BuildMask(100, 100, []types.NormalizedRectangle{rect})

	if got := countRedacted(mask); got != 20*10 {
		t.Errorf("Expected clipped area 200, got %d", got)
	}
}

func TestBuildMaskOverlapping(t *testing.T) {
	rects := []types.NormalizedRectangle{
		{X: 0, Y: 0, Width: 0.5, Height: 0.5},
		{X: 0.25, Y: 0.25, Width: 0.5, Height: 0.5},
	}
	mask := BuildMask(100, 100, rects)

	if got := countRedacted(mask); got != 2500+2500-625 {
		t.Errorf("Expected union area 4375, got %d", got)
	}
}

func TestBlurOnlyInsideMask(t *testing.T) {
	p := testProcessor()
	img := createTestImage(40, 40)
	rect := types.NormalizedRectangle{X: 0.25, Y: 0.25, Width: 0.5, Height: 0.5}

	out, err := p.Blur(img, []types.NormalizedRectangle{rect})
	if err != nil {
		t.Fatalf("Blur failed: %v", err)
	}
	if out.Bounds() != img.Bounds() {
		t.Fatalf("Expected bounds %v, got %v", img.Bounds(), out.Bounds())
	}

	outside := color.NRGBAModel.Convert(out.At(2, 2)).(color.NRGBA)
	if outside != img.NRGBAAt(2, 2) {
		t.Errorf("Expected pixel outside mask untouched, got %v", outside)
	}

	inside := color.NRGBAModel.Convert(out.At(20, 20)).(color.NRGBA)
	if inside == img.NRGBAAt(20, 20) {
		t.Errorf("Expected pixel inside mask to be blurred, got %v", inside)
	}

	// The source buffer itself is not modified.
	if img.NRGBAAt(20, 20) != (color.NRGBA{255, 255, 255, 255}) {
		t.Error("Expected source image to stay intact")
	}
}

func TestBlurRemovesDebugMask(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BlurRadius = 1
	cfg.DebugMaskDir = t.TempDir()
	p := NewProcessorWithConfig(cfg, nil)

	rect := types.NormalizedRectangle{X: 0, Y: 0, Width: 0.5, Height: 0.5}
	if _, err := p.Blur(createTestImage(10, 10), []types.NormalizedRectangle{rect}); err != nil {
		t.Fatalf("Blur failed: %v", err)
	}

	entries, err := os.ReadDir(cfg.DebugMaskDir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected mask file to be removed, found %d entries", len(entries))
	}
}

func TestResize(t *testing.T) {
	p := testProcessor()

	tests := []struct {
		w, h, maxDim int
		wantW, wantH int
	}{
		{400, 300, 200, 200, 150},
		{300, 400, 200, 150, 200},
		{333, 100, 100, 100, 30},
		{400, 300, 800, 800, 600},
		{400, 300, 0, 400, 300},
		{400, 300, -1, 400, 300},
	}

	for _, tt := range tests {
		out := p.Resize(createTestImage(tt.w, tt.h), tt.maxDim)
		b := out.Bounds()
		if b.Dx() != tt.wantW || b.Dy() != tt.wantH {
			t.Errorf("Resize(%dx%d, %d) = %dx%d, want %dx%d", tt.w, tt.h, tt.maxDim, b.Dx(), b.Dy(), tt.wantW, tt.wantH)
		}
	}
}

func TestAddText(t *testing.T) {
	p := testProcessor()
	img := image.NewNRGBA(image.Rect(0, 0, 120, 40))

	same, err := p.AddText(img, "")
	if err != nil {
		t.Fatalf("AddText failed: %v", err)
	}
	if same != image.Image(img) {
		t.Error("Expected empty text to return the image unchanged")
	}

	out, err := p.AddText(img, "blurred")
	if err != nil {
		t.Fatalf("AddText failed: %v", err)
	}
	painted := 0
	nrgba := out.(*image.NRGBA)
	for i := 3; i < len(nrgba.Pix); i += 4 {
		if nrgba.Pix[i] != 0 {
			painted++
		}
	}
	if painted == 0 {
		t.Error("Expected text pixels to be drawn")
	}
}

func TestProcessChain(t *testing.T) {
	p := testProcessor()
	rect := types.NormalizedRectangle{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.2}

	out, err := p.Process(createTestImage(200, 100), []types.NormalizedRectangle{rect}, Options{MaxDimension: 100, Text: "x"})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if out.Bounds().Dx() != 100 || out.Bounds().Dy() != 50 {
		t.Errorf("Expected 100x50, got %v", out.Bounds())
	}
}

func TestSaveImageAtomic(t *testing.T) {
	p := testProcessor()
	dir := t.TempDir()
	dst := filepath.Join(dir, "photo_blurred.jpg")

	if err := p.SaveImageAtomic(createTestImage(16, 16), dst); err != nil {
		t.Fatalf("SaveImageAtomic failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "photo_blurred.jpg" {
		t.Errorf("Expected only the destination file, got %v", entries)
	}

	img, err := p.LoadImage(dst)
	if err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}
	if img.Bounds().Dx() != 16 {
		t.Errorf("Expected width 16, got %d", img.Bounds().Dx())
	}
}

func TestSaveImageAtomicUnsupportedFormat(t *testing.T) {
	p := testProcessor()
	dir := t.TempDir()

	if err := p.SaveImageAtomic(createTestImage(4, 4), filepath.Join(dir, "photo.xyz")); err == nil {
		t.Fatal("Expected error for unsupported format")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("Expected no leftovers, got %v", entries)
	}
}

func TestSaveAndLoadPNG(t *testing.T) {
	p := testProcessor()
	path := filepath.Join(t.TempDir(), "a.png")
	src := createTestImage(8, 6)

	if err := p.SaveImageAtomic(src, path); err != nil {
		t.Fatalf("SaveImageAtomic failed: %v", err)
	}
	img, err := p.LoadImage(path)
	if err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}
	got := color.NRGBAModel.Convert(img.At(1, 0)).(color.NRGBA)
	if got != src.NRGBAAt(1, 0) {
		t.Errorf("Expected lossless PNG round trip, got %v", got)
	}
}

func TestLoadImageKeepsDecodeError(t *testing.T) {
	p := testProcessor()
	dir := t.TempDir()

	_, err := p.LoadImage(filepath.Join(dir, "missing.jpg"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected fs.ErrNotExist for a missing file, got %v", err)
	}

	garbage := filepath.Join(dir, "broken.jpg")
	if err := os.WriteFile(garbage, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = p.LoadImage(garbage)
	if !errors.Is(err, image.ErrFormat) {
		t.Errorf("Expected image.ErrFormat for unreadable data, got %v", err)
	}
	if err != nil && !strings.Contains(err.Error(), garbage) {
		t.Errorf("Expected the path in the error, got %v", err)
	}
}

func TestCreatePreview(t *testing.T) {
	p := testProcessor()
	img := image.NewNRGBA(image.Rect(0, 0, 100, 100))

	selected := []types.NormalizedRectangle{{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.2}}
	others := []types.NormalizedRectangle{{X: 0.6, Y: 0.6, Width: 0.6, Height: 0.6}}

	out := p.CreatePreview(img, selected, others).(*image.NRGBA)
	if out.NRGBAAt(10, 10) != (color.NRGBA{255, 0, 0, 255}) {
		t.Errorf("Expected red corner, got %v", out.NRGBAAt(10, 10))
	}
	if out.NRGBAAt(60, 60) != (color.NRGBA{0, 255, 0, 255}) {
		t.Errorf("Expected green corner, got %v", out.NRGBAAt(60, 60))
	}
	if out.NRGBAAt(50, 50) != (color.NRGBA{}) {
		t.Error("Expected untouched interior")
	}
}

func BenchmarkBuildMask(b *testing.B) {
	rects := []types.NormalizedRectangle{{X: 0.1, Y: 0.1, Width: 0.3, Height: 0.3}, {X: 0.5, Y: 0.5, Width: 0.2, Height: 0.2}}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		BuildMask(1920, 1080, rects)
	}
}

func TestGetImageInfo(t *testing.T) {
	info := GetImageInfo(createTestImage(400, 200))
	if info.Width != 400 || info.Height != 200 {
		t.Errorf("Expected 400x200, got %dx%d", info.Width, info.Height)
	}
	if info.AspectRatio != 2 {
		t.Errorf("Expected aspect ratio 2, got %f", info.AspectRatio)
	}
}
