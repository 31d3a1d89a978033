package processing

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/menta2k/image-redactor/pkg/types"
)

// Options selects the optional post-processing steps
type Options struct {
	// MaxDimension is the target size of the larger side; <= 0 disables resizing.
	MaxDimension int
	// Text is drawn bottom-left when not empty.
	Text string
}

// Process runs the redaction chain: blur, resize, text overlay.
func (p *Processor) Process(img image.Image, rects []types.NormalizedRectangle, opts Options) (image.Image, error) {
	out, err := p.Blur(img, rects)
	if err != nil {
		return nil, err
	}
	out = p.Resize(out, opts.MaxDimension)
	return p.AddText(out, opts.Text)
}

// Resize scales img so its larger side equals maxDim, keeping the aspect ratio
func (p *Processor) Resize(img image.Image, maxDim int) image.Image {
	if maxDim <= 0 {
		return img
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return img
	}

	factor := float64(maxDim) / float64(max(w, h))
	nw := max(1, int(math.Round(factor*float64(w))))
	nh := max(1, int(math.Round(factor*float64(h))))
	return imaging.Resize(img, nw, nh, imaging.Lanczos)
}

var (
	outlineOffsets = [4]image.Point{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}}
	outlineColor   = color.Black
	fillColor      = color.White
)

// AddText draws text near the bottom-left corner with a 1px dark outline.
func (p *Processor) AddText(img image.Image, text string) (image.Image, error) {
	if text == "" {
		return img, nil
	}

	face, err := p.fonts.face(p.config.FontSize)
	if err != nil {
		return nil, err
	}
	defer face.Close()

	dst := imaging.Clone(img)
	x := p.config.TextMargin
	y := dst.Bounds().Dy() - p.config.TextMargin

	for _, off := range outlineOffsets {
		drawString(dst, face, text, x+off.X, y+off.Y, outlineColor)
	}
	drawString(dst, face, text, x, y, fillColor)
	return dst, nil
}

// drawString renders text with its baseline-left corner at (x, y)
func drawString(dst draw.Image, face font.Face, text string, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// fontCache parses the embedded font once. Faces hold glyph buffers and
// are not safe for concurrent use, so each call gets its own.
type fontCache struct {
	once sync.Once
	font *opentype.Font
	err  error
}

func (c *fontCache) face(size float64) (font.Face, error) {
	c.once.Do(func() {
		c.font, c.err = opentype.Parse(goregular.TTF)
	})
	if c.err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", c.err)
	}

	face, err := opentype.NewFace(c.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	return face, nil
}
