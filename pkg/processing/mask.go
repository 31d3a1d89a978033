package processing

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/menta2k/image-redactor/pkg/geometry"
	"github.com/menta2k/image-redactor/pkg/types"
)

// Mask values
const (
	MaskKeep   uint8 = 0
	MaskRedact uint8 = 255
)

// BuildMask rasterizes rects onto a single channel mask of size w x h.
// Rectangles reaching past the image are clipped.
func BuildMask(w, h int, rects []types.NormalizedRectangle) *image.Gray {
	mask := image.NewGray(image.Rect(0, 0, w, h))
	for _, rect := range rects {
		fillRect(mask, geometry.PixelBounds(rect, w, h), MaskRedact)
	}
	return mask
}

func fillRect(mask *image.Gray, r image.Rectangle, v uint8) {
	r = r.Canon().Intersect(mask.Bounds())
	if r.Empty() {
		return
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := mask.PixOffset(r.Min.X, y)
		row := mask.Pix[i : i+r.Dx()]
		for x := range row {
			row[x] = v
		}
	}
}

// Blur blurs the areas covered by rects and returns the composited image.
// With no rectangles img is returned as is.
func (p *Processor) Blur(img image.Image, rects []types.NormalizedRectangle) (image.Image, error) {
	if len(rects) == 0 {
		return img, nil
	}

	src := imaging.Clone(img)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("empty image")
	}

	mask := BuildMask(w, h, rects)
	if p.config.DebugMaskDir != "" {
		path, err := p.writeDebugMask(mask)
		if err != nil {
			return nil, err
		}
		defer p.removeDebugMask(path)
	}

	blurred := imaging.Blur(src, p.config.BlurRadius)
	composite(src, blurred, mask)
	return src, nil
}

// composite copies blurred pixels into dst wherever the mask is set.
// All three buffers share the same origin and size.
func composite(dst, blurred *image.NRGBA, mask *image.Gray) {
	b := mask.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		mi := mask.PixOffset(b.Min.X, y)
		di := dst.PixOffset(b.Min.X, y)
		for x := 0; x < b.Dx(); x++ {
			if mask.Pix[mi+x] != MaskKeep {
				copy(dst.Pix[di+x*4:di+x*4+4], blurred.Pix[di+x*4:di+x*4+4])
			}
		}
	}
}

func (p *Processor) writeDebugMask(mask *image.Gray) (string, error) {
	path := filepath.Join(p.config.DebugMaskDir, "mask-"+uuid.NewString()+".png")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create mask file: %w", err)
	}
	if err := imaging.Encode(f, mask, imaging.PNG); err != nil {
		f.Close()
		p.removeDebugMask(path)
		return "", fmt.Errorf("failed to write mask file: %w", err)
	}
	if err := f.Close(); err != nil {
		p.removeDebugMask(path)
		return "", fmt.Errorf("failed to write mask file: %w", err)
	}
	p.log.Debug("Mask written", zap.String("path", path))
	return path, nil
}

func (p *Processor) removeDebugMask(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		p.log.Warn("Failed to remove mask file", zap.String("path", path), zap.Error(fmt.Errorf("%w: %v", ErrResourceCleanup, err)))
	}
}
