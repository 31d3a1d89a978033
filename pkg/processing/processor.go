package processing

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/image-redactor/internal/logger"
)

// ErrResourceCleanup is reported when a temporary file could not be removed
var ErrResourceCleanup = errors.New("resource cleanup failed")

// Config holds the tunables of the redaction chain
type Config struct {
	// BlurRadius is the gaussian sigma in pixels. 50 suits small faces on
	// low resolution images, 250 a close-up on a high resolution one.
	BlurRadius  float64
	JPEGQuality int
	WebPQuality int
	Lossless    bool
	// AutoOrient rotates pixels according to the EXIF orientation on load.
	AutoOrient bool
	FontSize   float64
	TextMargin int
	// DebugMaskDir, when set, receives each mask as a PNG for the duration
	// of the blur call.
	DebugMaskDir string
}

// DefaultConfig returns the settings used when nothing is configured
func DefaultConfig() Config {
	return Config{
		BlurRadius:  200,
		JPEGQuality: 75,
		WebPQuality: 75,
		FontSize:    64,
		TextMargin:  80,
	}
}

// Processor handles image processing operations
type Processor struct {
	config Config
	log    *logger.Logger
	fonts  *fontCache
}

// NewProcessor creates a new image processor with default configuration
func NewProcessor() *Processor {
	return NewProcessorWithConfig(DefaultConfig(), nil)
}

// NewProcessorWithConfig creates a processor with custom configuration
func NewProcessorWithConfig(config Config, log *logger.Logger) *Processor {
	if log == nil {
		log = logger.Nop()
	}
	return &Processor{
		config: config,
		log:    log.WithComponent("processing"),
		fonts:  &fontCache{},
	}
}

// Config returns the processor configuration
func (p *Processor) Config() Config {
	return p.config
}

// LoadImage loads an image from a file path with WebP support
func (p *Processor) LoadImage(path string) (image.Image, error) {
	// Try imaging.Open (registered decoders)
	img, openErr := imaging.Open(path, imaging.AutoOrientation(p.config.AutoOrient))
	if openErr == nil {
		return img, nil
	}
	if !strings.EqualFold(filepath.Ext(path), ".webp") {
		return nil, fmt.Errorf("failed to decode %s: %w", path, openErr)
	}

	// Fallback: explicit WebP decode
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	webpImg, webpErr := webp.Decode(f)
	if webpErr == nil {
		return webpImg, nil
	}
	if _, err := f.Seek(0, io.SeekStart); err == nil {
		if img, _, err := image.Decode(f); err == nil {
			return img, nil
		}
	}
	return nil, fmt.Errorf("failed to decode %s: %w", path, errors.Join(openErr, webpErr))
}

// SaveImageAtomic writes img to a temporary file next to dst and renames
// it into place, so dst is either absent or complete.
func (p *Processor) SaveImageAtomic(img image.Image, dst string) error {
	dir := filepath.Dir(dst)
	tmp := filepath.Join(dir, "."+filepath.Base(dst)+"."+uuid.NewString()+".tmp")

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	err = p.Encode(f, img, filepath.Ext(dst))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp, dst)
	}
	if err != nil {
		if rerr := os.Remove(tmp); rerr != nil && !os.IsNotExist(rerr) {
			p.log.Warn("Failed to remove temporary file", zap.String("path", tmp), zap.Error(fmt.Errorf("%w: %v", ErrResourceCleanup, rerr)))
		}
		return fmt.Errorf("failed to save %s: %w", dst, err)
	}
	return nil
}

// Encode writes img to w in the format named by ext (".jpg", ".png", ...)
func (p *Processor) Encode(w io.Writer, img image.Image, ext string) error {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "webp":
		opts := &webp.Options{Lossless: p.config.Lossless, Quality: float32(p.config.WebPQuality)}
		return webp.Encode(w, img, opts)
	case "png":
		return imaging.Encode(w, img, imaging.PNG)
	case "jpg", "jpeg":
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(p.config.JPEGQuality))
	default:
		format, err := imaging.FormatFromExtension(ext)
		if err != nil {
			return fmt.Errorf("unsupported output format: %s", ext)
		}
		return imaging.Encode(w, img, format)
	}
}

// ImageInfo contains basic image metadata
type ImageInfo struct {
	Width       int     `json:"width" yaml:"width"`
	Height      int     `json:"height" yaml:"height"`
	AspectRatio float64 `json:"aspect_ratio" yaml:"aspect_ratio"`
}

// GetImageInfo returns basic information about an image
func GetImageInfo(img image.Image) ImageInfo {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	info := ImageInfo{Width: width, Height: height}
	if height > 0 {
		info.AspectRatio = float64(width) / float64(height)
	}
	return info
}

// Helper functions
func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
