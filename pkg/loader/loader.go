// Package loader decodes raw image bytes, filters selected files by name and
// hands back upright images ready for placement.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/chai2010/webp"
	"github.com/rs/zerolog"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/image-cropper/pkg/orientation"
)

// ErrUnsupportedFormat is returned for data no registered decoder accepts
var ErrUnsupportedFormat = errors.New("image: unknown or unsupported format")

// DefaultAllowedFiles matches the file names accepted for loading
const DefaultAllowedFiles = `(?i)\.(jpe?g|png|gif|bmp|tiff?|webp)$`

// Config holds configuration for the loader
type Config struct {
	SupportedFormats []string
	MinImageSize     int
	AllowedFiles     string
	Orientation      orientation.Mode
}

// DefaultConfig returns the default loader configuration
func DefaultConfig() Config {
	return Config{
		SupportedFormats: []string{"jpeg", "png", "gif", "bmp", "tiff", "webp"},
		MinImageSize:     1,
		AllowedFiles:     DefaultAllowedFiles,
		Orientation:      orientation.ModeFull,
	}
}

// Loader decodes and normalizes images
type Loader struct {
	config     Config
	filter     *regexp.Regexp
	normalizer *orientation.Normalizer
	logger     zerolog.Logger
}

// New creates a Loader with default configuration
func New() *Loader {
	l, _ := NewWithConfig(DefaultConfig(), zerolog.Nop())
	return l
}

// NewWithConfig creates a Loader with custom configuration
func NewWithConfig(config Config, logger zerolog.Logger) (*Loader, error) {
	pattern := config.AllowedFiles
	if pattern == "" {
		pattern = DefaultAllowedFiles
	}
	filter, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid allowed files pattern: %w", err)
	}
	return &Loader{
		config:     config,
		filter:     filter,
		normalizer: orientation.NewWithMode(config.Orientation, logger),
		logger:     logger,
	}, nil
}

// Result is a decoded, upright image
type Result struct {
	Image       image.Image
	Format      string
	Orientation orientation.Tag
	Info        ImageInfo
}

// ImageInfo contains basic image metadata
type ImageInfo struct {
	Width       int
	Height      int
	AspectRatio float64
	Area        int
}

// GetImageInfo returns basic information about an image
func GetImageInfo(img image.Image) ImageInfo {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	info := ImageInfo{
		Width:  width,
		Height: height,
		Area:   width * height,
	}
	if height > 0 {
		info.AspectRatio = float64(width) / float64(height)
	}
	return info
}

// Allowed reports whether a selected file name passes the file filter
func (l *Loader) Allowed(name string) bool {
	return l.filter.MatchString(name)
}

// Decode decodes raw bytes with the registered decoders, falling back to
// an explicit WebP decode.
func (l *Loader) Decode(data []byte) (image.Image, string, error) {
	if img, format, err := image.Decode(bytes.NewReader(data)); err == nil {
		if !l.isFormatSupported(format) {
			return nil, format, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
		}
		return img, format, nil
	}

	if img, err := webp.Decode(bytes.NewReader(data)); err == nil && l.isFormatSupported("webp") {
		return img, "webp", nil
	}

	return nil, "", ErrUnsupportedFormat
}

// Load decodes data and corrects its orientation
func (l *Loader) Load(data []byte) (Result, error) {
	img, format, err := l.Decode(data)
	if err != nil {
		return Result{}, fmt.Errorf("failed to decode image: %w", err)
	}
	if err := l.Validate(img); err != nil {
		return Result{}, err
	}

	upright, tag := l.normalizer.NormalizeBytes(img, data)
	l.logger.Debug().
		Str("format", format).
		Int("orientation", int(tag)).
		Int("width", upright.Bounds().Dx()).
		Int("height", upright.Bounds().Dy()).
		Msg("image loaded")

	return Result{
		Image:       upright,
		Format:      format,
		Orientation: tag,
		Info:        GetImageInfo(upright),
	}, nil
}

// LoadFromReader reads all of r and loads it
func (l *Loader) LoadFromReader(r io.Reader) (Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read image data: %w", err)
	}
	return l.Load(data)
}

// LoadFile loads an image from a file path
func (l *Loader) LoadFile(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open image file: %w", err)
	}
	return l.Load(data)
}

// Validate checks if an image meets minimum requirements
func (l *Loader) Validate(img image.Image) error {
	bounds := img.Bounds()
	minSize := max(l.config.MinImageSize, 1)
	if bounds.Dx() < minSize || bounds.Dy() < minSize {
		return fmt.Errorf("image too small: %dx%d (minimum: %d)", bounds.Dx(), bounds.Dy(), minSize)
	}
	return nil
}

func (l *Loader) isFormatSupported(format string) bool {
	if len(l.config.SupportedFormats) == 0 {
		return true
	}
	for _, supported := range l.config.SupportedFormats {
		if strings.EqualFold(format, supported) || (format == "jpeg" && strings.EqualFold(supported, "jpg")) {
			return true
		}
	}
	return false
}
