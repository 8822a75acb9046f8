package render

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// Output formats
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
	FormatWebP = "webp"
)

// NormalizeFormat maps a format name or extension to one of the output
// formats. Unknown names fall back to PNG.
func NormalizeFormat(format string) string {
	switch strings.TrimPrefix(strings.ToLower(format), ".") {
	case "jpg", "jpeg":
		return FormatJPEG
	case "webp":
		return FormatWebP
	default:
		return FormatPNG
	}
}

// ValidFormat reports whether format names a supported output format
func ValidFormat(format string) bool {
	switch strings.TrimPrefix(strings.ToLower(format), ".") {
	case "png", "jpg", "jpeg", "webp":
		return true
	}
	return false
}

// Encode encodes img in the given format
func Encode(img image.Image, format string, quality int, lossless bool) ([]byte, error) {
	var buf bytes.Buffer
	switch NormalizeFormat(format) {
	case FormatWebP:
		opts := &webp.Options{Lossless: lossless, Quality: float32(quality)}
		if err := webp.Encode(&buf, img, opts); err != nil {
			return nil, fmt.Errorf("failed to encode webp: %w", err)
		}
	case FormatJPEG:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("failed to encode jpeg: %w", err)
		}
	default:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("failed to encode png: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// SaveImage saves an image to a file with the specified format and quality.
// The format wins over the file extension.
func SaveImage(img image.Image, path, format string, quality int, lossless bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	switch NormalizeFormat(format) {
	case FormatWebP:
		opts := &webp.Options{Lossless: lossless, Quality: float32(quality)}
		return webp.Encode(f, img, opts)
	case FormatJPEG:
		return imaging.Encode(f, img, imaging.JPEG, imaging.JPEGQuality(quality))
	default:
		return imaging.Encode(f, img, imaging.PNG)
	}
}
