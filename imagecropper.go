// Package imagecropper provides interactive crop-region selection over
// orientation-corrected images.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"log"
//		"os"
//
//		imagecropper "github.com/menta2k/image-cropper"
//		"github.com/menta2k/image-cropper/pkg/controller"
//		"github.com/menta2k/image-cropper/pkg/pointer"
//		"github.com/menta2k/image-cropper/pkg/types"
//	)
//
//	func main() {
//		ic := imagecropper.New()
//		session, err := ic.NewSession()
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer session.Close()
//
//		data, err := os.ReadFile("photo.jpg")
//		if err != nil {
//			log.Fatal(err)
//		}
//		session.OnCropChanged(func(evt controller.CropChanged) {
//			os.WriteFile("photo_cropped.png", evt.Result.Data, 0644)
//		})
//		session.LoadFile(context.Background(), "photo.jpg", data)
//
//		// drag the bottom-right handle 40px up and to the left
//		b := session.CropBounds()
//		session.Handle(pointer.Event{Point: types.Point{X: b.Right, Y: b.Bottom}, Phase: pointer.Down, HasPoint: true})
//		session.Handle(pointer.Event{Point: types.Point{X: b.Right - 40, Y: b.Bottom - 40}, Phase: pointer.Move, HasPoint: true})
//		session.Handle(pointer.Event{Phase: pointer.Up})
//	}
//
// The package consists of these components:
//
//  1. Loader (pkg/loader): decoding, file filtering and async loads
//  2. Orientation (pkg/orientation): EXIF orientation correction
//  3. Geometry (pkg/geometry): placement, hit-testing and crop bounds math
//  4. Gesture (pkg/gesture): the pointer gesture statechart
//  5. Render (pkg/render): canvas redraw and crop export
//  6. Controller (pkg/controller): the interactive crop session
//
// Besides interactive sessions, ImageCropper offers one-shot crops in
// source pixel space.
package imagecropper

import (
	"fmt"
	"image"
	"io"
	"path/filepath"

	"github.com/menta2k/image-cropper/internal/utils"
	"github.com/menta2k/image-cropper/pkg/controller"
	"github.com/menta2k/image-cropper/pkg/geometry"
	"github.com/menta2k/image-cropper/pkg/loader"
	"github.com/menta2k/image-cropper/pkg/render"
	"github.com/menta2k/image-cropper/pkg/types"
)

// Version of the image cropper library
const Version = "1.0.0"

// ImageCropper provides a high-level interface for loading, cropping and
// interactive crop sessions
type ImageCropper struct {
	settings controller.Settings
	loader   *loader.Loader
}

// New creates a new ImageCropper with default configuration
func New() *ImageCropper {
	ic, err := NewWithConfig(controller.DefaultSettings())
	if err != nil {
		panic(err)
	}
	return ic
}

// NewWithConfig creates a new ImageCropper with custom configuration
func NewWithConfig(settings controller.Settings) (*ImageCropper, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	cfg := loader.DefaultConfig()
	if settings.AllowedFiles != "" {
		cfg.AllowedFiles = settings.AllowedFiles
	}
	cfg.Orientation = settings.Orientation

	ld, err := loader.NewWithConfig(cfg, settings.Logger)
	if err != nil {
		return nil, err
	}
	return &ImageCropper{settings: settings, loader: ld}, nil
}

// NewSession creates an interactive crop controller with the cropper's
// settings
func (ic *ImageCropper) NewSession() (*controller.Controller, error) {
	return controller.New(ic.settings)
}

// LoadFile loads an image from file and corrects its orientation
func (ic *ImageCropper) LoadFile(path string) (loader.Result, error) {
	return ic.loader.LoadFile(path)
}

// LoadImageFromReader loads an image from an io.Reader and corrects its
// orientation
func (ic *ImageCropper) LoadImageFromReader(r io.Reader) (loader.Result, error) {
	return ic.loader.LoadFromReader(r)
}

// CropToBounds crops img to bounds given in source pixels, at native
// resolution
func (ic *ImageCropper) CropToBounds(img image.Image, bounds types.Bounds) (*image.NRGBA, error) {
	b := img.Bounds()
	r := render.NewRenderer(b.Dx(), b.Dy(), render.DefaultStyle(), ic.settings.Output)
	full := types.BoundsFromSize(0, 0, float64(b.Dx()), float64(b.Dy()))
	return r.CropImage(img, full, bounds)
}

// CropToAspectRatio crops img to the largest centered region with the
// given aspect ratio. It returns the crop and its bounds in source pixels.
func (ic *ImageCropper) CropToAspectRatio(img image.Image, ratio geometry.AspectRatio) (*image.NRGBA, types.Bounds, error) {
	b := img.Bounds()
	engine, err := geometry.New(geometry.Config{
		CanvasWidth:  b.Dx(),
		CanvasHeight: b.Dy(),
		AspectRatio:  ratio.Ratio(),
	})
	if err != nil {
		return nil, types.Bounds{}, err
	}
	engine.PlaceImage(b.Dx(), b.Dy())
	bounds := engine.Bounds()

	cropped, err := ic.CropToBounds(img, bounds)
	if err != nil {
		return nil, types.Bounds{}, err
	}
	return cropped, bounds, nil
}

// Encode encodes img with the configured output settings
func (ic *ImageCropper) Encode(img image.Image) (types.CroppedResult, error) {
	out := ic.settings.Output
	format := render.NormalizeFormat(out.Format)
	data, err := render.Encode(img, format, out.Quality, out.Lossless)
	if err != nil {
		return types.CroppedResult{}, err
	}
	return types.CroppedResult{
		Data:   data,
		Format: format,
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}, nil
}

// SaveImage saves an image to file with the configured output settings
func (ic *ImageCropper) SaveImage(img image.Image, path string) error {
	out := ic.settings.Output
	return render.SaveImage(img, path, out.Format, out.Quality, out.Lossless)
}

// GetImageInfo returns basic information about an image
func (ic *ImageCropper) GetImageInfo(img image.Image) loader.ImageInfo {
	return loader.GetImageInfo(img)
}

// ProcessImageFile loads an image, crops it to every ratio and saves the
// crops into outputDir. It returns the written paths.
func (ic *ImageCropper) ProcessImageFile(inputPath, outputDir string, ratios []geometry.AspectRatio) ([]string, error) {
	res, err := ic.LoadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}

	ext := utils.OutputExtension(render.NormalizeFormat(ic.settings.Output.Format))

	var paths []string
	for _, ratio := range ratios {
		cropped, _, err := ic.CropToAspectRatio(res.Image, ratio)
		if err != nil {
			return paths, fmt.Errorf("cropping to %s failed: %w", ratio.Name, err)
		}
		outputPath := filepath.Join(outputDir, fmt.Sprintf("%s_%s.%s", getBaseName(inputPath), ratio.Name, ext))
		if err := ic.SaveImage(cropped, outputPath); err != nil {
			return paths, fmt.Errorf("failed to save crop %s: %w", ratio.Name, err)
		}
		paths = append(paths, outputPath)
	}

	return paths, nil
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}

// getBaseName extracts the base filename without extension
func getBaseName(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}
