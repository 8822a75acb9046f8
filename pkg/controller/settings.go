package controller

import (
	"fmt"
	"regexp"

	"github.com/rs/zerolog"

	"github.com/menta2k/image-cropper/pkg/gesture"
	"github.com/menta2k/image-cropper/pkg/geometry"
	"github.com/menta2k/image-cropper/pkg/loader"
	"github.com/menta2k/image-cropper/pkg/orientation"
	"github.com/menta2k/image-cropper/pkg/pointer"
	"github.com/menta2k/image-cropper/pkg/render"
)

// Settings configures a Controller
type Settings struct {
	CanvasWidth  int
	CanvasHeight int

	MinWidth        float64
	MinHeight       float64
	AspectRatio     float64 // width/height, 0 for free selection
	HandleTolerance float64
	DragThreshold   float64 // zero selects the default, negative drags on any motion
	AllowUpscaling  bool

	// AllowedFiles is matched against selected file names. Empty selects
	// loader.DefaultAllowedFiles.
	AllowedFiles string
	Orientation  orientation.Mode

	Output render.Output
	Style  *render.Style

	// Layout positions the canvas in viewport space. Nil means the canvas
	// is drawn unscaled at the viewport origin.
	Layout *pointer.Layout

	Logger zerolog.Logger
}

// DefaultSettings returns settings for a 300x300 canvas with free
// selection and PNG export
func DefaultSettings() Settings {
	return Settings{
		CanvasWidth:     300,
		CanvasHeight:    300,
		MinWidth:        10,
		MinHeight:       10,
		HandleTolerance: 8,
		DragThreshold:   gesture.DefaultDragThreshold,
		AllowUpscaling:  true,
		AllowedFiles:    loader.DefaultAllowedFiles,
		Orientation:     orientation.ModeFull,
		Output:          render.DefaultOutput(),
		Logger:          zerolog.Nop(),
	}
}

// Validate checks the settings for consistency
func (s Settings) Validate() error {
	if err := s.geometry().Validate(); err != nil {
		return err
	}
	if s.AllowedFiles != "" {
		if _, err := regexp.Compile(s.AllowedFiles); err != nil {
			return fmt.Errorf("invalid allowed files pattern: %w", err)
		}
	}
	if s.Output.Format != "" && !render.ValidFormat(s.Output.Format) {
		return fmt.Errorf("unsupported output format: %s", s.Output.Format)
	}
	if s.Output.Quality < 0 || s.Output.Quality > 100 {
		return fmt.Errorf("output quality must be between 0 and 100: %d", s.Output.Quality)
	}
	return nil
}

func (s Settings) geometry() geometry.Config {
	return geometry.Config{
		CanvasWidth:     s.CanvasWidth,
		CanvasHeight:    s.CanvasHeight,
		MinWidth:        s.MinWidth,
		MinHeight:       s.MinHeight,
		AspectRatio:     s.AspectRatio,
		HandleTolerance: s.HandleTolerance,
		AllowUpscaling:  s.AllowUpscaling,
	}
}

func (s Settings) loader() loader.Config {
	cfg := loader.DefaultConfig()
	if s.AllowedFiles != "" {
		cfg.AllowedFiles = s.AllowedFiles
	}
	cfg.Orientation = s.Orientation
	return cfg
}

func (s Settings) style() render.Style {
	if s.Style != nil {
		return *s.Style
	}
	return render.DefaultStyle()
}

func (s Settings) layout() pointer.Layout {
	if s.Layout != nil {
		return *s.Layout
	}
	return pointer.Unscaled(0, 0, s.CanvasWidth, s.CanvasHeight)
}
