package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/menta2k/image-cropper/pkg/controller"
	"github.com/menta2k/image-cropper/pkg/geometry"
	"github.com/menta2k/image-cropper/pkg/gesture"
	"github.com/menta2k/image-cropper/pkg/loader"
	"github.com/menta2k/image-cropper/pkg/orientation"
	"github.com/menta2k/image-cropper/pkg/render"
)

// Config holds the application configuration
type Config struct {
	Canvas CanvasConfig `json:"canvas" yaml:"canvas"`
	Crop   CropConfig   `json:"crop" yaml:"crop"`
	Loader LoaderConfig `json:"loader" yaml:"loader"`
	Output OutputConfig `json:"output" yaml:"output"`
}

// CanvasConfig holds the crop canvas dimensions
type CanvasConfig struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// CropConfig holds configuration for the crop selection
type CropConfig struct {
	MinWidth        float64 `json:"min_width" yaml:"min_width"`
	MinHeight       float64 `json:"min_height" yaml:"min_height"`
	AspectRatio     string  `json:"aspect_ratio" yaml:"aspect_ratio"`
	HandleTolerance float64 `json:"handle_tolerance" yaml:"handle_tolerance"`
	DragThreshold   float64 `json:"drag_threshold" yaml:"drag_threshold"`
	AllowUpscaling  bool    `json:"allow_upscaling" yaml:"allow_upscaling"`
}

// LoaderConfig holds configuration for image loading
type LoaderConfig struct {
	AllowedFiles string `json:"allowed_files" yaml:"allowed_files"`
	Orientation  string `json:"orientation" yaml:"orientation"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	Format    string `json:"format" yaml:"format"`
	Quality   int    `json:"quality" yaml:"quality"`
	Lossless  bool   `json:"lossless" yaml:"lossless"`
	OutputDir string `json:"output_dir" yaml:"output_dir"`
	Prefix    string `json:"prefix" yaml:"prefix"`
	Suffix    string `json:"suffix" yaml:"suffix"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Canvas: CanvasConfig{
			Width:  300,
			Height: 300,
		},
		Crop: CropConfig{
			MinWidth:        10,
			MinHeight:       10,
			AspectRatio:     geometry.Free.Name,
			HandleTolerance: 8,
			DragThreshold:   gesture.DefaultDragThreshold,
			AllowUpscaling:  true,
		},
		Loader: LoaderConfig{
			AllowedFiles: loader.DefaultAllowedFiles,
			Orientation:  orientation.ModeFull.String(),
		},
		Output: OutputConfig{
			Format:    render.FormatPNG,
			Quality:   90,
			OutputDir: "./output",
			Suffix:    "_cropped",
		},
	}
}

func isYAML(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".yaml" || ext == ".yml"
}

// LoadFromFile loads configuration from a JSON or YAML file. Fields missing
// from the file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if isYAML(filename) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON or YAML file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if isYAML(filename) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Canvas.Width < 1 || c.Canvas.Height < 1 {
		return fmt.Errorf("canvas.width and canvas.height must be positive")
	}

	if c.Crop.MinWidth < 0 || c.Crop.MinHeight < 0 {
		return fmt.Errorf("crop.min_width and crop.min_height must not be negative")
	}

	if _, err := geometry.ParseAspectRatio(c.Crop.AspectRatio); err != nil {
		return fmt.Errorf("crop.aspect_ratio: %w", err)
	}

	if c.Crop.HandleTolerance < 0 {
		return fmt.Errorf("crop.handle_tolerance must not be negative")
	}

	if c.Loader.AllowedFiles != "" {
		if _, err := regexp.Compile(c.Loader.AllowedFiles); err != nil {
			return fmt.Errorf("loader.allowed_files: %w", err)
		}
	}

	if _, err := orientation.ParseMode(c.Loader.Orientation); err != nil {
		return fmt.Errorf("loader.orientation: %w", err)
	}

	if !render.ValidFormat(c.Output.Format) {
		return fmt.Errorf("output.format must be one of png, jpeg, webp")
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	return nil
}

// ControllerSettings converts the configuration into controller settings
func (c *Config) ControllerSettings(logger zerolog.Logger) (controller.Settings, error) {
	if err := c.Validate(); err != nil {
		return controller.Settings{}, err
	}
	ratio, _ := geometry.ParseAspectRatio(c.Crop.AspectRatio)
	mode, _ := orientation.ParseMode(c.Loader.Orientation)

	return controller.Settings{
		CanvasWidth:     c.Canvas.Width,
		CanvasHeight:    c.Canvas.Height,
		MinWidth:        c.Crop.MinWidth,
		MinHeight:       c.Crop.MinHeight,
		AspectRatio:     ratio.Ratio(),
		HandleTolerance: c.Crop.HandleTolerance,
		DragThreshold:   c.Crop.DragThreshold,
		AllowUpscaling:  c.Crop.AllowUpscaling,
		AllowedFiles:    c.Loader.AllowedFiles,
		Orientation:     mode,
		Output: render.Output{
			Format:   render.NormalizeFormat(c.Output.Format),
			Quality:  c.Output.Quality,
			Lossless: c.Output.Lossless,
		},
		Logger: logger,
	}, nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "image-cropper", "config.json")
}
