package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"

	"github.com/menta2k/image-cropper/internal/config"
	"github.com/menta2k/image-cropper/internal/utils"
	"github.com/menta2k/image-cropper/pkg/controller"
	"github.com/menta2k/image-cropper/pkg/types"
)

type cropCmd struct {
	Inputs  []string `arg:"" help:"Image files or directories to crop" type:"path"`
	Out     string   `short:"o" help:"Output directory (defaults to output.output_dir)" type:"path"`
	Drag    []Drag   `short:"d" help:"Drag gesture in canvas pixels as x0,y0:x1,y1; repeatable" sep:"none"`
	Select  string   `help:"Set the selection directly as left,top,right,bottom in canvas pixels before any drags"`
	Aspect  string   `short:"a" help:"Aspect ratio preset or W:H (overrides crop.aspect_ratio)"`
	Format  string   `short:"f" help:"Output format png, jpeg or webp (overrides output.format)"`
	Quality int      `short:"q" help:"Output quality 1-100 (overrides output.quality)"`
	Steps   int      `help:"Intermediate pointer moves per drag" default:"4"`
	Workers int      `help:"Parallel workers for batch crops; 0 uses all CPUs" default:"0"`
	JSON    bool     `help:"Print results as JSON lines"`
}

type cropResult struct {
	Input       string       `json:"input"`
	Output      string       `json:"output"`
	Orientation int          `json:"orientation"`
	Placement   types.Bounds `json:"placement"`
	Bounds      types.Bounds `json:"bounds"`
	Width       int          `json:"width"`
	Height      int          `json:"height"`
	Format      string       `json:"format"`
}

func (cmd *cropCmd) Run(g *Globals) error {
	ctx, cancel, cfg, err := g.setup()
	if err != nil {
		return err
	}
	defer cancel()

	cmd.applyOverrides(cfg)
	settings, err := cfg.ControllerSettings(log.Logger)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var selection *types.Bounds
	if cmd.Select != "" {
		b, err := parseBounds(cmd.Select)
		if err != nil {
			return err
		}
		selection = &b
	}

	outDir := cmd.Out
	if outDir == "" {
		outDir = cfg.Output.OutputDir
	}
	if err := utils.EnsureDir(outDir); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	files, err := collectInputs(cmd.Inputs)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no image files found")
	}

	workers := cmd.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var (
		mu      sync.Mutex
		results []cropResult
	)
	p := pool.New().WithErrors().WithContext(ctx).WithMaxGoroutines(workers)
	for _, file := range files {
		p.Go(func(ctx context.Context) error {
			res, err := cmd.cropFile(ctx, settings, cfg.Output, selection, file, outDir)
			if err != nil {
				log.Ctx(ctx).Error().Err(err).Str("file", file).Msg("crop failed")
				return err
			}
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			log.Ctx(ctx).Info().
				Str("file", file).
				Str("output", res.Output).
				Str("bounds", res.Bounds.String()).
				Msgf("cropped %dx%d", res.Width, res.Height)
			return nil
		})
	}
	err = p.Wait()

	if cmd.JSON {
		printJSONL(results)
	}
	return err
}

func (cmd *cropCmd) applyOverrides(cfg *config.Config) {
	if cmd.Aspect != "" {
		cfg.Crop.AspectRatio = cmd.Aspect
	}
	if cmd.Format != "" {
		cfg.Output.Format = cmd.Format
	}
	if cmd.Quality != 0 {
		cfg.Output.Quality = cmd.Quality
	}
}

func (cmd *cropCmd) cropFile(ctx context.Context, settings controller.Settings, out config.OutputConfig, selection *types.Bounds, file, outDir string) (cropResult, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return cropResult{}, fmt.Errorf("failed to read image: %w", err)
	}

	settings.Logger = log.Ctx(ctx).With().Str("file", filepath.Base(file)).Logger()
	session, err := controller.New(settings)
	if err != nil {
		return cropResult{}, err
	}
	defer session.Close()

	var last controller.CropChanged
	session.OnCropChanged(func(evt controller.CropChanged) {
		last = evt
	})

	if !session.LoadFile(ctx, filepath.Base(file), data) {
		return cropResult{}, fmt.Errorf("could not load %s", file)
	}
	if selection != nil {
		session.SetCropBounds(*selection)
	}
	for _, d := range cmd.Drag {
		replay(session, d, cmd.Steps)
	}

	if last.Result.Empty() {
		return cropResult{}, fmt.Errorf("no crop produced for %s", file)
	}

	output := utils.GenerateOutputFilename(file, outDir, out.Prefix, out.Suffix, last.Result.Format)
	if err := os.WriteFile(output, last.Result.Data, 0644); err != nil {
		return cropResult{}, fmt.Errorf("failed to write crop: %w", err)
	}

	return cropResult{
		Input:       file,
		Output:      output,
		Orientation: int(session.Orientation()),
		Placement:   session.Placement(),
		Bounds:      last.Bounds,
		Width:       last.Result.Width,
		Height:      last.Result.Height,
		Format:      last.Result.Format,
	}, nil
}

// collectInputs expands directories into the image files they contain
func collectInputs(inputs []string) ([]string, error) {
	var files []string
	for _, in := range inputs {
		switch {
		case utils.DirExists(in):
			found, err := utils.ListImageFiles(in, nil)
			if err != nil {
				return nil, fmt.Errorf("failed to list %s: %w", in, err)
			}
			files = append(files, found...)
		case utils.FileExists(in):
			files = append(files, in)
		default:
			return nil, fmt.Errorf("input not found: %s", in)
		}
	}
	return files, nil
}
