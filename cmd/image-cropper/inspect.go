package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/menta2k/image-cropper/internal/utils"
	"github.com/menta2k/image-cropper/pkg/controller"
	"github.com/menta2k/image-cropper/pkg/loader"
	"github.com/menta2k/image-cropper/pkg/orientation"
	"github.com/menta2k/image-cropper/pkg/types"
)

type inspectCmd struct {
	Inputs []string `arg:"" help:"Image files to inspect" type:"existingfile"`
	JSON   bool     `help:"Print results as JSON lines"`
}

type inspectResult struct {
	File          string       `json:"file"`
	Size          string       `json:"size"`
	Format        string       `json:"format"`
	Orientation   int          `json:"orientation"`
	Mirrored      bool         `json:"mirrored"`
	Width         int          `json:"width"`
	Height        int          `json:"height"`
	Placement     types.Bounds `json:"placement"`
	DefaultBounds types.Bounds `json:"default_bounds"`
}

func (cmd *inspectCmd) Run(g *Globals) error {
	ctx, cancel, cfg, err := g.setup()
	if err != nil {
		return err
	}
	defer cancel()

	settings, err := cfg.ControllerSettings(log.Logger)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	session, err := controller.New(settings)
	if err != nil {
		return err
	}
	defer session.Close()

	ld := loader.New()
	var results []inspectResult
	for _, file := range cmd.Inputs {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}
		tag := orientation.ReadTag(data)
		_, format, err := ld.Decode(data)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("file", file).Msg("cannot decode")
			continue
		}
		if !session.LoadFile(ctx, file, data) {
			log.Ctx(ctx).Warn().Str("file", file).Msg("image not placed")
			continue
		}

		b := session.Image().Bounds()
		results = append(results, inspectResult{
			File:          file,
			Size:          utils.FormatFileSize(int64(len(data))),
			Format:        format,
			Orientation:   int(tag),
			Mirrored:      tag.Mirrored(),
			Width:         b.Dx(),
			Height:        b.Dy(),
			Placement:     session.Placement(),
			DefaultBounds: session.CropBounds(),
		})
	}

	if cmd.JSON {
		printJSONL(results)
		return nil
	}
	for _, r := range results {
		fmt.Printf("%s\n  size:        %s (%s)\n  orientation: %d (mirrored: %v)\n  upright:     %dx%d\n  placement:   %s\n  selection:   %s\n",
			r.File, r.Size, r.Format, r.Orientation, r.Mirrored, r.Width, r.Height, r.Placement, r.DefaultBounds)
	}
	return nil
}
