package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	imagecropper "github.com/menta2k/image-cropper"
	"github.com/menta2k/image-cropper/internal/config"
	"github.com/menta2k/image-cropper/internal/utils"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Send()
	}
}

func run() error {
	var args cliArgs
	cliCtx := kong.Parse(
		&args,
		kong.Name("image-cropper"),
		kong.Description("Crop images by replaying pointer gestures on an orientation-corrected canvas."),
		kong.UsageOnError(),
	)
	return cliCtx.Run(&args.Globals)
}

// Globals are flags shared by every command
type Globals struct {
	ConfigFile string `name:"config" short:"c" help:"JSON or YAML config file" type:"path"`
	Verbose    bool   `short:"v" help:"Enable verbose logging"`
}

type cliArgs struct {
	Globals

	Crop       cropCmd       `cmd:"" help:"Load images, replay drag gestures and save the crops"`
	Inspect    inspectCmd    `cmd:"" help:"Print orientation, size and canvas placement of images"`
	InitConfig initConfigCmd `cmd:"" name:"init-config" help:"Write a default config file"`
	Version    versionCmd    `cmd:"" help:"Print the version"`
}

// setup configures logging and loads the config file, if any
func (g *Globals) setup() (context.Context, context.CancelFunc, *config.Config, error) {
	level := zerolog.InfoLevel
	if g.Verbose {
		level = zerolog.DebugLevel
	}
	log.Logger = log.Output(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = os.Stderr
	})).Level(level)
	zerolog.DefaultContextLogger = &log.Logger

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	ctx = log.Logger.WithContext(ctx)

	cfg := config.Default()
	if g.ConfigFile != "" {
		loaded, err := config.LoadFromFile(g.ConfigFile)
		if err != nil {
			cancel()
			return nil, nil, nil, err
		}
		cfg = loaded
		log.Ctx(ctx).Debug().Str("path", g.ConfigFile).Msg("config loaded")
	}
	return ctx, cancel, cfg, nil
}

type initConfigCmd struct {
	Path  string `arg:"" help:"Destination (.json, .yaml or .yml)" type:"path"`
	Force bool   `help:"Overwrite an existing file"`
}

func (cmd *initConfigCmd) Run(g *Globals) error {
	ctx, cancel, cfg, err := g.setup()
	if err != nil {
		return err
	}
	defer cancel()

	switch utils.GetFileExtension(cmd.Path) {
	case "json", "yaml", "yml":
	default:
		return fmt.Errorf("config path must end in .json, .yaml or .yml: %s", cmd.Path)
	}
	if utils.FileExists(cmd.Path) && !cmd.Force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", cmd.Path)
	}
	if err := cfg.SaveToFile(cmd.Path); err != nil {
		return err
	}
	log.Ctx(ctx).Info().Str("path", cmd.Path).Msg("config written")
	return nil
}

type versionCmd struct{}

func (cmd *versionCmd) Run() error {
	fmt.Println(imagecropper.GetVersion())
	return nil
}

func printJSONL[T any](data []T) {
	enc := json.NewEncoder(os.Stdout)
	for _, item := range data {
		if err := enc.Encode(item); err != nil {
			log.Error().Err(err).Msg("Failed to encode item to JSON")
			continue
		}
	}
}
