package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/hajimehoshi/ebiten/v2"
	_ "github.com/silbinarywolf/preferdiscretegpu"
	"github.com/sudorandom/paygate-globe/pkg/app"
	"github.com/sudorandom/paygate-globe/pkg/config"
	"github.com/sudorandom/paygate-globe/pkg/render"
	"github.com/sudorandom/paygate-globe/pkg/viewer"
)

var cli struct {
	config.Flags

	Width           int    `help:"Render width (defaults to the config file)."`
	Height          int    `help:"Render height (defaults to the config file)."`
	WindowWidth     int    `default:"1280" help:"Initial window width."`
	WindowHeight    int    `default:"720" help:"Initial window height."`
	TPS             int    `help:"Ticks per second."`
	Headless        bool   `help:"Keep the render size fixed and skip window setup (Xvfb rendering)."`
	CaptureDir      string `help:"Write PNG captures here; P takes one on demand." placeholder:"DIR"`
	CaptureInterval string `help:"Automatic capture interval; 0 for on-demand only." placeholder:"DURATION"`
}

func main() {
	kong.Parse(&cli,
		kong.Name("globe-viewer"),
		kong.Description("Rotating earth with city markers, cycling between locations."),
	)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg, err := cli.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cli.Width > 0 {
		cfg.Display.Width = cli.Width
	}
	if cli.Height > 0 {
		cfg.Display.Height = cli.Height
	}
	if cli.TPS > 0 {
		cfg.Display.TPS = cli.TPS
	}
	if cli.CaptureDir != "" {
		cfg.Capture.Dir = cli.CaptureDir
	}
	if cli.CaptureInterval != "" {
		cfg.Capture.Interval = cli.CaptureInterval
	}
	interval, err := cfg.CaptureInterval()
	if err != nil {
		log.Fatalf("Invalid capture interval: %v", err)
	}

	width, height := cfg.Display.Width, cfg.Display.Height
	if !cli.Headless {
		width, height = cli.WindowWidth, cli.WindowHeight
	}

	surface := render.NewEbitenSurface()
	a, err := app.New(cfg, surface, width, height)
	if err != nil {
		log.Fatalf("Failed to start globe: %v", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	a.Serve(ctx)

	game := viewer.NewGame(a, surface)
	game.Fixed = cli.Headless
	if cfg.Capture.Dir != "" {
		game.Capture = &viewer.Capture{Dir: cfg.Capture.Dir, Interval: interval}
		defer game.Capture.Wait()
	}
	go func() {
		<-ctx.Done()
		a.Env.Post(game.Stop)
	}()

	ebiten.SetTPS(cfg.Display.TPS)
	if cli.Headless {
		log.Println("Running in HEADLESS mode (Rendering active).")
	} else {
		ebiten.SetWindowSize(width, height)
		ebiten.SetWindowTitle("Globe")
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal(err)
	}
}
