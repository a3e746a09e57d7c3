package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"time"

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

	Output   string        `default:"globe.mp4" help:"Output file or RTMP URL."`
	Quality  string        `default:"1080p" enum:"720p,1080p,4k" help:"Video size: 720p, 1080p or 4k."`
	FPS      int           `default:"30" help:"Frames per second of the video."`
	Duration time.Duration `default:"35s" help:"Length of the recording; one full cycle of the default cities."`
	Live     bool          `help:"Drop frames instead of blocking when ffmpeg falls behind."`
	Software bool          `help:"Force software encoding (libx264)."`
	Device   string        `default:"/dev/dri/renderD128" help:"VA-API render device (Linux only)."`
	Debug    bool          `help:"Verbose ffmpeg logging."`
	Wait     time.Duration `default:"10s" help:"How long to wait for the earth texture before recording starts."`
}

var qualities = map[string][2]int{
	"720p":  {1280, 720},
	"1080p": {1920, 1080},
	"4k":    {3840, 2160},
}

func main() {
	kong.Parse(&cli,
		kong.Name("globe-recorder"),
		kong.Description("Render the globe animation to a video through ffmpeg."),
	)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg, err := cli.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	size := qualities[cli.Quality]
	width, height := size[0], size[1]

	surface := render.NewEbitenSurface()
	a, err := app.New(cfg, surface, width, height)
	if err != nil {
		log.Fatalf("Failed to start globe: %v", err)
	}
	defer a.Close()

	enc := viewer.Encoder{
		Width:    width,
		Height:   height,
		FPS:      cli.FPS,
		Output:   cli.Output,
		Software: cli.Software,
		Device:   cli.Device,
		Debug:    cli.Debug,
	}
	if cli.Quality == "4k" {
		enc.Bitrate = "18000k"
	}
	cmd := enc.Command()
	stdin, err := cmd.StdinPipe()
	if err != nil {
		log.Fatal(err)
	}
	if err := cmd.Start(); err != nil {
		log.Fatalf("Failed to start ffmpeg: %v", err)
	}
	sink := viewer.NewFrameSink(stdin, width, height, cli.Live)

	game := viewer.NewGame(a, surface)
	game.Fixed = true
	newRecorder(a, sink, cli.FPS, cli.Duration, cli.Wait).attach(game)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		a.Env.Post(game.Stop)
	}()

	ebiten.SetTPS(ebiten.SyncWithFPS)
	ebiten.SetWindowSize(width/2, height/2)
	ebiten.SetWindowTitle("Globe Recorder")
	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Printf("[RECORDER] Game stopped: %v", err)
	}

	if err := sink.Close(); err != nil {
		log.Printf("[RECORDER] Frame pipe: %v", err)
	}
	if err := stdin.Close(); err != nil {
		log.Printf("[RECORDER] Closing ffmpeg stdin: %v", err)
	}
	written, dropped := sink.Stats()
	if err := cmd.Wait(); err != nil {
		log.Printf("[RECORDER] ffmpeg exited with error: %v", err)
	}
	log.Printf("[RECORDER] Wrote %d frames (%d dropped) to %s", written, dropped, cli.Output)
}
