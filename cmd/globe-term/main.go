package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/alecthomas/kong"
	"github.com/gdamore/tcell/v2"
	"github.com/sudorandom/paygate-globe/pkg/app"
	"github.com/sudorandom/paygate-globe/pkg/config"
	"github.com/sudorandom/paygate-globe/pkg/render"
)

var cli struct {
	config.Flags

	FPS     int    `default:"20" help:"Frames per second."`
	LogFile string `help:"Write logs to this file instead of discarding them." type:"path" placeholder:"FILE"`
}

func main() {
	kong.Parse(&cli,
		kong.Name("globe-term"),
		kong.Description("The rotating globe, drawn in the terminal."),
	)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.SetOutput(io.Discard)
	if cli.LogFile != "" {
		f, err := os.OpenFile(cli.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.SetOutput(os.Stderr)
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	cfg, err := cli.Load()
	if err != nil {
		log.SetOutput(os.Stderr)
		log.Fatalf("Failed to load config: %v", err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		log.SetOutput(os.Stderr)
		log.Fatalf("Failed to create screen: %v", err)
	}
	if err := screen.Init(); err != nil {
		log.SetOutput(os.Stderr)
		log.Fatalf("Failed to initialise screen: %v", err)
	}
	defer screen.Fini()
	screen.HideCursor()

	surface := render.NewTerminalSurface(screen)
	w, h := render.TerminalViewport(screen.Size())
	a, err := app.New(cfg, surface, w, h)
	if err != nil {
		screen.Fini()
		log.SetOutput(os.Stderr)
		log.Fatalf("Failed to start globe: %v", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	a.Serve(ctx)

	quit := pollEvents(ctx, screen, a)
	fps := max(cli.FPS, 1)
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-quit:
			return
		case now := <-ticker.C:
			a.Env.Step(now)
		}
	}
}

// pollEvents turns terminal input into work for the scene's loop. The returned channel
// closes when the user asks to quit.
func pollEvents(ctx context.Context, screen tcell.Screen, a *app.App) <-chan struct{} {
	quit := make(chan struct{})
	go func() {
		defer close(quit)
		for ctx.Err() == nil {
			switch ev := screen.PollEvent().(type) {
			case nil:
				return
			case *tcell.EventResize:
				w, h := render.TerminalViewport(ev.Size())
				a.Env.Post(func() { a.Env.Resize(w, h) })
				screen.Sync()
			case *tcell.EventKey:
				if handleKey(ev, a) {
					return
				}
			}
		}
	}()
	return quit
}

func handleKey(ev *tcell.EventKey, a *app.App) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRight:
		a.Env.Post(func() { a.Step(1) })
	case tcell.KeyLeft:
		a.Env.Post(func() { a.Step(-1) })
	case tcell.KeyRune:
		r := ev.Rune()
		switch {
		case r == 'q' || r == 'Q':
			return true
		case r == ' ' || r == 'n':
			a.Env.Post(func() { a.Step(1) })
		case r == 'p':
			a.Env.Post(func() { a.Step(-1) })
		case r >= '1' && r <= '9':
			n := int(r - '1')
			a.Env.Post(func() { a.Scene.Select(n) })
		}
	}
	return false
}
