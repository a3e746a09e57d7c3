package main

import (
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/sudorandom/paygate-globe/pkg/app"
	"github.com/sudorandom/paygate-globe/pkg/viewer"
)

// recorder drives the scene on a fixed frame clock so the video plays back at real
// speed no matter how fast frames are rendered, and stops after target frames.
type recorder struct {
	app      *app.App
	sink     *viewer.FrameSink
	game     *viewer.Game
	step     time.Duration
	clock    time.Time
	deadline time.Time
	target   int
	frames   int
	waiting  bool
}

func newRecorder(a *app.App, sink *viewer.FrameSink, fps int, duration, wait time.Duration) *recorder {
	fps = max(fps, 1)
	return &recorder{
		app:      a,
		sink:     sink,
		step:     time.Second / time.Duration(fps),
		clock:    time.Now(),
		deadline: time.Now().Add(wait),
		target:   max(int(duration.Seconds()*float64(fps)), 1),
		waiting:  true,
	}
}

func (r *recorder) attach(g *viewer.Game) {
	r.game = g
	g.Clock = r.tick
	g.OnFrame = r.onFrame
}

func (r *recorder) tick() time.Time {
	r.clock = r.clock.Add(r.step)
	return r.clock
}

// ready reports whether frames should be kept. Frames are discarded until the texture
// is in or the wait runs out.
func (r *recorder) ready() bool {
	if !r.waiting {
		return true
	}
	if r.app.Scene.TextureLoaded() {
		log.Printf("[RECORDER] Texture ready, recording %d frames", r.target)
	} else if time.Now().After(r.deadline) {
		log.Printf("[RECORDER] Texture still loading, recording %d frames anyway", r.target)
	} else {
		return false
	}
	r.waiting = false
	return true
}

func (r *recorder) onFrame(screen *ebiten.Image) {
	if !r.ready() {
		return
	}
	r.sink.Capture(screen)
	r.frames++
	if r.frames >= r.target {
		r.game.Stop()
	}
}
