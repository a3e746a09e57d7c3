// Package viewer runs a globe scene inside ebiten's game loop.
package viewer

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/sudorandom/paygate-globe/pkg/app"
	"github.com/sudorandom/paygate-globe/pkg/render"
)

// Game implements ebiten.Game. Update steps the scene's environment and Draw paints the
// last presented frame.
type Game struct {
	App     *app.App
	Surface *render.EbitenSurface
	Capture *Capture

	// OnFrame, when set, sees every drawn frame after the scene and overlay.
	OnFrame func(screen *ebiten.Image)
	// MaxFrames stops the game after that many drawn frames. Zero runs forever.
	MaxFrames int
	// Fixed keeps the render size regardless of the window size.
	Fixed bool
	// Clock supplies the time each Update steps the scene to.
	Clock func() time.Time

	width, height int
	frames        int
	snapshot      bool
	stopped       bool
}

func NewGame(a *app.App, surface *render.EbitenSurface) *Game {
	w, h := a.Env.Size()
	return &Game{App: a, Surface: surface, Clock: time.Now, width: w, height: h}
}

func (g *Game) Update() error {
	if g.stopped || (g.MaxFrames > 0 && g.frames >= g.MaxFrames) {
		return ebiten.Termination
	}
	for _, k := range inpututil.AppendJustPressedKeys(nil) {
		if g.HandleKey(k) {
			return ebiten.Termination
		}
	}
	g.App.Env.Resize(g.width, g.height)
	g.App.Env.Step(g.Clock())
	return nil
}

// Stop ends the game at the next Update. Call it from the loop goroutine, for example
// through the Env's Post.
func (g *Game) Stop() { g.stopped = true }

// HandleKey applies a key press: 1-9 pick a city, arrows step through them, P takes a
// snapshot. It reports whether the key asks to quit.
func (g *Game) HandleKey(k ebiten.Key) bool {
	switch {
	case k == ebiten.KeyEscape || k == ebiten.KeyQ:
		return true
	case k >= ebiten.KeyDigit1 && k <= ebiten.KeyDigit9:
		g.App.Scene.Select(int(k - ebiten.KeyDigit1))
	case k == ebiten.KeyArrowRight || k == ebiten.KeySpace:
		g.App.Step(1)
	case k == ebiten.KeyArrowLeft:
		g.App.Step(-1)
	case k == ebiten.KeyP:
		g.snapshot = true
	}
	return false
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.Surface.Draw(screen)
	g.frames++
	if g.Capture != nil {
		now := g.Clock()
		switch {
		case g.snapshot:
			g.snapshot = false
			g.Capture.Frame(screen, "snapshot", now)
		case g.Capture.Due(now):
			g.Capture.Frame(screen, "auto", now)
		}
	}
	if g.OnFrame != nil {
		g.OnFrame(screen)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if !g.Fixed && outsideWidth > 0 && outsideHeight > 0 {
		g.width, g.height = outsideWidth, outsideHeight
	}
	return g.width, g.height
}

// Frames is the number of frames drawn so far.
func (g *Game) Frames() int { return g.frames }
