package main

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/sudorandom/paygate-globe/pkg/app"
	"github.com/sudorandom/paygate-globe/pkg/config"
	"github.com/sudorandom/paygate-globe/pkg/globe"
)

type nopSurface struct{}

func (nopSurface) Resize(int, int)      {}
func (nopSurface) Present(*globe.Frame) {}
func (nopSurface) Release()             {}

func TestHandleKey(t *testing.T) {
	cfg := config.Default()
	cfg.Texture.CacheDir = ""
	cfg.Texture.Source = "missing.png"
	a, err := app.New(cfg, nopSurface{}, 80, 48)
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	defer a.Close()

	now := time.Unix(1700000000, 0)
	n := len(a.Scene.Locations())
	tests := []struct {
		ev   *tcell.EventKey
		want int
		quit bool
	}{
		{tcell.NewEventKey(tcell.KeyRune, '4', tcell.ModNone), 3, false},
		{tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone), 4, false},
		{tcell.NewEventKey(tcell.KeyRune, 'p', tcell.ModNone), 3, false},
		{tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone), 2, false},
		{tcell.NewEventKey(tcell.KeyRune, '1', tcell.ModNone), 0, false},
		{tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone), 1, false},
		{tcell.NewEventKey(tcell.KeyRune, '9', tcell.ModNone), 1, false},
		{tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), 1, true},
		{tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), 1, true},
	}
	for i, tt := range tests {
		if quit := handleKey(tt.ev, a); quit != tt.quit {
			t.Errorf("case %d: quit = %v, want %v", i, quit, tt.quit)
		}
		now = now.Add(16 * time.Millisecond)
		a.Env.Step(now)
		if cur, _ := a.Scene.Current(); cur != tt.want {
			t.Errorf("case %d: current = %d, want %d (of %d)", i, cur, tt.want, n)
		}
	}
}
