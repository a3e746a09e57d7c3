package main

import (
	"testing"
	"time"

	"github.com/sudorandom/paygate-globe/pkg/app"
	"github.com/sudorandom/paygate-globe/pkg/config"
	"github.com/sudorandom/paygate-globe/pkg/globe"
)

type nopSurface struct{}

func (nopSurface) Resize(int, int)      {}
func (nopSurface) Present(*globe.Frame) {}
func (nopSurface) Release()             {}

func newTestApp(t *testing.T) *app.App {
	t.Helper()
	cfg := config.Default()
	cfg.Texture.CacheDir = ""
	cfg.Texture.Source = "missing.png"
	a, err := app.New(cfg, nopSurface{}, 64, 36)
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

func TestRecorderClock(t *testing.T) {
	r := newRecorder(newTestApp(t), nil, 25, 2*time.Second, time.Second)
	if r.target != 50 {
		t.Errorf("target = %d, want 50", r.target)
	}
	start := r.clock
	for i := 1; i <= 3; i++ {
		if got := r.tick().Sub(start); got != time.Duration(i)*40*time.Millisecond {
			t.Errorf("tick %d at %v", i, got)
		}
	}
}

func TestRecorderWaitsForTexture(t *testing.T) {
	a := newTestApp(t)

	r := newRecorder(a, nil, 30, time.Second, time.Hour)
	if r.ready() {
		t.Error("should wait while the texture is loading")
	}

	r = newRecorder(a, nil, 30, time.Second, -time.Second)
	if !r.ready() || !r.ready() {
		t.Error("should record once the wait has run out")
	}
}
