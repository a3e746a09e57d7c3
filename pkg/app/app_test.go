package app

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sudorandom/paygate-globe/pkg/config"
	"github.com/sudorandom/paygate-globe/pkg/globe"
)

type countingSurface struct {
	presents int
	released bool
}

func (c *countingSurface) Resize(int, int)      {}
func (c *countingSurface) Present(*globe.Frame) { c.presents++ }
func (c *countingSurface) Release()             { c.released = true }

func writeTexture(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.SetRGBA(0, 0, color.RGBA{255, 0, 0, 255})
	path := filepath.Join(dir, "earth.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Texture.Source = writeTexture(t, dir)
	cfg.Texture.CacheDir = filepath.Join(dir, "cache")
	cfg.Seed = 7
	return cfg
}

func TestAppLoadsTextureAndSteps(t *testing.T) {
	surface := &countingSurface{}
	a, err := New(testConfig(t), surface, 320, 240)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if a.Cache == nil {
		t.Error("expected the texture cache to be opened")
	}
	if a.Control != nil {
		t.Error("no control server should be built without an address")
	}

	now := time.Unix(1700000000, 0)
	deadline := time.Now().Add(5 * time.Second)
	for !a.Scene.TextureLoaded() {
		if time.Now().After(deadline) {
			t.Fatal("texture never loaded")
		}
		now = now.Add(16 * time.Millisecond)
		a.Env.Step(now)
		time.Sleep(time.Millisecond)
	}
	if surface.presents == 0 {
		t.Error("scene never presented")
	}

	if !a.Step(-1) {
		t.Fatal("Step(-1) rejected")
	}
	n := len(globe.DefaultLocations())
	if cur, _ := a.Scene.Current(); cur != n-1 {
		t.Errorf("stepping back from 0 should wrap to %d, got %d", n-1, cur)
	}
	a.Step(1)
	if cur, _ := a.Scene.Current(); cur != 0 {
		t.Errorf("stepping forward should wrap to 0, got %d", cur)
	}
}

func TestAppCloseReleasesEverything(t *testing.T) {
	cfg := testConfig(t)
	cfg.Control.Addr = "127.0.0.1:0"
	surface := &countingSurface{}
	a, err := New(cfg, surface, 320, 240)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.Control == nil {
		t.Fatal("expected a control server")
	}
	a.Close()

	if a.Env.Pending() != 0 {
		t.Errorf("registrations left after Close: %d", a.Env.Pending())
	}
	if !surface.released || a.Cache != nil {
		t.Errorf("resources not released: surface=%v cache=%v", surface.released, a.Cache)
	}
}

func TestAppRejectsBadLocations(t *testing.T) {
	cfg := testConfig(t)
	cfg.Locations = []config.LocationConfig{{Name: "Nowhere", Lat: 123, Lon: 0}}
	if _, err := New(cfg, &countingSurface{}, 320, 240); err == nil {
		t.Fatal("expected an error for an out-of-range latitude")
	}
}
