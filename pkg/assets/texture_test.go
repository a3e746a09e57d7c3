package assets

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

const squareGeoJSON = `{"type":"FeatureCollection","features":[
 {"type":"Feature","properties":{},"geometry":{"type":"Polygon",
  "coordinates":[[[-90,-45],[90,-45],[90,45],[-90,45],[-90,-45]]]}}]}`

func encodePNG(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestTextureLoaderFallsBackAndCaches(t *testing.T) {
	srv, hits := testServer(t, map[string][]byte{"/earth.png": encodePNG(t, 8, 4, color.RGBA{0, 0, 255, 255})})
	cache, err := OpenMemoryCache()
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	l := &TextureLoader{
		URLs:   []string{srv.URL + "/gone.png", srv.URL + "/earth.png"},
		Cache:  cache,
		Client: srv.Client(),
	}
	img, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 4 {
		t.Errorf("unexpected size %v", img.Bounds())
	}
	if *hits != 2 {
		t.Errorf("expected 2 requests, got %d", *hits)
	}

	if _, err := l.Load(context.Background()); err != nil {
		t.Fatalf("second Load: %v", err)
	}
	// The 404 is asked again but the texture itself comes from the cache.
	if *hits != 3 {
		t.Errorf("cached texture was downloaded again, %d requests", *hits)
	}
}

func TestTextureLoaderDropsCorruptCacheEntry(t *testing.T) {
	srv, _ := testServer(t, map[string][]byte{"/earth.png": encodePNG(t, 2, 2, color.RGBA{255, 0, 0, 255})})
	cache, err := OpenMemoryCache()
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	url := srv.URL + "/earth.png"
	if err := cache.Put(url, []byte("not an image"), 0); err != nil {
		t.Fatal(err)
	}
	l := &TextureLoader{URLs: []string{url}, Cache: cache, Client: srv.Client()}
	if _, err := l.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	data, _ := cache.Get(url)
	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("cache still holds the corrupt entry")
	}
}

func TestTextureLoaderAllSourcesFail(t *testing.T) {
	srv, _ := testServer(t, nil)
	l := &TextureLoader{URLs: []string{srv.URL + "/a.jpg", srv.URL + "/broken"}, Client: srv.Client()}
	if _, err := l.Load(context.Background()); err == nil {
		t.Fatal("expected an error when every source fails")
	}
}

func TestTextureLoaderLocalFiles(t *testing.T) {
	dir := t.TempDir()
	pngPath := filepath.Join(dir, "earth.png")
	if err := os.WriteFile(pngPath, encodePNG(t, 4, 2, color.RGBA{1, 2, 3, 255}), 0o644); err != nil {
		t.Fatal(err)
	}
	geoPath := filepath.Join(dir, "land.geojson")
	if err := os.WriteFile(geoPath, []byte(squareGeoJSON), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		source string
		w, h   int
	}{
		{"png", pngPath, 4, 2},
		{"geojson", geoPath, 2048, 1024},
	}
	for _, tt := range tests {
		img, err := NewTextureLoader(tt.source, nil).Load(context.Background())
		if err != nil {
			t.Errorf("%s: Load: %v", tt.name, err)
			continue
		}
		if img.Bounds().Dx() != tt.w || img.Bounds().Dy() != tt.h {
			t.Errorf("%s: size %v", tt.name, img.Bounds())
		}
	}

	if _, err := NewTextureLoader(filepath.Join(dir, "missing.jpg"), nil).Load(context.Background()); err == nil {
		t.Errorf("expected an error for a missing file")
	}
}

func TestNewTextureLoaderSources(t *testing.T) {
	if l := NewTextureLoader("", nil); len(l.URLs) != len(DefaultTextureURLs) || l.File != "" {
		t.Errorf("default loader = %+v", l)
	}
	if l := NewTextureLoader("https://example.com/e.jpg", nil); len(l.URLs) != 1 || l.File != "" {
		t.Errorf("url loader = %+v", l)
	}
	if l := NewTextureLoader("/tmp/e.jpg", nil); l.File != "/tmp/e.jpg" || len(l.URLs) != 0 {
		t.Errorf("file loader = %+v", l)
	}
}

func TestRasterizeGeoJSON(t *testing.T) {
	img, err := RasterizeGeoJSON([]byte(squareGeoJSON), 360, 180, DefaultMapStyle)
	if err != nil {
		t.Fatalf("RasterizeGeoJSON: %v", err)
	}

	tests := []struct {
		name string
		x, y int
		want color.RGBA
	}{
		{"inside", 180, 90, DefaultMapStyle.Land},
		{"ocean north-west", 10, 10, DefaultMapStyle.Ocean},
		{"ocean east", 300, 90, DefaultMapStyle.Ocean},
		{"west edge", 90, 90, DefaultMapStyle.Outline},
		{"north edge", 180, 45, DefaultMapStyle.Outline},
	}
	for _, tt := range tests {
		if got := img.RGBAAt(tt.x, tt.y); got != tt.want {
			t.Errorf("%s: pixel (%d,%d) = %v; want %v", tt.name, tt.x, tt.y, got, tt.want)
		}
	}

	if _, err := RasterizeGeoJSON([]byte(`{"type":"FeatureCollection","features":[]}`), 10, 10, DefaultMapStyle); err == nil {
		t.Errorf("expected an error for an empty collection")
	}
	if _, err := RasterizeGeoJSON([]byte(squareGeoJSON), 0, 10, DefaultMapStyle); err == nil {
		t.Errorf("expected an error for a zero-sized texture")
	}
}

func TestDrawLineClips(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	c := color.RGBA{255, 255, 255, 255}
	DrawLine(img, -5, 5, 20, 5, c)
	for x := 0; x < 10; x++ {
		if img.RGBAAt(x, 5) != c {
			t.Fatalf("pixel %d not drawn", x)
		}
	}
	if img.RGBAAt(0, 4) == c {
		t.Errorf("line leaked into the neighbouring row")
	}
}

func TestTextureLoaderDownloadWritesUsableFile(t *testing.T) {
	srv, _ := testServer(t, map[string][]byte{
		"/earth.png": encodePNG(t, 8, 4, color.RGBA{0, 255, 0, 255}),
		"/junk.png":  []byte("not an image"),
	})
	dir := filepath.Join(t.TempDir(), "textures")

	l := &TextureLoader{
		URLs:   []string{srv.URL + "/gone.png", srv.URL + "/junk.png", srv.URL + "/earth.png"},
		Client: srv.Client(),
	}
	path, err := l.Download(context.Background(), dir)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if filepath.Base(path) != "earth.png" {
		t.Errorf("downloaded to %s", path)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only the usable texture on disk, got %d entries", len(entries))
	}

	img, err := NewTextureLoader(path, nil).Load(context.Background())
	if err != nil {
		t.Fatalf("loading the downloaded file: %v", err)
	}
	if img.Bounds().Dx() != 8 {
		t.Errorf("unexpected size %v", img.Bounds())
	}
}
