package config

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "globe.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if c.Display.Width != 1920 || c.Display.Height != 1080 || c.Display.TPS != 60 {
		t.Errorf("unexpected display defaults: %+v", c.Display)
	}
	locs, err := c.GlobeLocations()
	if err != nil || locs != nil {
		t.Errorf("GlobeLocations = %v, %v; want built-in cities", locs, err)
	}
	if ttl, _ := c.TextureTTL(); ttl != 168*time.Hour {
		t.Errorf("ttl = %v", ttl)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
seed = 99

[display]
width = 1280
height = 720

[texture]
source = "https://example.com/earth.jpg"
ttl = "1h"

[control]
addr = "127.0.0.1:8090"

[[locations]]
name = "Berlin"
lat = 52.52
lon = 13.405
color = "#ff8800"
country = "de"

[[locations]]
name = "Lagos"
lat = 6.5244
lon = 3.3792
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Seed != 99 || c.Display.Width != 1280 || c.Display.TPS != 60 {
		t.Errorf("file values not merged over defaults: %+v", c)
	}
	if c.Control.Addr != "127.0.0.1:8090" || c.Texture.Source != "https://example.com/earth.jpg" {
		t.Errorf("unexpected sections: %+v", c)
	}
	locs, err := c.GlobeLocations()
	if err != nil {
		t.Fatal(err)
	}
	if len(locs) != 2 {
		t.Fatalf("expected 2 locations, got %d", len(locs))
	}
	if locs[0].Country != "DE" || locs[0].Color != (color.RGBA{255, 136, 0, 255}) {
		t.Errorf("unexpected first location: %+v", locs[0])
	}
	if locs[1].Color != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("missing colour should default to white: %+v", locs[1])
	}
}

func TestLoadRejectsBadLocations(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"latitude", "[[locations]]\nname = \"X\"\nlat = 91.0\nlon = 0.0\n"},
		{"longitude", "[[locations]]\nname = \"X\"\nlat = 0.0\nlon = -181.0\n"},
		{"colour", "[[locations]]\nname = \"X\"\ncolor = \"#12\"\n"},
		{"country", "[[locations]]\nname = \"X\"\ncountry = \"QQ\"\n"},
		{"name", "[[locations]]\nlat = 1.0\n"},
	}
	for _, tt := range tests {
		_, err := Load(writeConfig(t, tt.body))
		if !errors.Is(err, ErrInvalidLocation) {
			t.Errorf("%s: error = %v; want ErrInvalidLocation", tt.name, err)
		}
	}
}

func TestLoadRejectsBadDurations(t *testing.T) {
	if _, err := Load(writeConfig(t, "[texture]\nttl = \"soon\"\n")); err == nil {
		t.Errorf("expected an error for an unparsable ttl")
	}
	if _, err := Load(writeConfig(t, "[capture]\ninterval = \"-1s\"\n")); err == nil {
		t.Errorf("expected an error for a negative interval")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Errorf("expected an error for a missing file")
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
		ok   bool
	}{
		{"#ff4444", color.RGBA{255, 68, 68, 255}, true},
		{"44FF44", color.RGBA{68, 255, 68, 255}, true},
		{"0x4444ff", color.RGBA{68, 68, 255, 255}, true},
		{"#fff", color.RGBA{}, false},
		{"#gggggg", color.RGBA{}, false},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseColor(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestCountryName(t *testing.T) {
	if got := CountryName("JP"); got != "Japan" {
		t.Errorf("CountryName(JP) = %q", got)
	}
	if got := CountryName("ZZZ"); got != "ZZZ" {
		t.Errorf("unknown code should pass through, got %q", got)
	}
}
