// Package config loads the optional TOML file shared by the globe binaries.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/biter777/countries"
	"github.com/sudorandom/paygate-globe/pkg/globe"
)

var ErrInvalidLocation = errors.New("invalid location")

type Config struct {
	Display struct {
		Width  int `toml:"width"`
		Height int `toml:"height"`
		TPS    int `toml:"tps"`
	} `toml:"display"`

	Texture struct {
		Source   string `toml:"source"`
		CacheDir string `toml:"cache_dir"`
		TTL      string `toml:"ttl"`
	} `toml:"texture"`

	Control struct {
		Addr string `toml:"addr"`
	} `toml:"control"`

	Capture struct {
		Dir      string `toml:"dir"`
		Interval string `toml:"interval"`
	} `toml:"capture"`

	Seed      int64            `toml:"seed"`
	Locations []LocationConfig `toml:"locations"`
}

// LocationConfig is one [[locations]] entry.
type LocationConfig struct {
	Name    string  `toml:"name"`
	Lat     float64 `toml:"lat"`
	Lon     float64 `toml:"lon"`
	Color   string  `toml:"color"`
	Country string  `toml:"country"`
}

// Default returns the settings used when no file is given.
func Default() *Config {
	c := &Config{}
	c.Display.Width = 1920
	c.Display.Height = 1080
	c.Display.TPS = 60
	c.Texture.CacheDir = "data/cache"
	c.Texture.TTL = "168h"
	c.Capture.Interval = "1m"
	return c
}

// Load decodes path on top of Default. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		log.Printf("[CONFIG] Ignoring unknown key %q in %s", key.String(), path)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	return c, nil
}

// Validate checks the durations and every configured location.
func (c *Config) Validate() error {
	if c.Display.Width < 0 || c.Display.Height < 0 || c.Display.TPS < 0 {
		return fmt.Errorf("display size and tps must not be negative")
	}
	if _, err := c.TextureTTL(); err != nil {
		return err
	}
	if _, err := c.CaptureInterval(); err != nil {
		return err
	}
	_, err := c.GlobeLocations()
	return err
}

func (c *Config) TextureTTL() (time.Duration, error) {
	return parseDuration("texture.ttl", c.Texture.TTL)
}

func (c *Config) CaptureInterval() (time.Duration, error) {
	return parseDuration("capture.interval", c.Capture.Interval)
}

func parseDuration(key, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: negative duration %s", key, s)
	}
	return d, nil
}

// GlobeLocations converts the [[locations]] table. It returns nil (use the built-in
// cities) when the table is absent.
func (c *Config) GlobeLocations() ([]globe.Location, error) {
	if len(c.Locations) == 0 {
		return nil, nil
	}
	out := make([]globe.Location, 0, len(c.Locations))
	for i, lc := range c.Locations {
		loc, err := lc.Location()
		if err != nil {
			return nil, fmt.Errorf("locations[%d]: %w", i, err)
		}
		out = append(out, loc)
	}
	return out, nil
}

// Location validates the entry and converts it.
func (lc LocationConfig) Location() (globe.Location, error) {
	if strings.TrimSpace(lc.Name) == "" {
		return globe.Location{}, fmt.Errorf("%w: missing name", ErrInvalidLocation)
	}
	if lc.Lat < -90 || lc.Lat > 90 {
		return globe.Location{}, fmt.Errorf("%w: %s latitude %v out of range", ErrInvalidLocation, lc.Name, lc.Lat)
	}
	if lc.Lon < -180 || lc.Lon > 180 {
		return globe.Location{}, fmt.Errorf("%w: %s longitude %v out of range", ErrInvalidLocation, lc.Name, lc.Lon)
	}
	col := color.RGBA{255, 255, 255, 255}
	if lc.Color != "" {
		var err error
		if col, err = ParseColor(lc.Color); err != nil {
			return globe.Location{}, fmt.Errorf("%w: %s: %v", ErrInvalidLocation, lc.Name, err)
		}
	}
	cc := strings.ToUpper(lc.Country)
	if cc != "" && countries.ByName(cc) == countries.Unknown {
		return globe.Location{}, fmt.Errorf("%w: %s: unknown country %q", ErrInvalidLocation, lc.Name, lc.Country)
	}
	return globe.Location{Name: lc.Name, Lat: lc.Lat, Lon: lc.Lon, Color: col, Country: cc}, nil
}

// ParseColor accepts "#rrggbb", "rrggbb" or "0xrrggbb".
func ParseColor(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(s), "#"), "0x")
	if len(h) != 6 {
		return color.RGBA{}, fmt.Errorf("colour %q is not #rrggbb", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("colour %q is not #rrggbb", s)
	}
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 255}, nil
}

// CountryName returns the English name for an ISO alpha-2 code, or the code itself if
// it is unknown.
func CountryName(code string) string {
	c := countries.ByName(code)
	if c == countries.Unknown {
		return code
	}
	return c.String()
}
