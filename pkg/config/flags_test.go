package config

import "testing"

func TestFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, `
seed = 5

[texture]
source = "earth.png"
cache_dir = "/var/cache/globe"

[control]
addr = "127.0.0.1:8090"
`)

	tests := []struct {
		name    string
		flags   Flags
		source  string
		cache   string
		control string
		seed    int64
	}{
		{"file only", Flags{Config: path}, "earth.png", "/var/cache/globe", "127.0.0.1:8090", 5},
		{"flags win", Flags{Config: path, Texture: "land.geojson", ControlAddr: ":9000", Seed: 8}, "land.geojson", "/var/cache/globe", ":9000", 8},
		{"no file", Flags{CacheDir: "tmp"}, "", "tmp", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := tt.flags.Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if c.Texture.Source != tt.source || c.Texture.CacheDir != tt.cache || c.Control.Addr != tt.control || c.Seed != tt.seed {
				t.Errorf("got source=%q cache=%q control=%q seed=%d", c.Texture.Source, c.Texture.CacheDir, c.Control.Addr, c.Seed)
			}
		})
	}
}

func TestFlagsMissingFile(t *testing.T) {
	if _, err := (Flags{Config: "/nonexistent/globe.toml"}).Load(); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
