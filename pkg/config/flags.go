package config

// Flags are the command-line settings shared by every binary, embedded into each
// command's kong struct. Empty or zero values keep the setting from the file.
type Flags struct {
	Config      string `help:"TOML config file." type:"path" placeholder:"FILE"`
	Texture     string `help:"Earth texture: http(s) URL, image file or .geojson file." placeholder:"SOURCE"`
	CacheDir    string `help:"Directory for the texture cache." placeholder:"DIR"`
	ControlAddr string `help:"Serve the websocket control channel on this address." placeholder:"HOST:PORT"`
	Seed        int64  `help:"Seed for the starfield layout."`
}

// Load reads the config file, if any, and applies the flags on top.
func (f Flags) Load() (*Config, error) {
	c, err := Load(f.Config)
	if err != nil {
		return nil, err
	}
	if f.Texture != "" {
		c.Texture.Source = f.Texture
	}
	if f.CacheDir != "" {
		c.Texture.CacheDir = f.CacheDir
	}
	if f.ControlAddr != "" {
		c.Control.Addr = f.ControlAddr
	}
	if f.Seed != 0 {
		c.Seed = f.Seed
	}
	return c, nil
}
