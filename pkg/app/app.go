// Package app assembles a mounted globe scene from a config: texture cache and loader,
// host environment and the optional control socket. Each binary supplies its surface
// and drives the returned Env from its own loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"

	"github.com/sudorandom/paygate-globe/pkg/assets"
	"github.com/sudorandom/paygate-globe/pkg/config"
	"github.com/sudorandom/paygate-globe/pkg/control"
	"github.com/sudorandom/paygate-globe/pkg/globe"
	"github.com/sudorandom/paygate-globe/pkg/host"
)

type App struct {
	Env     *host.Env
	Scene   *globe.GlobeScene
	Cache   *assets.Cache
	Control *control.Server

	controlAddr string
}

// New opens the texture cache, builds the scene against surface and mounts it. A
// cache that cannot be opened is logged and the texture is fetched uncached.
func New(cfg *config.Config, surface globe.Surface, width, height int) (*App, error) {
	locs, err := cfg.GlobeLocations()
	if err != nil {
		return nil, err
	}
	ttl, err := cfg.TextureTTL()
	if err != nil {
		return nil, err
	}

	a := &App{controlAddr: cfg.Control.Addr}
	if cfg.Texture.CacheDir != "" {
		cache, err := assets.OpenCache(filepath.Join(cfg.Texture.CacheDir, "textures"))
		if err != nil {
			log.Printf("[TEXTURE] Cache unavailable, fetching without it: %v", err)
		} else {
			a.Cache = cache
		}
	}
	loader := assets.NewTextureLoader(cfg.Texture.Source, a.Cache)
	if ttl > 0 {
		loader.TTL = ttl
	}

	a.Env = host.NewEnv(width, height)
	a.Scene = globe.New(a.Env, surface, globe.Config{Locations: locs, Texture: loader, Seed: cfg.Seed})
	if err := a.Scene.Mount(); err != nil {
		a.closeCache()
		return nil, fmt.Errorf("mounting scene: %w", err)
	}

	if a.controlAddr != "" {
		a.Control = control.NewServer(a.Env.Post, a.Scene.Select)
		a.Scene.OnSelect(a.Control.Broadcast)
		a.Control.Broadcast(a.Scene.Current())
	}
	return a, nil
}

// Serve runs the control socket until ctx is done. It returns immediately when no
// control address is configured.
func (a *App) Serve(ctx context.Context) {
	if a.Control == nil {
		return
	}
	go func() {
		if err := a.Control.ListenAndServe(ctx, a.controlAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[CONTROL] Server stopped: %v", err)
		}
	}()
}

// Step selects the next or previous city relative to the current one.
func (a *App) Step(delta int) bool {
	n := len(a.Scene.Locations())
	cur, _ := a.Scene.Current()
	return a.Scene.Select(((cur+delta)%n + n) % n)
}

// Close unmounts the scene, disconnects control clients and closes the cache.
func (a *App) Close() {
	a.Scene.Unmount()
	if a.Control != nil {
		a.Control.Close()
	}
	a.closeCache()
}

func (a *App) closeCache() {
	if a.Cache == nil {
		return
	}
	if err := a.Cache.Close(); err != nil {
		log.Printf("[TEXTURE] Closing cache: %v", err)
	}
	a.Cache = nil
}
