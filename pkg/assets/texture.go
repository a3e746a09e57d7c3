package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "golang.org/x/image/webp"
)

// DefaultGeoJSONSize is the texture size used when rasterising GeoJSON maps.
var DefaultGeoJSONSize = image.Pt(2048, 1024)

// TextureLoader resolves the earth texture from remote images, a local file or a
// GeoJSON world map. The zero value downloads the default texture without caching.
type TextureLoader struct {
	// URLs are tried in order; a 404 moves on to the next one.
	URLs []string
	// File is a local image or .geojson file. It wins over URLs.
	File string

	Cache  *Cache
	TTL    time.Duration
	Client *http.Client

	GeoJSONSize image.Point
	Style       MapStyle
}

// NewTextureLoader builds a loader from a single source string as given on the command
// line: empty for the defaults, an http(s) URL, or a file path.
func NewTextureLoader(source string, cache *Cache) *TextureLoader {
	l := &TextureLoader{Cache: cache, TTL: 7 * 24 * time.Hour}
	switch {
	case source == "":
		l.URLs = DefaultTextureURLs
	case strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://"):
		l.URLs = []string{source}
	default:
		l.File = source
	}
	return l
}

// Load satisfies the scene's texture source contract.
func (l *TextureLoader) Load(ctx context.Context) (image.Image, error) {
	if l.File != "" {
		data, err := os.ReadFile(l.File)
		if err != nil {
			return nil, fmt.Errorf("reading texture: %w", err)
		}
		log.Printf("[TEXTURE] Using local file %s", l.File)
		return l.decode(l.File, data)
	}

	urls := l.URLs
	if len(urls) == 0 {
		urls = DefaultTextureURLs
	}
	var errs []error
	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := l.loadURL(ctx, u)
		if err == nil {
			return img, nil
		}
		if errors.Is(err, ErrNotFound) {
			log.Printf("[TEXTURE] %s not found, trying next source", u)
		} else {
			log.Printf("[TEXTURE] %s failed: %v", u, err)
		}
		errs = append(errs, fmt.Errorf("%s: %w", u, err))
	}
	return nil, fmt.Errorf("no texture source succeeded: %w", errors.Join(errs...))
}

func (l *TextureLoader) loadURL(ctx context.Context, url string) (image.Image, error) {
	if l.Cache != nil {
		data, err := l.Cache.Get(url)
		if err != nil {
			log.Printf("[TEXTURE] Cache read failed: %v", err)
		} else if data != nil {
			img, err := l.decode(url, data)
			if err == nil {
				log.Printf("[TEXTURE] Using cached copy of %s", CacheFileName(url))
				return img, nil
			}
			log.Printf("[TEXTURE] Dropping unreadable cache entry for %s: %v", url, err)
			if err := l.Cache.Delete(url); err != nil {
				log.Printf("[TEXTURE] Cache delete failed: %v", err)
			}
		}
	}

	log.Printf("[TEXTURE] Downloading %s", url)
	data, err := Fetch(ctx, l.Client, url)
	if err != nil {
		return nil, err
	}
	img, err := l.decode(url, data)
	if err != nil {
		return nil, err
	}
	if l.Cache != nil {
		if err := l.Cache.Put(url, data, l.TTL); err != nil {
			log.Printf("[TEXTURE] Cache write failed: %v", err)
		}
	}
	return img, nil
}

func (l *TextureLoader) decode(name string, data []byte) (image.Image, error) {
	if isGeoJSON(name) {
		size := l.GeoJSONSize
		if size.X <= 0 || size.Y <= 0 {
			size = DefaultGeoJSONSize
		}
		style := l.Style
		if style == (MapStyle{}) {
			style = DefaultMapStyle
		}
		return RasterizeGeoJSON(data, size.X, size.Y, style)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(name), err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("decoding %s: empty %s image", filepath.Base(name), format)
	}
	return img, nil
}

func isGeoJSON(name string) bool {
	ext := strings.ToLower(filepath.Ext(CacheFileName(name)))
	return ext == ".geojson" || ext == ".json"
}

// Download saves the first reachable texture URL into dir and returns its path, so it
// can be passed back as File on machines without network access. The file is checked
// to decode before Download returns.
func (l *TextureLoader) Download(ctx context.Context, dir string) (string, error) {
	urls := l.URLs
	if len(urls) == 0 {
		urls = DefaultTextureURLs
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	var errs []error
	for _, u := range urls {
		path := filepath.Join(dir, CacheFileName(u))
		log.Printf("[TEXTURE] Downloading %s to %s", u, path)
		err := DownloadFile(ctx, l.Client, u, path)
		if err == nil {
			var data []byte
			if data, err = os.ReadFile(path); err == nil {
				if _, err = l.decode(path, data); err == nil {
					return path, nil
				}
			}
			_ = os.Remove(path)
		}
		if errors.Is(err, ErrNotFound) {
			log.Printf("[TEXTURE] %s not found, trying next source", u)
		}
		errs = append(errs, fmt.Errorf("%s: %w", u, err))
	}
	return "", fmt.Errorf("no texture source succeeded: %w", errors.Join(errs...))
}
