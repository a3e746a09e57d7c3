// Package globe implements the rotating-earth hero: a textured sphere with pulsing city
// markers, an arc to the next city, twinkling stars and a camera that glides between
// cities. A GlobeScene owns every object it creates and runs entirely on the host's
// loop goroutine.
package globe

import (
	"context"
	"errors"
	"image"
	"log"
	"math"
	"math/rand"
	"time"

	"github.com/sudorandom/paygate-globe/pkg/host"
)

const rotationStep = 0.002

var (
	ErrMounted     = errors.New("scene already mounted")
	ErrNoLocations = errors.New("scene needs at least one location")
)

// Host is the environment a scene schedules itself against. *host.Env implements it.
type Host interface {
	OnFrame(fn func(now time.Time)) host.Handle
	SetInterval(period time.Duration, fn func()) host.Handle
	OnResize(fn func(width, height int)) host.Handle
	Cancel(h host.Handle)
	Post(fn func())
	Size() (width, height int)
}

// Surface presents frames. Present is called from the loop goroutine once per tick;
// Release frees every drawing resource the surface holds. A released surface is reused
// when the scene is mounted again, which starts with a Resize.
type Surface interface {
	Resize(width, height int)
	Present(f *Frame)
	Release()
}

// TextureSource fetches the equirectangular world map. Load runs on its own goroutine.
type TextureSource interface {
	Load(ctx context.Context) (image.Image, error)
}

// Frame is what a surface needs to draw one picture of the scene. Pointers refer to
// scene-owned objects and are only valid during Present or until the next tick.
type Frame struct {
	Time          time.Time
	Width, Height int
	Camera        Camera
	Lights        Lighting

	Earth      *Sphere // nil while the texture is loading
	Atmosphere *Sphere
	Starfield  *Starfield
	Stars      []*TwinklingStar
	Markers    []*MarkerEntry
	Arc        *ConnectionArc

	Current  int
	Location Location
	Loading  bool
}

// Config controls a GlobeScene. Zero values fall back to the landing page defaults.
type Config struct {
	Locations []Location
	Texture   TextureSource
	Seed      int64
}

// GlobeScene is the globe component.
type GlobeScene struct {
	host      Host
	surface   Surface
	texture   TextureSource
	locations []Location
	seed      int64

	camera     *Camera
	controller *CameraController
	cycler     *LocationCycler
	lights     Lighting

	earth      *Sphere
	atmosphere *Sphere
	starfield  *Starfield
	stars      []*TwinklingStar
	markers    []*MarkerEntry
	arc        *ConnectionArc

	earthTexture image.Image
	frame        Frame
	frames       uint64

	mounted    bool
	frameSub   host.Handle
	advanceSub host.Handle
	resizeSub  host.Handle
	cancelLoad context.CancelFunc

	listeners []func(index int, loc Location)
}

func New(h Host, surface Surface, cfg Config) *GlobeScene {
	locs := cfg.Locations
	if locs == nil {
		locs = DefaultLocations()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &GlobeScene{
		host:      h,
		surface:   surface,
		texture:   cfg.Texture,
		locations: append([]Location(nil), locs...),
		seed:      seed,
		lights:    defaultLighting(),
	}
}

// OnSelect registers fn to run on the loop goroutine whenever the current city changes.
func (s *GlobeScene) OnSelect(fn func(index int, loc Location)) {
	s.listeners = append(s.listeners, fn)
}

// Mount builds every scene object, starts the texture load and registers the render
// tick, the auto-advance timer and the resize listener.
func (s *GlobeScene) Mount() error {
	if s.mounted {
		return ErrMounted
	}
	if len(s.locations) == 0 {
		return ErrNoLocations
	}

	w, h := s.host.Size()
	s.camera = NewCamera(aspect(w, h))
	s.controller = NewCameraController(s.camera, s.host)
	s.cycler = NewLocationCycler(len(s.locations), s.controller.Animating, s.selectionChanged)

	rng := rand.New(rand.NewSource(s.seed))
	s.atmosphere = &Sphere{
		Radius:         1.05,
		WidthSegments:  64,
		HeightSegments: 64,
		Color:          hexColor(0x87ceeb),
		Opacity:        1,
		BackSide:       true,
		Specular:       hexColor(0x111111),
		Shininess:      30,
	}
	s.starfield = NewStarfield(rng)
	s.stars = NewTwinklingStars(rng)
	s.markers = make([]*MarkerEntry, len(s.locations))
	for i, loc := range s.locations {
		s.markers[i] = newMarkerEntry(loc)
	}
	s.rebuildArc(s.cycler.Current())

	if s.surface != nil {
		s.surface.Resize(w, h)
	}
	s.mounted = true

	if s.texture != nil {
		ctx, cancel := context.WithCancel(context.Background())
		s.cancelLoad = cancel
		go s.loadTexture(ctx)
	}

	s.frameSub = s.host.OnFrame(s.Tick)
	s.advanceSub = s.host.SetInterval(AdvanceInterval, func() { s.Advance() })
	s.resizeSub = s.host.OnResize(s.handleResize)
	log.Printf("[SCENE] Mounted with %d locations", len(s.locations))
	return nil
}

// Unmount stops all scheduling first and only then releases scene resources.
func (s *GlobeScene) Unmount() {
	if !s.mounted {
		return
	}
	s.mounted = false

	s.host.Cancel(s.frameSub)
	s.host.Cancel(s.advanceSub)
	s.host.Cancel(s.resizeSub)
	s.frameSub, s.advanceSub, s.resizeSub = 0, 0, 0
	s.controller.Stop()
	if s.cancelLoad != nil {
		s.cancelLoad()
		s.cancelLoad = nil
	}

	if s.arc != nil {
		s.arc.Release()
		s.arc = nil
	}
	if s.earth != nil {
		s.earth.release()
		s.earth = nil
	}
	s.atmosphere.release()
	s.atmosphere = nil
	s.starfield = nil
	s.stars = nil
	s.markers = nil
	s.earthTexture = nil
	s.frame = Frame{}
	if s.surface != nil {
		s.surface.Release()
	}
	log.Printf("[SCENE] Unmounted after %d frames", s.frames)
}

func (s *GlobeScene) loadTexture(ctx context.Context) {
	img, err := s.texture.Load(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("[TEXTURE] Load failed, staying in loading state: %v", err)
		}
		return
	}
	s.host.Post(func() {
		if !s.mounted || ctx.Err() != nil {
			return
		}
		s.applyTexture(img)
	})
}

func (s *GlobeScene) applyTexture(img image.Image) {
	s.earthTexture = img
	s.earth = &Sphere{
		Radius:         1,
		WidthSegments:  64,
		HeightSegments: 64,
		Color:          hexColor(0xffffff),
		Opacity:        1,
		Specular:       hexColor(0x333333),
		Shininess:      5,
		Texture:        img,
	}
	log.Printf("[TEXTURE] Earth texture ready (%dx%d)", img.Bounds().Dx(), img.Bounds().Dy())
}

func (s *GlobeScene) handleResize(width, height int) {
	s.camera.Aspect = aspect(width, height)
	if s.surface != nil {
		s.surface.Resize(width, height)
	}
}

// Advance is the body of the auto-advance timer.
func (s *GlobeScene) Advance() bool {
	if !s.mounted {
		return false
	}
	return s.cycler.Tick()
}

// Select makes n the current city. It returns false for an out-of-range index or an
// unmounted scene.
func (s *GlobeScene) Select(n int) bool {
	if !s.mounted {
		return false
	}
	return s.cycler.Select(n)
}

func (s *GlobeScene) selectionChanged(index int) {
	s.rebuildArc(index)
	loc := s.locations[index]
	s.controller.Begin(LatLonToVector3(loc.Lat, loc.Lon, ViewingRadius))
	for _, fn := range s.listeners {
		fn(index, loc)
	}
}

// rebuildArc discards the current arc before creating the one for index.
func (s *GlobeScene) rebuildArc(index int) {
	if s.arc != nil {
		s.arc.Release()
		s.arc = nil
	}
	next := (index + 1) % len(s.locations)
	from, to := s.locations[index], s.locations[next]
	arc := NewConnectionArc(
		LatLonToVector3(from.Lat, from.Lon, surfaceRadius),
		LatLonToVector3(to.Lat, to.Lon, surfaceRadius),
		from.Color,
	)
	arc.From, arc.To = index, next
	s.arc = arc
}

// Tick advances every animation by one frame and presents the result.
func (s *GlobeScene) Tick(now time.Time) {
	if !s.mounted {
		return
	}
	s.frames++
	ms := float64(now.UnixMilli())

	if s.earth != nil {
		s.earth.RotationY += rotationStep
	}
	s.atmosphere.RotationY += rotationStep

	current := s.cycler.Current()
	t := ms * 0.005
	for i, m := range s.markers {
		if i == current {
			m.Marker.Opacity = 0.9
			m.Ring.Opacity = 0.3 + math.Sin(t*3)*0.2
			m.Ring.Scale = 1 + math.Sin(t*2)*0.3
		} else {
			m.Marker.Opacity = 0.3
			m.Ring.Opacity = 0.1
			m.Ring.Scale = 1
		}
	}

	if s.arc != nil {
		s.arc.Opacity = 0.3 + math.Sin(t)*0.2
	}

	ts := ms * 0.003
	for _, star := range s.stars {
		star.Twinkle(ts, s.camera.Position)
	}

	if s.surface != nil {
		s.surface.Present(s.buildFrame(now, current))
	}
}

func (s *GlobeScene) buildFrame(now time.Time, current int) *Frame {
	w, h := s.host.Size()
	s.frame = Frame{
		Time:       now,
		Width:      w,
		Height:     h,
		Camera:     *s.camera,
		Lights:     s.lights,
		Earth:      s.earth,
		Atmosphere: s.atmosphere,
		Starfield:  s.starfield,
		Stars:      s.stars,
		Markers:    s.markers,
		Arc:        s.arc,
		Current:    current,
		Location:   s.locations[current],
		Loading:    s.earth == nil,
	}
	return &s.frame
}

func (s *GlobeScene) Mounted() bool { return s.mounted }

func (s *GlobeScene) Locations() []Location { return s.locations }

// Current returns the selected index and its location.
func (s *GlobeScene) Current() (int, Location) {
	if s.cycler == nil {
		return 0, s.locations[0]
	}
	i := s.cycler.Current()
	return i, s.locations[i]
}

func (s *GlobeScene) Camera() *Camera { return s.camera }
func (s *GlobeScene) CameraController() *CameraController { return s.controller }
func (s *GlobeScene) Animating() bool { return s.controller != nil && s.controller.Animating() }
func (s *GlobeScene) Arc() *ConnectionArc { return s.arc }
func (s *GlobeScene) Markers() []*MarkerEntry { return s.markers }
func (s *GlobeScene) Stars() []*TwinklingStar { return s.stars }
func (s *GlobeScene) Starfield() *Starfield { return s.starfield }
func (s *GlobeScene) Earth() *Sphere { return s.earth }
func (s *GlobeScene) Atmosphere() *Sphere { return s.atmosphere }
func (s *GlobeScene) TextureLoaded() bool { return s.earth != nil }

func aspect(w, h int) float64 {
	if w <= 0 || h <= 0 {
		return 1
	}
	return float64(w) / float64(h)
}
