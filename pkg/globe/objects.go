package globe

import (
	"image"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Sphere is the earth or its atmosphere shell.
type Sphere struct {
	Radius         float64
	WidthSegments  int
	HeightSegments int
	RotationY      float64

	Color     color.RGBA
	Opacity   float64
	BackSide  bool
	Specular  color.RGBA
	Shininess float64
	Texture   image.Image
}

func (s *Sphere) release() { s.Texture = nil }

// Marker is the small dot sitting on a city.
type Marker struct {
	Position mgl64.Vec3
	Radius   float64
	Color    color.RGBA
	Opacity  float64
}

// Ring is the flat annulus pulsing around a marker. Normal points at the globe centre.
type Ring struct {
	Position     mgl64.Vec3
	Normal       mgl64.Vec3
	Inner, Outer float64
	Segments     int
	Color        color.RGBA
	Opacity      float64
	Scale        float64
}

// MarkerEntry ties a location to its marker and ring.
type MarkerEntry struct {
	Marker   *Marker
	Ring     *Ring
	Location Location
}

func newMarkerEntry(loc Location) *MarkerEntry {
	pos := LatLonToVector3(loc.Lat, loc.Lon, surfaceRadius)
	return &MarkerEntry{
		Marker: &Marker{Position: pos, Radius: 0.02, Color: loc.Color},
		Ring: &Ring{
			Position: pos,
			Normal:   pos.Mul(-1).Normalize(),
			Inner:    0.03,
			Outer:    0.05,
			Segments: 32,
			Color:    loc.Color,
			Scale:    1,
		},
		Location: loc,
	}
}

// Lighting is the scene's ambient plus single directional light.
type Lighting struct {
	AmbientColor         color.RGBA
	AmbientIntensity     float64
	DirectionalColor     color.RGBA
	DirectionalIntensity float64
	DirectionalPosition  mgl64.Vec3
}

func defaultLighting() Lighting {
	return Lighting{
		AmbientColor:         hexColor(0x404040),
		AmbientIntensity:     0.4,
		DirectionalColor:     hexColor(0xffffff),
		DirectionalIntensity: 1,
		DirectionalPosition:  mgl64.Vec3{5, 3, 5},
	}
}

// Shade returns the light intensity per channel for a surface with normal n seen from
// eye, using Phong with the given specular colour and shininess.
func (l Lighting) Shade(n, surface, eye mgl64.Vec3, specular color.RGBA, shininess float64) (r, g, b float64) {
	ambient := l.AmbientIntensity
	ar := float64(l.AmbientColor.R) / 255 * ambient
	ag := float64(l.AmbientColor.G) / 255 * ambient
	ab := float64(l.AmbientColor.B) / 255 * ambient

	lightDir := l.DirectionalPosition.Normalize()
	diffuse := n.Dot(lightDir)
	if diffuse < 0 {
		diffuse = 0
	}
	diffuse *= l.DirectionalIntensity

	spec := 0.0
	if diffuse > 0 && shininess > 0 {
		view := eye.Sub(surface).Normalize()
		half := lightDir.Add(view).Normalize()
		if d := n.Dot(half); d > 0 {
			spec = math.Pow(d, shininess)
		}
	}

	dr := float64(l.DirectionalColor.R) / 255
	dg := float64(l.DirectionalColor.G) / 255
	db := float64(l.DirectionalColor.B) / 255
	r = ar + dr*diffuse + spec*float64(specular.R)/255
	g = ag + dg*diffuse + spec*float64(specular.G)/255
	b = ab + db*diffuse + spec*float64(specular.B)/255
	return clamp01(r), clamp01(g), clamp01(b)
}

func clamp01(v float64) float64 {
	return mgl64.Clamp(v, 0, 1)
}
