package globe

import (
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Location is a named point of interest shown on the globe.
type Location struct {
	Name    string
	Lat     float64
	Lon     float64
	Color   color.RGBA
	Country string // ISO 3166-1 alpha-2
}

// DefaultLocations returns the cities the landing page cycles through.
func DefaultLocations() []Location {
	return []Location{
		{Name: "New York", Lat: 40.7128, Lon: -74.006, Color: hexColor(0xff4444), Country: "US"},
		{Name: "London", Lat: 51.5074, Lon: -0.1278, Color: hexColor(0x44ff44), Country: "GB"},
		{Name: "Tokyo", Lat: 35.6762, Lon: 139.6503, Color: hexColor(0x4444ff), Country: "JP"},
		{Name: "Sydney", Lat: -33.8688, Lon: 151.2093, Color: hexColor(0xffff44), Country: "AU"},
		{Name: "Mumbai", Lat: 19.076, Lon: 72.8777, Color: hexColor(0xff44ff), Country: "IN"},
		{Name: "São Paulo", Lat: -23.5505, Lon: -46.6333, Color: hexColor(0x44ffff), Country: "BR"},
		{Name: "Cairo", Lat: 30.0444, Lon: 31.2357, Color: hexColor(0xff8844), Country: "EG"},
	}
}

func hexColor(v uint32) color.RGBA {
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 255}
}

// sincosDeg returns the sine and cosine of an angle in degrees, exact on multiples of 90.
func sincosDeg(deg float64) (sin, cos float64) {
	if q := deg / 90; q == math.Trunc(q) {
		switch int(math.Mod(q, 4)+4) % 4 {
		case 0:
			return 0, 1
		case 1:
			return 1, 0
		case 2:
			return 0, -1
		default:
			return -1, 0
		}
	}
	return math.Sincos(deg * (math.Pi / 180))
}

// LatLonToVector3 maps geographic coordinates onto a sphere of the given radius. The
// longitude is offset by 180 degrees and x is negated so points line up with the
// prime-meridian seam of an equirectangular texture wrapped around the sphere.
func LatLonToVector3(lat, lon, radius float64) mgl64.Vec3 {
	sinPhi, cosPhi := sincosDeg(90 - lat)
	sinTheta, cosTheta := sincosDeg(lon + 180)

	x := -(radius * sinPhi * cosTheta)
	z := radius * sinPhi * sinTheta
	y := radius * cosPhi
	return mgl64.Vec3{x, y, z}
}

// TextureCoords is the inverse of LatLonToVector3 for a point on a sphere centred on the
// origin. It returns equirectangular texture coordinates in [0,1), u growing east from
// the antimeridian and v growing south from the north pole.
func TextureCoords(p mgl64.Vec3) (u, v float64) {
	n := p.Normalize()
	u = math.Atan2(n.Z(), -n.X()) / (2 * math.Pi)
	if u < 0 {
		u++
	}
	v = math.Acos(mgl64.Clamp(n.Y(), -1, 1)) / math.Pi
	return u, v
}

// RotateY rotates p about the Y axis by angle radians.
func RotateY(p mgl64.Vec3, angle float64) mgl64.Vec3 {
	s, c := math.Sincos(angle)
	return mgl64.Vec3{p.X()*c + p.Z()*s, p.Y(), -p.X()*s + p.Z()*c}
}

// Occluded reports whether the segment from eye to p passes through a sphere of the
// given radius centred on the origin before reaching p.
func Occluded(eye, p mgl64.Vec3, radius float64) bool {
	d := p.Sub(eye)
	a := d.Dot(d)
	if a == 0 {
		return false
	}
	b := 2 * eye.Dot(d)
	c := eye.Dot(eye) - radius*radius
	disc := b*b - 4*a*c
	if disc < 0 {
		return false
	}
	t := (-b - math.Sqrt(disc)) / (2 * a)
	return t > 0 && t < 1-1e-9
}
