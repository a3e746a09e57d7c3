package render

import (
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sudorandom/paygate-globe/pkg/globe"
)

const earthRadius = 1.0

// fade returns c at opacity a, premultiplied as image/color expects.
func fade(c color.RGBA, a float64) color.RGBA {
	a = mgl64.Clamp(a, 0, 1)
	return color.RGBA{
		R: uint8(math.Round(float64(c.R) * a)),
		G: uint8(math.Round(float64(c.G) * a)),
		B: uint8(math.Round(float64(c.B) * a)),
		A: uint8(math.Round(255 * a)),
	}
}

// litColor returns the straight-alpha channel multipliers for a point on sphere s with
// outward normal n. Back-side materials are lit from the inside.
func litColor(l globe.Lighting, s *globe.Sphere, n, pos, eye mgl64.Vec3) (r, g, b float64) {
	if s.BackSide {
		n = n.Mul(-1)
	}
	lr, lg, lb := l.Shade(n, pos, eye, s.Specular, s.Shininess)
	return lr * float64(s.Color.R) / 255, lg * float64(s.Color.G) / 255, lb * float64(s.Color.B) / 255
}

// pointSize is the on-screen diameter of a size-attenuated point, never less than a
// pixel.
func pointSize(size, dist float64, height int) float64 {
	if dist <= 0 {
		return 1
	}
	return math.Max(1, size*float64(height)/2/dist)
}

// tangentBasis returns two unit vectors perpendicular to n and to each other.
func tangentBasis(n mgl64.Vec3) (t1, t2 mgl64.Vec3) {
	ref := mgl64.Vec3{0, 1, 0}
	if math.Abs(n.Normalize().Dot(ref)) > 0.99 {
		ref = mgl64.Vec3{1, 0, 0}
	}
	t1 = ref.Cross(n).Normalize()
	t2 = n.Cross(t1).Normalize()
	return t1, t2
}

// ringPoint returns the point at angle on the circle of the given radius around ring r.
func ringPoint(r *globe.Ring, t1, t2 mgl64.Vec3, radius, angle float64) mgl64.Vec3 {
	s, c := math.Sincos(angle)
	return r.Position.Add(t1.Mul(c * radius * r.Scale)).Add(t2.Mul(s * radius * r.Scale))
}
