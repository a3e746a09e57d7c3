package globe

import (
	"image/color"
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	starfieldCount     = 10000
	starfieldMinRadius = 10
	starfieldSpan      = 1900
	starfieldPointSize = 0.2

	twinkleCount     = 120
	twinkleMinRadius = 3
	twinkleSpan      = 3
	twinklePhaseStep = 0.1
	starSpikes       = 5
	starOuterRadius  = 0.08
	starInnerRadius  = 0.03
)

var (
	colorStarFill    = hexColor(0xffff00)
	colorStarOutline = hexColor(0xffcc00)
)

// Starfield is the static background of distant points.
type Starfield struct {
	Points []mgl64.Vec3
	Size   float64
	Color  color.RGBA
}

// sampleShell picks a point uniformly on a sphere, at a radius drawn uniformly from
// [minRadius, minRadius+span).
func sampleShell(rng *rand.Rand, minRadius, span float64) mgl64.Vec3 {
	radius := minRadius + rng.Float64()*span
	theta := rng.Float64() * math.Pi * 2
	phi := math.Acos(2*rng.Float64() - 1)

	sinPhi, cosPhi := math.Sincos(phi)
	sinTheta, cosTheta := math.Sincos(theta)
	return mgl64.Vec3{radius * sinPhi * cosTheta, radius * sinPhi * sinTheta, radius * cosPhi}
}

func NewStarfield(rng *rand.Rand) *Starfield {
	pts := make([]mgl64.Vec3, starfieldCount)
	for i := range pts {
		pts[i] = sampleShell(rng, starfieldMinRadius, starfieldSpan)
	}
	return &Starfield{Points: pts, Size: starfieldPointSize, Color: color.RGBA{255, 255, 255, 255}}
}

// StarShape is one half of a twinkling star: its filled body or its outline. Outline
// is the closed polygon in the star's local plane.
type StarShape struct {
	Outline     []mgl64.Vec2
	Color       color.RGBA
	Opacity     float64
	Transparent bool
}

// TwinklingStar is a billboarded five-pointed star that blinks on its own phase.
type TwinklingStar struct {
	Position mgl64.Vec3
	Fill     *StarShape
	Outline  *StarShape
	Phase    float64
	Scale    float64

	// Right and Up span the plane facing the camera, refreshed every frame.
	Right, Up mgl64.Vec3
}

func starPolygon() []mgl64.Vec2 {
	angle := 2 * math.Pi / starSpikes
	pts := make([]mgl64.Vec2, starSpikes*2)
	for j := range pts {
		r := starOuterRadius
		if j%2 == 1 {
			r = starInnerRadius
		}
		s, c := math.Sincos(float64(j) * angle)
		pts[j] = mgl64.Vec2{r * c, r * s}
	}
	return pts
}

func NewTwinklingStars(rng *rand.Rand) []*TwinklingStar {
	shape := starPolygon()
	stars := make([]*TwinklingStar, twinkleCount)
	for i := range stars {
		stars[i] = &TwinklingStar{
			Position: sampleShell(rng, twinkleMinRadius, twinkleSpan),
			Fill:     &StarShape{Outline: shape, Color: colorStarFill, Opacity: 1},
			Outline:  &StarShape{Outline: shape, Color: colorStarOutline, Opacity: 0.9, Transparent: true},
			Phase:    float64(i) * twinklePhaseStep,
			Scale:    1,
			Right:    mgl64.Vec3{1, 0, 0},
			Up:       mgl64.Vec3{0, 1, 0},
		}
	}
	return stars
}

// Twinkle advances the blink for time ts (already scaled) and turns the star towards eye.
func (s *TwinklingStar) Twinkle(ts float64, eye mgl64.Vec3) {
	blink := math.Sin(ts+s.Phase)*0.5 + 0.5
	s.Fill.Opacity = 0.4 + blink*0.6
	s.Outline.Opacity = 0.4 + blink*0.6
	s.Scale = 0.8 + blink*0.4
	s.Right, s.Up = billboard(s.Position, eye)
}

// billboard returns the right and up axes of a plane at pos whose normal points at eye.
func billboard(pos, eye mgl64.Vec3) (right, up mgl64.Vec3) {
	forward := eye.Sub(pos)
	if forward.Len() < 1e-12 {
		return mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0}
	}
	forward = forward.Normalize()
	worldUp := mgl64.Vec3{0, 1, 0}
	right = worldUp.Cross(forward)
	if right.Len() < 1e-9 {
		right = mgl64.Vec3{0, 0, 1}.Cross(forward)
	}
	right = right.Normalize()
	up = forward.Cross(right)
	return right, up
}

// World maps a point of the star's local polygon into world space.
func (s *TwinklingStar) World(local mgl64.Vec2) mgl64.Vec3 {
	return s.Position.
		Add(s.Right.Mul(local.X() * s.Scale)).
		Add(s.Up.Mul(local.Y() * s.Scale))
}
