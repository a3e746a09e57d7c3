package globe

import (
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	arcSegments   = 50
	arcLift       = 1.5
	arcOpacity    = 0.5
	surfaceRadius = 1.02
)

// ConnectionArc is the curved line drawn from the current city to the next one.
type ConnectionArc struct {
	From, To int
	Points   []mgl64.Vec3
	Color    color.RGBA
	Opacity  float64

	released bool
}

// NewConnectionArc builds a curve through start, the chord midpoint pushed outward by
// 1.5x, and end, sampled into 50 segments.
func NewConnectionArc(start, end mgl64.Vec3, c color.RGBA) *ConnectionArc {
	mid := start.Add(end.Sub(start).Mul(0.5)).Mul(arcLift)
	curve := catmullRom{points: []mgl64.Vec3{start, mid, end}}
	pts := make([]mgl64.Vec3, arcSegments+1)
	for i := range pts {
		pts[i] = curve.point(float64(i) / arcSegments)
	}
	return &ConnectionArc{Points: pts, Color: c, Opacity: arcOpacity}
}

// Release drops the arc's geometry. A released arc is never drawn again.
func (a *ConnectionArc) Release() {
	a.Points = nil
	a.released = true
}

func (a *ConnectionArc) Released() bool { return a.released }

// catmullRom is an open centripetal Catmull-Rom spline.
type catmullRom struct {
	points []mgl64.Vec3
}

func (c catmullRom) point(t float64) mgl64.Vec3 {
	pts := c.points
	l := len(pts)
	p := float64(l-1) * t
	idx := int(math.Floor(p))
	weight := p - float64(idx)
	if weight == 0 && idx == l-1 {
		idx = l - 2
		weight = 1
	}

	var p0, p3 mgl64.Vec3
	if idx > 0 {
		p0 = pts[idx-1]
	} else {
		p0 = pts[0].Sub(pts[1]).Add(pts[0])
	}
	p1, p2 := pts[idx], pts[idx+1]
	if idx+2 < l {
		p3 = pts[idx+2]
	} else {
		p3 = pts[l-1].Sub(pts[l-2]).Add(pts[l-1])
	}

	dt0 := math.Pow(distSq(p0, p1), 0.25)
	dt1 := math.Pow(distSq(p1, p2), 0.25)
	dt2 := math.Pow(distSq(p2, p3), 0.25)
	if dt1 < 1e-4 {
		dt1 = 1
	}
	if dt0 < 1e-4 {
		dt0 = dt1
	}
	if dt2 < 1e-4 {
		dt2 = dt1
	}

	var out mgl64.Vec3
	for axis := 0; axis < 3; axis++ {
		out[axis] = nonUniformCubic(p0[axis], p1[axis], p2[axis], p3[axis], dt0, dt1, dt2, weight)
	}
	return out
}

func distSq(a, b mgl64.Vec3) float64 {
	d := a.Sub(b)
	return d.Dot(d)
}

func nonUniformCubic(x0, x1, x2, x3, dt0, dt1, dt2, t float64) float64 {
	t1 := (x1-x0)/dt0 - (x2-x0)/(dt0+dt1) + (x2-x1)/dt1
	t2 := (x2-x1)/dt1 - (x3-x1)/(dt1+dt2) + (x3-x2)/dt2
	t1 *= dt1
	t2 *= dt1

	c0 := x1
	c1 := t1
	c2 := -3*x1 + 3*x2 - 2*t1 - t2
	c3 := 2*x1 - 2*x2 + t1 + t2
	t2p := t * t
	return c0 + c1*t + c2*t2p + c3*t2p*t
}
