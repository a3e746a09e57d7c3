package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sudorandom/paygate-globe/pkg/globe"
)

// Raster renders frames into an image in software. It is what the terminal surface
// samples from and what headless snapshots are written from.
type Raster struct {
	img *image.RGBA
}

func NewRaster(width, height int) *Raster {
	r := &Raster{}
	r.Resize(width, height)
	return r
}

func (r *Raster) Resize(width, height int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	if r.img != nil && r.img.Bounds().Dx() == width && r.img.Bounds().Dy() == height {
		return
	}
	r.img = image.NewRGBA(image.Rect(0, 0, width, height))
}

// Image returns the most recent render. It is overwritten by the next Render call.
func (r *Raster) Image() *image.RGBA { return r.img }

// Render draws f back to front: starfield, hidden stars, atmosphere and earth, markers
// and rings, the arc, then the stars in front of the globe.
func (r *Raster) Render(f *globe.Frame) {
	draw.Draw(r.img, r.img.Bounds(), &image.Uniform{ClearColor}, image.Point{}, draw.Src)
	b := r.img.Bounds()
	p := globe.NewProjector(&f.Camera, b.Dx(), b.Dy())

	if sf := f.Starfield; sf != nil {
		for _, pt := range sf.Points {
			x, y, dist, ok := p.Project(pt)
			if !ok {
				continue
			}
			size := pointSize(sf.Size, dist, b.Dy())
			if size <= 1.5 {
				r.blend(int(x), int(y), sf.Color, 1)
				continue
			}
			r.disc(x, y, size/2, sf.Color, 1, true)
		}
	}

	r.stars(p, f, true)
	r.globe(p, f)

	for _, m := range f.Markers {
		if globe.Occluded(p.Eye, m.Marker.Position, earthRadius) {
			continue
		}
		r.ring(p, m.Ring)
		x, y, dist, ok := p.Project(m.Marker.Position)
		if !ok {
			continue
		}
		r.disc(x, y, math.Max(0.5, p.PixelSize(m.Marker.Radius, dist)), m.Marker.Color, m.Marker.Opacity, false)
	}

	if arc := f.Arc; arc != nil && !arc.Released() {
		for i := 0; i+1 < len(arc.Points); i++ {
			a, b := arc.Points[i], arc.Points[i+1]
			if globe.Occluded(p.Eye, a, earthRadius) || globe.Occluded(p.Eye, b, earthRadius) {
				continue
			}
			x1, y1, _, ok1 := p.Project(a)
			x2, y2, _, ok2 := p.Project(b)
			if ok1 && ok2 {
				r.line(int(x1), int(y1), int(x2), int(y2), arc.Color, arc.Opacity)
			}
		}
	}

	r.stars(p, f, false)
}

// globe ray-casts every pixel inside the atmosphere's silhouette.
func (r *Raster) globe(p *globe.Projector, f *globe.Frame) {
	outer := earthRadius
	if f.Atmosphere != nil {
		outer = f.Atmosphere.Radius
	}
	cx, cy, _, ok := p.Project(mgl64.Vec3{})
	if !ok {
		return
	}
	radius := p.SilhouetteRadius(outer) + 1
	b := r.img.Bounds()
	x0, x1 := max(b.Min.X, int(cx-radius)), min(b.Max.X, int(cx+radius)+1)
	y0, y1 := max(b.Min.Y, int(cy-radius)), min(b.Max.Y, int(cy+radius)+1)

	var tex image.Image
	var tb image.Rectangle
	if f.Earth != nil && f.Earth.Texture != nil {
		tex = f.Earth.Texture
		tb = tex.Bounds()
	}

	for py := y0; py < y1; py++ {
		for px := x0; px < x1; px++ {
			eye, dir := p.Ray(float64(px)+0.5, float64(py)+0.5)
			if tex != nil {
				if t, hit := intersectSphere(eye, dir, f.Earth.Radius, false); hit {
					pos := eye.Add(dir.Mul(t))
					n := pos.Normalize()
					u, v := globe.TextureCoords(globe.RotateY(n, -f.Earth.RotationY))
					tx := tb.Min.X + min(tb.Dx()-1, int(u*float64(tb.Dx())))
					ty := tb.Min.Y + min(tb.Dy()-1, int(v*float64(tb.Dy())))
					tr, tg, tbl, _ := tex.At(tx, ty).RGBA()
					lr, lg, lb := litColor(f.Lights, f.Earth, n, pos, eye)
					c := color.RGBA{
						R: uint8(math.Min(255, float64(tr>>8)*lr)),
						G: uint8(math.Min(255, float64(tg>>8)*lg)),
						B: uint8(math.Min(255, float64(tbl>>8)*lb)),
						A: 255,
					}
					r.blend(px, py, c, f.Earth.Opacity)
					continue
				}
			}
			if f.Atmosphere == nil {
				continue
			}
			t, hit := intersectSphere(eye, dir, f.Atmosphere.Radius, f.Atmosphere.BackSide)
			if !hit {
				continue
			}
			pos := eye.Add(dir.Mul(t))
			lr, lg, lb := litColor(f.Lights, f.Atmosphere, pos.Normalize(), pos, eye)
			c := color.RGBA{uint8(lr * 255), uint8(lg * 255), uint8(lb * 255), 255}
			r.blend(px, py, c, f.Atmosphere.Opacity)
		}
	}
}

// intersectSphere returns the distance along dir to the near (or far) intersection
// with an origin-centred sphere.
func intersectSphere(origin, dir mgl64.Vec3, radius float64, far bool) (float64, bool) {
	b := origin.Dot(dir)
	c := origin.Dot(origin) - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	t := -b - sq
	if far {
		t = -b + sq
	}
	if t <= 0 {
		return 0, false
	}
	return t, true
}

func (r *Raster) stars(p *globe.Projector, f *globe.Frame, behind bool) {
	atmo := earthRadius
	if f.Atmosphere != nil {
		atmo = f.Atmosphere.Radius
	}
	for _, st := range f.Stars {
		if globe.Occluded(p.Eye, st.Position, atmo) != behind {
			continue
		}
		pts := make([]mgl64.Vec2, 0, len(st.Fill.Outline))
		for _, local := range st.Fill.Outline {
			x, y, _, ok := p.Project(st.World(local))
			if !ok {
				pts = nil
				break
			}
			pts = append(pts, mgl64.Vec2{x, y})
		}
		if len(pts) == 0 {
			continue
		}
		fillA := 1.0
		if st.Fill.Transparent {
			fillA = st.Fill.Opacity
		}
		if extent(pts) < 2 {
			cx, cy, _, _ := p.Project(st.Position)
			r.blend(int(cx), int(cy), st.Fill.Color, fillA)
			continue
		}
		r.fillPolygon(pts, st.Fill.Color, fillA)
		for j := range pts {
			a, b := pts[j], pts[(j+1)%len(pts)]
			r.line(int(a.X()), int(a.Y()), int(b.X()), int(b.Y()), st.Outline.Color, st.Outline.Opacity)
		}
	}
}

func extent(pts []mgl64.Vec2) float64 {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX, maxX = math.Min(minX, p.X()), math.Max(maxX, p.X())
		minY, maxY = math.Min(minY, p.Y()), math.Max(maxY, p.Y())
	}
	return math.Max(maxX-minX, maxY-minY)
}

func (r *Raster) ring(p *globe.Projector, ring *globe.Ring) {
	t1, t2 := tangentBasis(ring.Normal)
	seg := max(ring.Segments, 3)
	mid := (ring.Inner + ring.Outer) / 2
	var px, py int
	for k := 0; k <= seg; k++ {
		x, y, _, ok := p.Project(ringPoint(ring, t1, t2, mid, float64(k)/float64(seg)*2*math.Pi))
		if !ok {
			return
		}
		if k > 0 {
			r.line(px, py, int(x), int(y), ring.Color, ring.Opacity)
		}
		px, py = int(x), int(y)
	}
}

func (r *Raster) blend(x, y int, c color.RGBA, a float64) {
	if !(image.Point{x, y}.In(r.img.Bounds())) || a <= 0 {
		return
	}
	a = math.Min(a, 1)
	off := r.img.PixOffset(x, y)
	pix := r.img.Pix[off : off+4 : off+4]
	pix[0] = uint8(float64(pix[0])*(1-a) + float64(c.R)*a)
	pix[1] = uint8(float64(pix[1])*(1-a) + float64(c.G)*a)
	pix[2] = uint8(float64(pix[2])*(1-a) + float64(c.B)*a)
	pix[3] = 255
}

// disc fills a circle; soft discs use the star sprite's falloff.
func (r *Raster) disc(cx, cy, radius float64, c color.RGBA, a float64, soft bool) {
	if radius < 0.75 {
		r.blend(int(cx), int(cy), c, a)
		return
	}
	for y := int(cy - radius); y <= int(cy+radius); y++ {
		for x := int(cx - radius); x <= int(cx+radius); x++ {
			dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
			d := math.Sqrt(dx*dx+dy*dy) / radius
			if d > 1 {
				continue
			}
			if soft {
				ga := gradientAlpha(d)
				if ga < alphaTest {
					continue
				}
				r.blend(x, y, c, a*ga)
				continue
			}
			r.blend(x, y, c, a)
		}
	}
}

func (r *Raster) line(x1, y1, x2, y2 int, c color.RGBA, a float64) {
	dx, dy := math.Abs(float64(x2-x1)), math.Abs(float64(y2-y1))
	sx, sy := -1, -1
	if x1 < x2 {
		sx = 1
	}
	if y1 < y2 {
		sy = 1
	}
	err := dx - dy
	for {
		r.blend(x1, y1, c, a)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func (r *Raster) fillPolygon(pts []mgl64.Vec2, c color.RGBA, a float64) {
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range pts {
		minY, maxY = math.Min(minY, p.Y()), math.Max(maxY, p.Y())
	}
	for y := int(minY); y <= int(maxY); y++ {
		var nodes []int
		fy := float64(y) + 0.5
		for i := range pts {
			j := (i + 1) % len(pts)
			pi, pj := pts[i], pts[j]
			if (pi.Y() < fy && pj.Y() >= fy) || (pj.Y() < fy && pi.Y() >= fy) {
				nodes = append(nodes, int(math.Round(pi.X()+(fy-pi.Y())/(pj.Y()-pi.Y())*(pj.X()-pi.X()))))
			}
		}
		sort.Ints(nodes)
		for i := 0; i+1 < len(nodes); i += 2 {
			for x := nodes[i]; x < nodes[i+1]; x++ {
				r.blend(x, y, c, a)
			}
		}
	}
}
