package render

import (
	"bytes"
	"image"
	"image/color"
	"log"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/sudorandom/paygate-globe/pkg/globe"
	"golang.org/x/image/font/gofont/goregular"
)

const maxBatchVertices = 65532

// EbitenSurface draws frames with ebiten. Present stores the frame during Update and
// Draw paints it onto the screen.
type EbitenSurface struct {
	width, height int
	frame         *globe.Frame

	fontSource *text.GoTextFaceSource
	white      *ebiten.Image
	whiteSub   *ebiten.Image
	sprite     *ebiten.Image
	texture    *ebiten.Image
	textureSrc image.Image

	earthMesh *SphereMesh
	atmoMesh  *SphereMesh

	vertices []ebiten.Vertex
	indices  []uint16
	screenXY []mgl64.Vec2
	visible  []bool

	released bool
}

func NewEbitenSurface() *EbitenSurface {
	s, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		log.Printf("[RENDER] Font unavailable, overlays disabled: %v", err)
	}
	return &EbitenSurface{fontSource: s}
}

// Resize records the viewport and reopens a released surface. GPU images are recreated
// lazily on the next Present and Draw.
func (s *EbitenSurface) Resize(width, height int) {
	s.width, s.height = width, height
	s.released = false
}

func (s *EbitenSurface) Present(f *globe.Frame) {
	if s.released {
		return
	}
	s.frame = f
	if f.Earth != nil && f.Earth.Texture != s.textureSrc {
		if s.texture != nil {
			s.texture.Deallocate()
		}
		s.texture = ebiten.NewImageFromImage(f.Earth.Texture)
		s.textureSrc = f.Earth.Texture
	}
	if f.Earth != nil && s.earthMesh == nil {
		s.earthMesh = NewSphereMesh(f.Earth.Radius, f.Earth.WidthSegments, f.Earth.HeightSegments)
	}
	if f.Atmosphere != nil && s.atmoMesh == nil {
		s.atmoMesh = NewSphereMesh(f.Atmosphere.Radius, f.Atmosphere.WidthSegments, f.Atmosphere.HeightSegments)
	}
}

// Release frees every GPU image. The surface draws nothing until it is resized again.
func (s *EbitenSurface) Release() {
	for _, img := range []*ebiten.Image{s.texture, s.sprite, s.white} {
		if img != nil && img != s.whiteSub {
			img.Deallocate()
		}
	}
	s.texture, s.textureSrc, s.sprite, s.white, s.whiteSub = nil, nil, nil, nil, nil
	s.earthMesh, s.atmoMesh = nil, nil
	s.frame = nil
	s.released = true
}

func (s *EbitenSurface) ensureImages() {
	if s.white == nil {
		s.white = ebiten.NewImage(3, 3)
		s.white.Fill(color.White)
		s.whiteSub = s.white.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
	}
	if s.sprite == nil {
		img, err := NewStarSprite(starSpriteSize)
		if err != nil {
			log.Printf("[RENDER] Star sprite unavailable, using plain points: %v", err)
			s.sprite = s.whiteSub
			return
		}
		s.sprite = ebiten.NewImageFromImage(img)
	}
}

// Draw paints the most recently presented frame.
func (s *EbitenSurface) Draw(screen *ebiten.Image) {
	screen.Fill(ClearColor)
	f := s.frame
	if f == nil || s.released {
		return
	}
	s.ensureImages()

	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	p := globe.NewProjector(&f.Camera, w, h)

	s.drawStarfield(screen, p, f, h)
	s.drawStars(screen, p, f, true)
	if f.Atmosphere != nil && s.atmoMesh != nil {
		s.drawSphere(screen, p, f, f.Atmosphere, s.atmoMesh, s.whiteSub)
	}
	if f.Earth != nil && s.earthMesh != nil && s.texture != nil {
		s.drawSphere(screen, p, f, f.Earth, s.earthMesh, s.texture)
	}
	s.drawMarkers(screen, p, f)
	s.drawArc(screen, p, f)
	s.drawStars(screen, p, f, false)
	s.drawOverlay(screen, f, w, h)
}

func (s *EbitenSurface) flush(screen *ebiten.Image, src *ebiten.Image, filter ebiten.Filter) {
	if len(s.indices) == 0 {
		s.vertices = s.vertices[:0]
		return
	}
	op := &ebiten.DrawTrianglesOptions{}
	op.Filter = filter
	screen.DrawTriangles(s.vertices, s.indices, src, op)
	s.vertices = s.vertices[:0]
	s.indices = s.indices[:0]
}

func (s *EbitenSurface) drawStarfield(screen *ebiten.Image, p *globe.Projector, f *globe.Frame, height int) {
	sf := f.Starfield
	if sf == nil {
		return
	}
	b := s.sprite.Bounds()
	sx0, sy0, sx1, sy1 := float32(b.Min.X), float32(b.Min.Y), float32(b.Max.X), float32(b.Max.Y)
	cr, cg, cb := float32(sf.Color.R)/255, float32(sf.Color.G)/255, float32(sf.Color.B)/255

	for _, pt := range sf.Points {
		x, y, dist, ok := p.Project(pt)
		if !ok {
			continue
		}
		half := pointSize(sf.Size, dist, height) / 2
		if x+half < 0 || y+half < 0 || x-half > p.Width || y-half > p.Height {
			continue
		}
		if len(s.vertices)+4 > maxBatchVertices {
			s.flush(screen, s.sprite, ebiten.FilterLinear)
		}
		base := uint16(len(s.vertices))
		x0, y0, x1, y1 := float32(x-half), float32(y-half), float32(x+half), float32(y+half)
		s.vertices = append(s.vertices,
			ebiten.Vertex{DstX: x0, DstY: y0, SrcX: sx0, SrcY: sy0, ColorR: cr, ColorG: cg, ColorB: cb, ColorA: 1},
			ebiten.Vertex{DstX: x1, DstY: y0, SrcX: sx1, SrcY: sy0, ColorR: cr, ColorG: cg, ColorB: cb, ColorA: 1},
			ebiten.Vertex{DstX: x0, DstY: y1, SrcX: sx0, SrcY: sy1, ColorR: cr, ColorG: cg, ColorB: cb, ColorA: 1},
			ebiten.Vertex{DstX: x1, DstY: y1, SrcX: sx1, SrcY: sy1, ColorR: cr, ColorG: cg, ColorB: cb, ColorA: 1},
		)
		s.indices = append(s.indices, base, base+1, base+2, base+1, base+3, base+2)
	}
	s.flush(screen, s.sprite, ebiten.FilterLinear)
}

// drawSphere draws the triangles of mesh that face the camera, or those facing away
// for a back-side material.
func (s *EbitenSurface) drawSphere(screen *ebiten.Image, p *globe.Projector, f *globe.Frame, sphere *globe.Sphere, mesh *SphereMesh, src *ebiten.Image) {
	n := len(mesh.Positions)
	if cap(s.screenXY) < n {
		s.screenXY = make([]mgl64.Vec2, n)
		s.visible = make([]bool, n)
	}
	s.screenXY, s.visible = s.screenXY[:n], s.visible[:n]

	b := src.Bounds()
	tw, th := float64(b.Dx()), float64(b.Dy())
	ox, oy := float64(b.Min.X), float64(b.Min.Y)
	textured := src != s.whiteSub

	s.vertices = s.vertices[:0]
	s.indices = s.indices[:0]
	for i, local := range mesh.Positions {
		pos := globe.RotateY(local, sphere.RotationY)
		normal := globe.RotateY(mesh.Normals[i], sphere.RotationY)
		x, y, _, ok := p.Project(pos)
		s.screenXY[i] = mgl64.Vec2{x, y}
		s.visible[i] = ok
		r, g, bl := litColor(f.Lights, sphere, normal, pos, p.Eye)
		v := ebiten.Vertex{
			DstX:   float32(x),
			DstY:   float32(y),
			SrcX:   float32(ox + 0.5),
			SrcY:   float32(oy + 0.5),
			ColorR: float32(r),
			ColorG: float32(g),
			ColorB: float32(bl),
			ColorA: float32(sphere.Opacity),
		}
		if textured {
			uv := mesh.UVs[i]
			v.SrcX = float32(ox + uv.X()*tw)
			v.SrcY = float32(oy + uv.Y()*th)
		}
		s.vertices = append(s.vertices, v)
	}

	for t := 0; t+2 < len(mesh.Indices); t += 3 {
		ia, ib, ic := mesh.Indices[t], mesh.Indices[t+1], mesh.Indices[t+2]
		if !s.visible[ia] || !s.visible[ib] || !s.visible[ic] {
			continue
		}
		centroid := mesh.Positions[ia].Add(mesh.Positions[ib]).Add(mesh.Positions[ic]).Mul(1.0 / 3)
		centroid = globe.RotateY(centroid, sphere.RotationY)
		facing := centroid.Dot(p.Eye.Sub(centroid)) > 0
		if facing == sphere.BackSide {
			continue
		}
		s.indices = append(s.indices, ia, ib, ic)
	}
	s.flush(screen, src, ebiten.FilterLinear)
}

func (s *EbitenSurface) drawMarkers(screen *ebiten.Image, p *globe.Projector, f *globe.Frame) {
	for _, m := range f.Markers {
		if globe.Occluded(p.Eye, m.Marker.Position, earthRadius) {
			continue
		}
		s.drawRing(screen, p, m.Ring)
		x, y, dist, ok := p.Project(m.Marker.Position)
		if !ok {
			continue
		}
		r := math.Max(1.5, p.PixelSize(m.Marker.Radius, dist))
		vector.DrawFilledCircle(screen, float32(x), float32(y), float32(r), fade(m.Marker.Color, m.Marker.Opacity), true)
	}
}

func (s *EbitenSurface) drawRing(screen *ebiten.Image, p *globe.Projector, r *globe.Ring) {
	t1, t2 := tangentBasis(r.Normal)
	seg := r.Segments
	if seg < 3 {
		seg = 3
	}
	cr, cg, cb := float32(r.Color.R)/255, float32(r.Color.G)/255, float32(r.Color.B)/255
	ca := float32(mgl64.Clamp(r.Opacity, 0, 1))
	sx, sy := float32(1), float32(1)

	s.vertices = s.vertices[:0]
	s.indices = s.indices[:0]
	for k := 0; k <= seg; k++ {
		angle := float64(k) / float64(seg) * 2 * math.Pi
		for _, radius := range []float64{r.Inner, r.Outer} {
			x, y, _, ok := p.Project(ringPoint(r, t1, t2, radius, angle))
			if !ok {
				s.vertices = s.vertices[:0]
				return
			}
			s.vertices = append(s.vertices, ebiten.Vertex{
				DstX: float32(x), DstY: float32(y), SrcX: sx, SrcY: sy,
				ColorR: cr, ColorG: cg, ColorB: cb, ColorA: ca,
			})
		}
		if k > 0 {
			i := uint16(2 * k)
			s.indices = append(s.indices, i-2, i-1, i, i-1, i+1, i)
		}
	}
	s.flush(screen, s.whiteSub, ebiten.FilterNearest)
}

func (s *EbitenSurface) drawArc(screen *ebiten.Image, p *globe.Projector, f *globe.Frame) {
	arc := f.Arc
	if arc == nil || arc.Released() {
		return
	}
	c := fade(arc.Color, arc.Opacity)
	for i := 0; i+1 < len(arc.Points); i++ {
		a, b := arc.Points[i], arc.Points[i+1]
		if globe.Occluded(p.Eye, a, earthRadius) || globe.Occluded(p.Eye, b, earthRadius) {
			continue
		}
		x1, y1, _, ok1 := p.Project(a)
		x2, y2, _, ok2 := p.Project(b)
		if !ok1 || !ok2 {
			continue
		}
		vector.StrokeLine(screen, float32(x1), float32(y1), float32(x2), float32(y2), 1.5, c, true)
	}
}

// drawStars draws the twinkling stars hidden behind the globe (behind=true) or the
// ones in front of it.
func (s *EbitenSurface) drawStars(screen *ebiten.Image, p *globe.Projector, f *globe.Frame, behind bool) {
	if len(f.Stars) == 0 {
		return
	}
	atmo := earthRadius
	if f.Atmosphere != nil {
		atmo = f.Atmosphere.Radius
	}

	s.vertices = s.vertices[:0]
	s.indices = s.indices[:0]
	type outline struct {
		pts []mgl64.Vec2
		c   color.RGBA
	}
	var outlines []outline
	for _, st := range f.Stars {
		if globe.Occluded(p.Eye, st.Position, atmo) != behind {
			continue
		}
		cx, cy, _, ok := p.Project(st.Position)
		if !ok {
			continue
		}
		shape := st.Fill.Outline
		pts := make([]mgl64.Vec2, 0, len(shape))
		for _, local := range shape {
			x, y, _, ok := p.Project(st.World(local))
			if !ok {
				pts = nil
				break
			}
			pts = append(pts, mgl64.Vec2{x, y})
		}
		if pts == nil {
			continue
		}

		fillA := float32(1)
		if st.Fill.Transparent {
			fillA = float32(st.Fill.Opacity)
		}
		fr, fg, fb := float32(st.Fill.Color.R)/255, float32(st.Fill.Color.G)/255, float32(st.Fill.Color.B)/255
		base := uint16(len(s.vertices))
		s.vertices = append(s.vertices, ebiten.Vertex{
			DstX: float32(cx), DstY: float32(cy), SrcX: 1, SrcY: 1,
			ColorR: fr, ColorG: fg, ColorB: fb, ColorA: fillA,
		})
		for j, pt := range pts {
			s.vertices = append(s.vertices, ebiten.Vertex{
				DstX: float32(pt.X()), DstY: float32(pt.Y()), SrcX: 1, SrcY: 1,
				ColorR: fr, ColorG: fg, ColorB: fb, ColorA: fillA,
			})
			next := uint16((j+1)%len(pts)) + 1
			s.indices = append(s.indices, base, base+uint16(j)+1, base+next)
		}
		outlines = append(outlines, outline{pts, fade(st.Outline.Color, st.Outline.Opacity)})
	}
	s.flush(screen, s.whiteSub, ebiten.FilterNearest)

	for _, o := range outlines {
		for j := range o.pts {
			a, b := o.pts[j], o.pts[(j+1)%len(o.pts)]
			vector.StrokeLine(screen, float32(a.X()), float32(a.Y()), float32(b.X()), float32(b.Y()), 1, o.c, true)
		}
	}
}

func (s *EbitenSurface) drawOverlay(screen *ebiten.Image, f *globe.Frame, w, h int) {
	if s.fontSource == nil {
		return
	}
	size := math.Max(14, 28*float64(h)/1080)
	face := &text.GoTextFace{Source: s.fontSource, Size: size}
	pad := size * 0.6
	margin := size

	segments := Headline(f.Location.Name)
	width := 0.0
	for _, seg := range segments {
		width += text.Advance(seg.Text, face)
	}
	vector.DrawFilledRect(screen, float32(margin), float32(margin), float32(width+2*pad), float32(size*1.4+2*pad), panelColor, false)
	x, y := margin+pad, margin+pad
	for _, seg := range segments {
		op := &text.DrawOptions{}
		op.GeoM.Translate(x, y)
		op.ColorScale.ScaleWithColor(seg.Color)
		text.Draw(screen, seg.Text, face, op)
		x += text.Advance(seg.Text, face)
	}

	if f.Loading {
		vector.DrawFilledRect(screen, 0, 0, float32(w), float32(h), scrimColor, false)
		lface := &text.GoTextFace{Source: s.fontSource, Size: size * 0.8}
		lw := text.Advance(LoadingText, lface)
		op := &text.DrawOptions{}
		op.GeoM.Translate((float64(w)-lw)/2, (float64(h)-size*0.8)/2)
		text.Draw(screen, LoadingText, lface, op)
	}
}
