package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// SphereMesh is a UV sphere laid out row by row from the north pole, with texture
// coordinates that match globe.TextureCoords: u grows eastward from the antimeridian and
// v grows southward from the north pole.
type SphereMesh struct {
	Positions []mgl64.Vec3
	Normals   []mgl64.Vec3
	UVs       []mgl64.Vec2
	Indices   []uint16
}

func NewSphereMesh(radius float64, widthSegments, heightSegments int) *SphereMesh {
	if widthSegments < 3 {
		widthSegments = 3
	}
	if heightSegments < 2 {
		heightSegments = 2
	}
	m := &SphereMesh{}
	grid := make([][]uint16, heightSegments+1)
	for iy := 0; iy <= heightSegments; iy++ {
		v := float64(iy) / float64(heightSegments)
		sinV, cosV := math.Sincos(v * math.Pi)
		row := make([]uint16, widthSegments+1)
		for ix := 0; ix <= widthSegments; ix++ {
			u := float64(ix) / float64(widthSegments)
			sinU, cosU := math.Sincos(u * 2 * math.Pi)
			n := mgl64.Vec3{-cosU * sinV, cosV, sinU * sinV}
			row[ix] = uint16(len(m.Positions))
			m.Positions = append(m.Positions, n.Mul(radius))
			m.Normals = append(m.Normals, n)
			m.UVs = append(m.UVs, mgl64.Vec2{u, v})
		}
		grid[iy] = row
	}

	for iy := 0; iy < heightSegments; iy++ {
		for ix := 0; ix < widthSegments; ix++ {
			a := grid[iy][ix+1]
			b := grid[iy][ix]
			c := grid[iy+1][ix]
			d := grid[iy+1][ix+1]
			if iy != 0 {
				m.Indices = append(m.Indices, a, b, d)
			}
			if iy != heightSegments-1 {
				m.Indices = append(m.Indices, b, c, d)
			}
		}
	}
	return m
}

// Triangles returns the number of triangles in the mesh.
func (m *SphereMesh) Triangles() int { return len(m.Indices) / 3 }
