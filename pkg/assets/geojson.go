package assets

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sort"

	geojson "github.com/paulmach/go.geojson"
)

// MapStyle colours a rasterised world map.
type MapStyle struct {
	Ocean   color.RGBA
	Land    color.RGBA
	Outline color.RGBA
}

var DefaultMapStyle = MapStyle{
	Ocean:   color.RGBA{12, 38, 74, 255},
	Land:    color.RGBA{46, 92, 58, 255},
	Outline: color.RGBA{120, 160, 120, 255},
}

// RasterizeGeoJSON paints the polygons of a FeatureCollection onto an equirectangular
// image: x runs from -180 to 180 degrees of longitude, y from 90 down to -90 latitude.
func RasterizeGeoJSON(data []byte, width, height int, style MapStyle) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid texture size %dx%d", width, height)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parsing geojson: %w", err)
	}

	r := &rasterizer{width: width, height: height}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{style.Ocean}, image.Point{}, draw.Src)
	polygons := 0
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		if f.Geometry.IsPolygon() {
			r.fillPolygon(img, f.Geometry.Polygon, style.Land)
			for _, ring := range f.Geometry.Polygon {
				r.drawRing(img, ring, style.Outline)
			}
			polygons++
		} else if f.Geometry.IsMultiPolygon() {
			for _, poly := range f.Geometry.MultiPolygon {
				r.fillPolygon(img, poly, style.Land)
				for _, ring := range poly {
					r.drawRing(img, ring, style.Outline)
				}
				polygons++
			}
		}
	}
	if polygons == 0 {
		return nil, fmt.Errorf("geojson contains no polygons")
	}
	return img, nil
}

type rasterizer struct {
	width, height int
}

// project maps a GeoJSON [lng, lat] position to pixel space.
func (r *rasterizer) project(lat, lng float64) (x, y float64) {
	x = (lng + 180) / 360 * float64(r.width)
	y = (90 - lat) / 180 * float64(r.height)
	return x, y
}

func (r *rasterizer) fillPolygon(img *image.RGBA, rings [][][]float64, c color.RGBA) {
	if len(rings) == 0 {
		return
	}
	type point struct{ x, y float64 }
	projectedRings := make([][]point, len(rings))
	minY, maxY := float64(r.height), 0.0
	for i, ring := range rings {
		projectedRings[i] = make([]point, 0, len(ring))
		for _, p := range ring {
			if len(p) < 2 {
				continue
			}
			x, y := r.project(p[1], p[0])
			projectedRings[i] = append(projectedRings[i], point{x, y})
			minY = math.Min(minY, y)
			maxY = math.Max(maxY, y)
		}
	}
	for y := int(minY); y <= int(maxY); y++ {
		if y < 0 || y >= r.height {
			continue
		}
		var nodes []int
		// Sample the centre of the pixel row.
		fy := float64(y) + 0.5
		for _, ring := range projectedRings {
			for i := 0; i < len(ring); i++ {
				j := (i + 1) % len(ring)
				if (ring[i].y < fy && ring[j].y >= fy) || (ring[j].y < fy && ring[i].y >= fy) {
					nodeX := ring[i].x + (fy-ring[i].y)/(ring[j].y-ring[i].y)*(ring[j].x-ring[i].x)
					nodes = append(nodes, int(math.Round(nodeX)))
				}
			}
		}
		sort.Ints(nodes)
		for i := 0; i < len(nodes)-1; i += 2 {
			xs, xe := nodes[i], nodes[i+1]
			if xs < 0 {
				xs = 0
			}
			if xe > r.width {
				xe = r.width
			}
			for x := xs; x < xe; x++ {
				off := y*img.Stride + x*4
				img.Pix[off], img.Pix[off+1], img.Pix[off+2], img.Pix[off+3] = c.R, c.G, c.B, 255
			}
		}
	}
}

func (r *rasterizer) drawRing(img *image.RGBA, coords [][]float64, c color.RGBA) {
	for i := 0; i < len(coords)-1; i++ {
		if len(coords[i]) < 2 || len(coords[i+1]) < 2 {
			continue
		}
		// Segments that jump across the antimeridian would streak across the map.
		if math.Abs(coords[i+1][0]-coords[i][0]) > 180 {
			continue
		}
		x1, y1 := r.project(coords[i][1], coords[i][0])
		x2, y2 := r.project(coords[i+1][1], coords[i+1][0])
		DrawLine(img, int(x1), int(y1), int(x2), int(y2), c)
	}
}

// DrawLine draws a one-pixel Bresenham line, clipped to img.
func DrawLine(img *image.RGBA, x1, y1, x2, y2 int, c color.RGBA) {
	b := img.Bounds()
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
		if x1 >= b.Min.X && x1 < b.Max.X && y1 >= b.Min.Y && y1 < b.Max.Y {
			off := img.PixOffset(x1, y1)
			img.Pix[off], img.Pix[off+1], img.Pix[off+2], img.Pix[off+3] = c.R, c.G, c.B, 255
		}
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
