package globe

import (
	"image/color"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestConnectionArcShape(t *testing.T) {
	start := LatLonToVector3(40.7128, -74.006, surfaceRadius)
	end := LatLonToVector3(51.5074, -0.1278, surfaceRadius)
	c := color.RGBA{255, 68, 68, 255}

	arc := NewConnectionArc(start, end, c)

	if len(arc.Points) != arcSegments+1 {
		t.Fatalf("expected %d points, got %d", arcSegments+1, len(arc.Points))
	}
	if arc.Points[0] != start {
		t.Errorf("arc does not start at start: %v != %v", arc.Points[0], start)
	}
	if !arc.Points[arcSegments].ApproxEqualThreshold(end, 1e-9) {
		t.Errorf("arc does not end at end: %v != %v", arc.Points[arcSegments], end)
	}
	if arc.Color != c || arc.Opacity != arcOpacity {
		t.Errorf("unexpected material: %v %v", arc.Color, arc.Opacity)
	}

	// The control midpoint is lifted 1.5x, so the curve bulges well above the surface.
	mid := arc.Points[arcSegments/2]
	if mid.Len() < 1.3 {
		t.Errorf("arc midpoint too close to the globe: |%v| = %f", mid, mid.Len())
	}
	for i, p := range arc.Points {
		if p.Len() < surfaceRadius-1e-9 {
			t.Errorf("point %d dips below the surface: %f", i, p.Len())
		}
	}
}

func TestConnectionArcPassesThroughLiftedMidpoint(t *testing.T) {
	start := mgl64.Vec3{1, 0, 0}
	end := mgl64.Vec3{0, 1, 0}
	arc := NewConnectionArc(start, end, color.RGBA{})

	want := mgl64.Vec3{0.75, 0.75, 0}
	if got := arc.Points[arcSegments/2]; !got.ApproxEqualThreshold(want, 1e-12) {
		t.Errorf("midpoint = %v; want %v", got, want)
	}
}

func TestConnectionArcRelease(t *testing.T) {
	arc := NewConnectionArc(mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 0, 1}, color.RGBA{})
	arc.Release()
	if !arc.Released() || arc.Points != nil {
		t.Errorf("released arc still holds geometry")
	}
}
