package globe

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sudorandom/paygate-globe/pkg/host"
)

const (
	cameraFovY     = 75
	cameraNear     = 0.1
	cameraFar      = 1000
	cameraDistance = 2.5

	// ViewingRadius is how far from the centre the camera parks over a city.
	ViewingRadius = 2.5
	cameraStep    = 0.02
)

// Camera is a perspective camera that always looks at Target.
type Camera struct {
	Position mgl64.Vec3
	Target   mgl64.Vec3
	Up       mgl64.Vec3
	FovY     float64 // degrees
	Aspect   float64
	Near     float64
	Far      float64
}

func NewCamera(aspect float64) *Camera {
	return &Camera{
		Position: mgl64.Vec3{0, 0, cameraDistance},
		Up:       mgl64.Vec3{0, 1, 0},
		FovY:     cameraFovY,
		Aspect:   aspect,
		Near:     cameraNear,
		Far:      cameraFar,
	}
}

func (c *Camera) LookAt(target mgl64.Vec3) { c.Target = target }

func (c *Camera) View() mgl64.Mat4 {
	return mgl64.LookAtV(c.Position, c.Target, c.Up)
}

func (c *Camera) Projection() mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(c.FovY), c.Aspect, c.Near, c.Far)
}

// Projector maps world points to pixel coordinates for one frame.
type Projector struct {
	Eye           mgl64.Vec3
	ViewProj      mgl64.Mat4
	Width, Height float64
	focal         float64
}

func NewProjector(c *Camera, width, height int) *Projector {
	return &Projector{
		Eye:      c.Position,
		ViewProj: c.Projection().Mul4(c.View()),
		Width:    float64(width),
		Height:   float64(height),
		focal:    float64(height) / 2 / math.Tan(mgl64.DegToRad(c.FovY)/2),
	}
}

// Project returns the pixel position of p and its distance from the eye. ok is false
// for points behind the camera or outside the depth range.
func (p *Projector) Project(v mgl64.Vec3) (x, y, dist float64, ok bool) {
	clip := p.ViewProj.Mul4x1(v.Vec4(1))
	w := clip.W()
	if w <= 0 {
		return 0, 0, 0, false
	}
	nx, ny, nz := clip.X()/w, clip.Y()/w, clip.Z()/w
	x = (nx + 1) * 0.5 * p.Width
	y = (1 - ny) * 0.5 * p.Height
	return x, y, w, nz >= -1 && nz <= 1
}

// PixelSize converts a world-space length at distance dist into pixels.
func (p *Projector) PixelSize(size, dist float64) float64 {
	if dist <= 0 {
		return 0
	}
	return size * p.focal / dist
}

// SilhouetteRadius is the on-screen radius of an origin-centred sphere.
func (p *Projector) SilhouetteRadius(radius float64) float64 {
	d := p.Eye.Len()
	if d <= radius {
		return math.Max(p.Width, p.Height)
	}
	return p.focal * math.Tan(math.Asin(radius/d))
}

// Ray returns the world-space ray through pixel (x, y).
func (p *Projector) Ray(x, y float64) (origin, dir mgl64.Vec3) {
	inv := p.ViewProj.Inv()
	nx := x/p.Width*2 - 1
	ny := 1 - y/p.Height*2
	near := inv.Mul4x1(mgl64.Vec4{nx, ny, -1, 1})
	far := inv.Mul4x1(mgl64.Vec4{nx, ny, 1, 1})
	n := near.Vec3().Mul(1 / near.W())
	f := far.Vec3().Mul(1 / far.W())
	return p.Eye, f.Sub(n).Normalize()
}

// CameraState is the phase of a CameraController.
type CameraState int

const (
	CameraIdle CameraState = iota
	CameraTransitioning
)

func (s CameraState) String() string {
	if s == CameraTransitioning {
		return "transitioning"
	}
	return "idle"
}

// FrameScheduler is the slice of the host a CameraController needs.
type FrameScheduler interface {
	OnFrame(fn func(now time.Time)) host.Handle
	Cancel(h host.Handle)
}

// CameraController glides the camera to a target over fixed progress steps and then
// snaps to it. It only holds a frame subscription while transitioning.
type CameraController struct {
	camera *Camera
	frames FrameScheduler

	state    CameraState
	start    mgl64.Vec3
	target   mgl64.Vec3
	progress float64
	steps    int
	sub      host.Handle
}

func NewCameraController(c *Camera, frames FrameScheduler) *CameraController {
	return &CameraController{camera: c, frames: frames}
}

func (cc *CameraController) State() CameraState { return cc.state }

// Animating is the guard consulted by the auto-advance timer.
func (cc *CameraController) Animating() bool { return cc.state == CameraTransitioning }

func (cc *CameraController) Progress() float64 { return cc.progress }

// Steps is the number of steps taken by the current or last transition.
func (cc *CameraController) Steps() int { return cc.steps }

func (cc *CameraController) Target() mgl64.Vec3 { return cc.target }

// Begin starts a transition from the current camera position to target. Calling it
// while a transition is running retargets that transition rather than starting a
// second one. The first step runs immediately.
func (cc *CameraController) Begin(target mgl64.Vec3) {
	cc.start = cc.camera.Position
	cc.target = target
	cc.progress = 0
	cc.steps = 0
	if cc.state != CameraTransitioning {
		cc.state = CameraTransitioning
		if cc.frames != nil {
			cc.sub = cc.frames.OnFrame(func(time.Time) { cc.Step() })
		}
	}
	cc.Step()
}

// Step advances the transition by one increment. It returns true once the camera has
// arrived, and is a no-op while idle.
func (cc *CameraController) Step() bool {
	if cc.state != CameraTransitioning {
		return true
	}
	cc.steps++
	cc.progress += cameraStep
	if cc.progress >= 1 {
		cc.camera.Position = cc.target
		cc.camera.LookAt(mgl64.Vec3{})
		cc.finish()
		return true
	}
	cc.camera.Position = lerp(cc.start, cc.target, cc.progress)
	cc.camera.LookAt(mgl64.Vec3{})
	return false
}

// Stop abandons any transition in flight and drops the frame subscription.
func (cc *CameraController) Stop() {
	if cc.state == CameraTransitioning {
		cc.finish()
	}
}

func (cc *CameraController) finish() {
	cc.state = CameraIdle
	if cc.frames != nil && cc.sub != 0 {
		cc.frames.Cancel(cc.sub)
	}
	cc.sub = 0
}

func lerp(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}
