// Package camera provides an orbit camera for model viewing.
package camera

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Orbit limits.
const (
	MinZoom  = 0.1
	MaxZoom  = 32
	MaxPitch = 0.49 * math32.Pi
	MinPitch = -MaxPitch

	// ZoomBase is raised to the zoom level to get the orbit distance.
	ZoomBase = 1.2

	DefaultZoom         = 5
	RotationSensitivity = 0.03
	// PanSensitivity is scaled by the zoom level.
	PanSensitivity = 0.005
)

// Orbit circles a target point. Distance grows exponentially with the zoom
// level so zooming feels uniform at every scale.
type Orbit struct {
	Target mgl32.Vec3

	// Yaw, Pitch and Roll in radians.
	Yaw, Pitch, Roll float32

	zoom float32

	FOV    float32 // vertical, radians
	Aspect float32
	Near   float32
	Far    float32
}

// NewOrbit creates a camera looking at the origin from DefaultZoom.
func NewOrbit(fovDegrees, aspect, near, far float32) *Orbit {
	return &Orbit{
		zoom:   DefaultZoom,
		FOV:    mgl32.DegToRad(fovDegrees),
		Aspect: aspect,
		Near:   near,
		Far:    far,
	}
}

// Zoom returns the zoom level.
func (c *Orbit) Zoom() float32 { return c.zoom }

// Distance returns the distance from the camera to the target.
func (c *Orbit) Distance() float32 {
	return math32.Pow(ZoomBase, c.zoom)
}

// AddZoom moves the camera closer for positive increments, clamped to
// [MinZoom, MaxZoom].
func (c *Orbit) AddZoom(increment float32) {
	c.zoom = clamp(c.zoom-increment, MinZoom, MaxZoom)
}

// SetAspect sets the projection's width over height.
func (c *Orbit) SetAspect(aspect float32) {
	c.Aspect = aspect
}

// Rotate turns the camera by a cursor offset in pixels. Pitch is clamped
// short of the poles.
func (c *Orbit) Rotate(dx, dy float64) {
	c.Pitch = clamp(c.Pitch-float32(dy)*RotationSensitivity, MinPitch, MaxPitch)
	c.Yaw -= float32(dx) * RotationSensitivity
}

// Translate pans the target by a cursor offset in pixels, in the ground
// plane rotated by the camera's yaw.
func (c *Orbit) Translate(dx, dy float64) {
	s := PanSensitivity * c.zoom
	offset := mgl32.Vec3{-float32(dx) * s, 0, -float32(dy) * s}
	c.Target = c.Target.Add(mgl32.Rotate3DY(c.Yaw).Mul3x1(offset))
}

// Position returns the camera's world position.
func (c *Orbit) Position() mgl32.Vec3 {
	rot := mgl32.Rotate3DY(c.Yaw).Mul3(mgl32.Rotate3DX(c.Pitch)).Mul3(mgl32.Rotate3DZ(c.Roll))
	return rot.Mul3x1(mgl32.Vec3{0, 0, c.Distance()}).Add(c.Target)
}

// View returns the world-to-camera matrix.
func (c *Orbit) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), c.Target, mgl32.Vec3{0, 1, 0})
}

// Projection returns the perspective matrix.
func (c *Orbit) Projection() mgl32.Mat4 {
	return mgl32.Perspective(c.FOV, c.Aspect, c.Near, c.Far)
}

// Frame centers the target on a bounding box and zooms out so a sphere
// around it fits the view.
func (c *Orbit) Frame(lower, upper mgl32.Vec3) {
	c.Target = lower.Add(upper).Mul(0.5)
	radius := upper.Sub(lower).Len() / 2
	if radius <= 0 {
		return
	}
	dist := radius / math32.Sin(c.FOV/2)
	c.zoom = clamp(math32.Log(dist)/math32.Log(ZoomBase), MinZoom, MaxZoom)
}

func clamp(v, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(hi, v))
}
