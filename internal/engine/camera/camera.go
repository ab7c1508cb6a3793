// Package camera provides the free-flying viewer camera.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Up is the world up axis. Terrain heights grow along +Z.
var Up = mgl32.Vec3{0, 0, 1}

// FlyCamera moves freely above the terrain, looking along yaw and pitch.
type FlyCamera struct {
	Eye   mgl32.Vec3
	Yaw   float32 // Radians around +Z, 0 looks along +X
	Pitch float32 // Radians above the horizon

	MinPitch float32
	MaxPitch float32

	Speed            float32 // World units per second
	DragSensitivity  float32
	SpeedSensitivity float32
}

// NewFlyCamera creates a camera at eye looking along yaw and pitch.
func NewFlyCamera(eye mgl32.Vec3, yaw, pitch float32) *FlyCamera {
	c := &FlyCamera{
		Eye:              eye,
		Yaw:              yaw,
		MinPitch:         -1.5,
		MaxPitch:         1.5,
		Speed:            40,
		DragSensitivity:  0.005,
		SpeedSensitivity: 0.1,
	}
	c.SetPitch(pitch)
	return c
}

// Position returns the camera position in world space.
func (c *FlyCamera) Position() mgl32.Vec3 {
	return c.Eye
}

// Forward returns the unit view direction.
func (c *FlyCamera) Forward() mgl32.Vec3 {
	cp := float32(math.Cos(float64(c.Pitch)))
	return mgl32.Vec3{
		cp * float32(math.Cos(float64(c.Yaw))),
		cp * float32(math.Sin(float64(c.Yaw))),
		float32(math.Sin(float64(c.Pitch))),
	}
}

// Right returns the unit direction to the camera's right on the ground plane.
func (c *FlyCamera) Right() mgl32.Vec3 {
	return mgl32.Vec3{
		float32(math.Sin(float64(c.Yaw))),
		-float32(math.Cos(float64(c.Yaw))),
		0,
	}
}

// ViewMatrix returns the view matrix for this camera.
func (c *FlyCamera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Eye, c.Eye.Add(c.Forward()), Up)
}

// SetPitch sets the pitch, clamped to the allowed range.
func (c *FlyCamera) SetPitch(pitch float32) {
	c.Pitch = mgl32.Clamp(pitch, c.MinPitch, c.MaxPitch)
}

// HandleDrag turns the camera by a mouse drag delta in pixels.
func (c *FlyCamera) HandleDrag(deltaX, deltaY float32) {
	c.Yaw -= deltaX * c.DragSensitivity
	c.SetPitch(c.Pitch - deltaY*c.DragSensitivity)
}

// HandleZoom scales the movement speed by a scroll wheel delta.
func (c *FlyCamera) HandleZoom(delta float32) {
	c.Speed += delta * c.Speed * c.SpeedSensitivity
	c.Speed = mgl32.Clamp(c.Speed, 1, 1000)
}

// HandleMovement moves the camera for dt seconds. forward follows the view
// direction, right strafes on the ground plane, up climbs along +Z.
func (c *FlyCamera) HandleMovement(forward, right, up, dt float32) {
	step := c.Speed * dt
	move := c.Forward().Mul(forward).Add(c.Right().Mul(right)).Add(Up.Mul(up))
	c.Eye = c.Eye.Add(move.Mul(step))
}

// Projection is a perspective projection.
type Projection struct {
	Width, Height int
	FovY          float32 // Degrees
	Near, Far     float32
}

// NewProjection creates a projection for a width x height viewport.
func NewProjection(width, height int, fovY float32) Projection {
	return Projection{Width: width, Height: height, FovY: fovY, Near: 0.1, Far: 2000}
}

// Resize updates the viewport size.
func (p *Projection) Resize(width, height int) {
	p.Width = width
	p.Height = height
}

// Aspect returns the viewport aspect ratio.
func (p Projection) Aspect() float32 {
	if p.Height == 0 {
		return 1
	}
	return float32(p.Width) / float32(p.Height)
}

// Matrix returns the projection matrix.
func (p Projection) Matrix() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(p.FovY), p.Aspect(), p.Near, p.Far)
}

// ViewProjection returns projection * view for c.
func (p Projection) ViewProjection(c *FlyCamera) mgl32.Mat4 {
	return p.Matrix().Mul4(c.ViewMatrix())
}

// Controls is one frame of user input relevant to the camera.
type Controls struct {
	Forward, Right, Up float32 // Movement axes, -1..1
	DragX, DragY       float32 // Mouse drag in pixels while the look button is held
	Wheel              float32
	CursorX, CursorY   int // Cursor position in window pixels
}

// Apply moves and turns the camera for one frame of input lasting dt seconds.
func (c *FlyCamera) Apply(ctrl Controls, dt float32) {
	if ctrl.DragX != 0 || ctrl.DragY != 0 {
		c.HandleDrag(ctrl.DragX, ctrl.DragY)
	}
	if ctrl.Wheel != 0 {
		c.HandleZoom(ctrl.Wheel)
	}
	c.HandleMovement(ctrl.Forward, ctrl.Right, ctrl.Up, dt)
}
