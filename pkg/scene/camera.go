package scene

import (
	"math"

	"github.com/df07/go-irradiance-tracer/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
)

// CameraConfig describes a look-at camera, independent of image size
type CameraConfig struct {
	Position core.Vec3
	Target   core.Vec3
	Up       core.Vec3
	VFov     float64 // Vertical field of view in degrees
	Near     float64
	Far      float64
}

// Camera generates primary rays from an orthonormal basis
type Camera struct {
	Position core.Vec3
	Right    core.Vec3
	Forward  core.Vec3
	Up       core.Vec3
	VFov     float64 // Vertical field of view in degrees
	Near     float64
	Far      float64
	Aspect   float64 // Width over height

	tanHalfFov float64
}

// NewCamera builds a camera from a look-at config and the image aspect
// ratio. The basis is read from the rows of the view matrix.
func NewCamera(config CameraConfig, aspect float64) *Camera {
	view := mgl64.LookAtV(config.Position.ToMGL(), config.Target.ToMGL(), config.Up.ToMGL())

	return &Camera{
		Position:   config.Position,
		Right:      core.Vec3FromMGL(view.Row(0).Vec3()),
		Up:         core.Vec3FromMGL(view.Row(1).Vec3()),
		Forward:    core.Vec3FromMGL(view.Row(2).Vec3()).Negate(),
		VFov:       config.VFov,
		Near:       config.Near,
		Far:        config.Far,
		Aspect:     aspect,
		tanHalfFov: math.Tan(mgl64.DegToRad(config.VFov) / 2),
	}
}

// NewCameraLookAt is a shorthand for NewCamera without near/far limits
func NewCameraLookAt(position, target, up core.Vec3, vfov, aspect float64) *Camera {
	return NewCamera(CameraConfig{Position: position, Target: target, Up: up, VFov: vfov}, aspect)
}

// Ray returns the primary ray through normalized image coordinates
// (s, t); s grows to the right and t grows downward, both in [0, 1]
func (c *Camera) Ray(s, t float64) core.Ray {
	x := (2*s - 1) * c.tanHalfFov * c.Aspect
	y := (1 - 2*t) * c.tanHalfFov

	direction := c.Forward.Add(c.Right.Multiply(x)).Add(c.Up.Multiply(y)).Normalize()
	return core.NewRay(c.Position, direction)
}

// InRange reports whether a primary hit distance lies between the near
// and far planes
func (c *Camera) InRange(t float64) bool {
	if t < c.Near {
		return false
	}
	return c.Far <= 0 || t <= c.Far
}
