package loader

import (
	"math"

	"github.com/Carmen-Shannon/oxy-trace/engine/camera"
	"github.com/go-gl/mathgl/mgl32"
)

// CameraDescription is the viewpoint a scene file asks for.
type CameraDescription struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3
	// Fov is the vertical field of view in degrees.
	Fov float32
}

// Options converts the description into camera builder options.
//
// Returns:
//   - []camera.CameraBuilderOption: options setting position, target, up and field of view
func (d *CameraDescription) Options() []camera.CameraBuilderOption {
	return []camera.CameraBuilderOption{
		camera.WithPosition(d.Position),
		camera.WithTarget(d.Target),
		camera.WithUp(d.Up),
		camera.WithFov(mgl32.DegToRad(d.Fov)),
	}
}

// ControllerOptions places an orbit controller so it reproduces the described viewpoint: the target becomes the
// pivot and the eye offset becomes radius, azimuth and elevation.
//
// Returns:
//   - []camera.CameraControllerOption: options for camera.NewCameraController
func (d *CameraDescription) ControllerOptions() []camera.CameraControllerOption {
	offset := d.Position.Sub(d.Target)
	radius := offset.Len()
	if radius == 0 {
		return []camera.CameraControllerOption{camera.WithPivot(d.Target)}
	}
	// inverse of the controller's placement, which swizzles spherical (x, y, z) to (y, z, x)
	r, theta, phi := mgl32.CartesianToSpherical(mgl32.Vec3{offset.Z(), offset.X(), offset.Y()})
	return []camera.CameraControllerOption{
		camera.WithPivot(d.Target),
		camera.WithRadius(r),
		camera.WithElevation(math.Pi/2 - theta),
		camera.WithAzimuth(phi),
	}
}
