package camera

import "github.com/go-gl/mathgl/mgl32"

type CameraControllerOption func(*cameraControllerImpl)

// WithPivot sets the point the controller orbits around.
//
// Parameters:
//   - pivot: world-space pivot
//
// Returns:
//   - CameraControllerOption: a function that sets the pivot
func WithPivot(pivot mgl32.Vec3) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.target = pivot
	}
}

// WithRadius sets the initial distance from the pivot.
//
// Parameters:
//   - radius: distance from the pivot
//
// Returns:
//   - CameraControllerOption: a function that sets the radius
func WithRadius(radius float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.radius = radius
	}
}

// WithAzimuth sets the initial horizontal angle in radians, measured around +Y from +Z.
func WithAzimuth(azimuth float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.azimuth = azimuth
	}
}

// WithElevation sets the initial vertical angle in radians above the horizontal plane.
func WithElevation(elevation float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.elevation = elevation
	}
}

// WithRadiusBounds limits how close and how far the eye may get from the pivot.
//
// Parameters:
//   - lo: minimum radius
//   - hi: maximum radius
//
// Returns:
//   - CameraControllerOption: a function that sets the radius bounds
func WithRadiusBounds(lo, hi float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.minRadius = lo
		cc.maxRadius = hi
	}
}

// WithElevationBounds limits the vertical angle in radians.
//
// Parameters:
//   - lo: minimum elevation
//   - hi: maximum elevation
//
// Returns:
//   - CameraControllerOption: a function that sets the elevation bounds
func WithElevationBounds(lo, hi float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.minElevation = lo
		cc.maxElevation = hi
	}
}

func WithOrbitSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.orbitSpeed = speed
	}
}

func WithZoomSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.zoomSpeed = speed
	}
}

func WithPanSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.panSpeed = speed
	}
}
