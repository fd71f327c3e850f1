package camera

import "github.com/go-gl/mathgl/mgl32"

// CameraController owns the camera's pose and is the only thing the tick goroutine touches.
// The camera pulls Position and Target from it on Update(). Orbit and planar controls act on the same state:
// orbiting moves the eye around the pivot, panning moves eye and pivot together.
type CameraController interface {
	orbitCameraController
	planarCameraController

	// Position returns the eye position.
	//
	// Returns:
	//   - mgl32.Vec3: world-space camera position
	Position() mgl32.Vec3

	// Target returns the pivot the camera looks at.
	//
	// Returns:
	//   - mgl32.Vec3: world-space pivot
	Target() mgl32.Vec3

	// SetTarget moves the pivot and recomputes the eye from the spherical coordinates.
	//
	// Parameters:
	//   - target: world-space pivot
	SetTarget(target mgl32.Vec3)

	// Zoom moves the eye toward the pivot. Positive delta zooms in.
	//
	// Parameters:
	//   - delta: zoom amount, scaled by ZoomSpeed
	Zoom(delta float32)
}

// orbitCameraController rotates the eye around the pivot in spherical coordinates.
type orbitCameraController interface {
	// Orbit rotates the eye by the given angles, clamping elevation to its bounds.
	//
	// Parameters:
	//   - dAzimuth: change of the horizontal angle in radians
	//   - dElevation: change of the vertical angle in radians
	Orbit(dAzimuth, dElevation float32)

	OrbitLeft()
	OrbitRight()
	OrbitUp()
	OrbitDown()

	Radius() float32
	SetRadius(radius float32)
	Azimuth() float32
	SetAzimuth(azimuth float32)
	Elevation() float32
	SetElevation(elevation float32)
	OrbitSpeed() float32
	ZoomSpeed() float32
}

// planarCameraController translates eye and pivot together along the camera's local axes.
type planarCameraController interface {
	PanRight(delta float32)
	PanUp(delta float32)
	PanForward(delta float32)
	PanSpeed() float32
}
