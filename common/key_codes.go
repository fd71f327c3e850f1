package common

// Key codes delivered by the window's key callback. They match GLFW's, which use ASCII for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyW     = 87
	KeyA     = 65
	KeyS     = 83
	KeyD     = 68
	KeyQ     = 81
	KeyE     = 69
	KeyC     = 67 // clear the accumulated image
	KeyP     = 80 // toggle the profiler
	KeySpace = 32
	KeyLeft  = 263
	KeyRight = 262
	KeyUp    = 265
	KeyDown  = 264
)
