package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-trace/engine/scene"
)

// ImportedScene is the result of decoding one scene file.
type ImportedScene struct {
	Scene scene.Scene
	// Camera is nil when the file does not describe a viewpoint.
	Camera *CameraDescription
}

// loaderBackend decodes one scene file format.
type loaderBackend interface {
	// Extensions returns the lowercase file extensions the backend reads, including the dot.
	//
	// Returns:
	//   - []string: the supported extensions
	Extensions() []string

	// Load decodes the scene file at path.
	//
	// Parameters:
	//   - path: the file path to load
	//
	// Returns:
	//   - *ImportedScene: the decoded scene
	//   - error: error if reading or decoding fails
	Load(path string) (*ImportedScene, error)

	// LoadReader decodes a scene from a stream.
	//
	// Parameters:
	//   - r: the reader providing the scene description
	//
	// Returns:
	//   - *ImportedScene: the decoded scene
	//   - error: error if decoding fails
	LoadReader(r io.Reader) (*ImportedScene, error)
}
