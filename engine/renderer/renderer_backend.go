package renderer

import (
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/bind_group_provider"
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// Backend is the opaque collaborator every full-screen pass is drawn through.
// Implementations must be driven from a single goroutine; Render calls are executed in call order.
type Backend interface {
	// CreateTarget allocates an offscreen RGBA32Float render target. The returned target is zero-initialized
	// and is read back by shaders with integer texel loads, so no filtering is applied.
	//
	// Parameters:
	//   - label: debug label for the target
	//   - width: width in pixels, must be positive
	//   - height: height in pixels, must be positive
	//
	// Returns:
	//   - Target: the new target
	//   - error: error if the allocation fails or the size is invalid
	CreateTarget(label string, width, height int) (Target, error)

	// Render draws mesh with program p into target. A nil target renders to the visible surface.
	// Every uniform declared by the program's shaders must be set before calling Render.
	//
	// Parameters:
	//   - mesh: the geometry to draw
	//   - p: the program whose shaders and uniforms are used
	//   - target: the destination, or nil for the surface
	//
	// Returns:
	//   - error: error if the program cannot be realized, a uniform is missing, or submission fails
	Render(mesh Mesh, p Program, target Target) error
}

// Target is an offscreen image produced by a Backend.
type Target interface {
	// Label returns the debug label the target was created with.
	//
	// Returns:
	//   - string: the label
	Label() string

	// Width returns the width in pixels.
	//
	// Returns:
	//   - int: the width
	Width() int

	// Height returns the height in pixels.
	//
	// Returns:
	//   - int: the height
	Height() int

	// Release frees the resources behind the target. The target must not be rendered to or bound afterwards.
	Release()
}

// Mesh is the vertex geometry handed to Backend.Render.
type Mesh interface {
	// Label returns a debug label for the mesh.
	//
	// Returns:
	//   - string: the label
	Label() string

	// VertexData returns the packed vertex bytes matching the vertex shader's input layout.
	//
	// Returns:
	//   - []byte: the vertex bytes
	VertexData() []byte

	// VertexCount returns the number of vertices to draw.
	//
	// Returns:
	//   - int: the vertex count
	VertexCount() int

	// Provider returns the holder for the mesh's GPU vertex buffer, realized lazily by GPU backends.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the provider
	Provider() bind_group_provider.BindGroupProvider
}
