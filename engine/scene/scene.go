package scene

import "slices"

// Scene is an ordered, read-only collection of materials, geometry, and lights.
// A Scene copies everything it is given and hands out copies, so a value held by the tracer never
// observes later mutation of the caller's slices.
type Scene interface {
	// Materials returns a copy of the material list. A material's position in this list is the index
	// Geometry.MaterialIndex refers to.
	//
	// Returns:
	//   - []Material: the materials in scene order
	Materials() []Material

	// Geometry returns a copy of the geometry list.
	//
	// Returns:
	//   - []Geometry: the geometry in scene order
	Geometry() []Geometry

	// Lights returns a copy of the light list.
	//
	// Returns:
	//   - []Light: the lights in scene order
	Lights() []Light

	// Empty reports whether the scene has no materials, geometry, or lights.
	//
	// Returns:
	//   - bool: true if all three lists are empty
	Empty() bool

	// Clone returns an independent copy of the scene.
	//
	// Returns:
	//   - Scene: the copy
	Clone() Scene
}

type scene struct {
	materials []Material
	geometry  []Geometry
	lights    []Light
}

var _ Scene = &scene{}

// NewScene creates a Scene from the given options. A scene with no options is empty and valid.
//
// Parameters:
//   - options: functional options supplying the scene's contents
//
// Returns:
//   - Scene: the new scene
func NewScene(options ...SceneBuilderOption) Scene {
	s := &scene{}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *scene) Materials() []Material {
	return slices.Clone(s.materials)
}

func (s *scene) Geometry() []Geometry {
	return slices.Clone(s.geometry)
}

func (s *scene) Lights() []Light {
	return slices.Clone(s.lights)
}

func (s *scene) Empty() bool {
	return len(s.materials) == 0 && len(s.geometry) == 0 && len(s.lights) == 0
}

func (s *scene) Clone() Scene {
	return &scene{
		materials: slices.Clone(s.materials),
		geometry:  slices.Clone(s.geometry),
		lights:    slices.Clone(s.lights),
	}
}
