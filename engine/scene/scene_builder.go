package scene

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithMaterials appends materials to the scene. The slice is copied.
//
// Parameters:
//   - materials: the materials to add, in index order
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithMaterials(materials ...Material) SceneBuilderOption {
	return func(s *scene) {
		s.materials = append(s.materials, materials...)
	}
}

// WithGeometry appends geometry to the scene. The slice is copied.
//
// Parameters:
//   - geometry: the geometry to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithGeometry(geometry ...Geometry) SceneBuilderOption {
	return func(s *scene) {
		s.geometry = append(s.geometry, geometry...)
	}
}

// WithLights appends lights to the scene. The slice is copied.
//
// Parameters:
//   - lights: the lights to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLights(lights ...Light) SceneBuilderOption {
	return func(s *scene) {
		s.lights = append(s.lights, lights...)
	}
}
