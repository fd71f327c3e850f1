package compiler

import (
	"github.com/Carmen-Shannon/oxy-trace/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Binding names of the compiled arrays as declared in the tracer's fragment shader.
const (
	BindingGeometrySpherePosition      = "geometry_sphere_position"
	BindingGeometrySphereRadius        = "geometry_sphere_radius"
	BindingGeometrySphereMaterialType  = "geometry_sphere_material_type"
	BindingGeometrySphereMaterialIndex = "geometry_sphere_material_index"
	BindingGeometryPlanePosition       = "geometry_plane_position"
	BindingGeometryPlaneNormal         = "geometry_plane_normal"
	BindingGeometryPlaneMaterialType   = "geometry_plane_material_type"
	BindingGeometryPlaneMaterialIndex  = "geometry_plane_material_index"

	BindingMaterialLambertColor    = "material_lambert_color"
	BindingMaterialMirrorGloss     = "material_mirror_gloss"
	BindingLightingSpherePosition  = "lighting_sphere_position"
	BindingLightingSphereRadius    = "lighting_sphere_radius"
	BindingLightingSphereColor     = "lighting_sphere_color"
	BindingLightingSphereIntensity = "lighting_sphere_intensity"
)

// StorageArrays packs the geometry arrays into storage buffer contents keyed by binding name.
// vec3 arrays are widened to array<vec4f> with w = 0; scalar arrays are tightly packed.
// Every array holds at least one element because zero-sized bindings are invalid; shaders read only up to the
// specialized count.
//
// Returns:
//   - map[string][]byte: binding name to little-endian buffer contents
func (c *CompiledBuffers) StorageArrays() map[string][]byte {
	sphere := c.Geometry.Sphere
	plane := c.Geometry.Plane
	return map[string][]byte{
		BindingGeometrySpherePosition:      packVec3(sphere.Position),
		BindingGeometrySphereRadius:        packFloats(sphere.Radius),
		BindingGeometrySphereMaterialType:  packInts(sphere.MaterialType),
		BindingGeometrySphereMaterialIndex: packInts(sphere.MaterialIndex),
		BindingGeometryPlanePosition:       packVec3(plane.Position),
		BindingGeometryPlaneNormal:         packVec3(plane.Normal),
		BindingGeometryPlaneMaterialType:   packInts(plane.MaterialType),
		BindingGeometryPlaneMaterialIndex:  packInts(plane.MaterialIndex),
	}
}

// DataTextures packs the material and light arrays into one-texel-high RGBA32Float textures keyed by binding name.
//
// Returns:
//   - map[string]common.FloatTexture: binding name to texture data
func (c *CompiledBuffers) DataTextures() map[string]common.FloatTexture {
	lights := c.Lighting.Sphere
	return map[string]common.FloatTexture{
		BindingMaterialLambertColor:    common.FromVec3Array(c.Materials.Lambert.Color),
		BindingMaterialMirrorGloss:     common.FromFloatArray(c.Materials.Mirror.Gloss),
		BindingLightingSpherePosition:  common.FromVec3Array(lights.Position),
		BindingLightingSphereRadius:    common.FromFloatArray(lights.Radius),
		BindingLightingSphereColor:     common.FromVec3Array(lights.Color),
		BindingLightingSphereIntensity: common.FromFloatArray(lights.Intensity),
	}
}

func packVec3(values []mgl32.Vec3) []byte {
	flat := make([]float32, max(len(values), 1)*4)
	for i, v := range values {
		copy(flat[i*4:], v[:])
	}
	return common.Float32sToBytes(flat)
}

func packFloats(values []float32) []byte {
	if len(values) == 0 {
		return common.Float32sToBytes([]float32{0})
	}
	return common.Float32sToBytes(values)
}

func packInts(values []int32) []byte {
	if len(values) == 0 {
		return common.Int32sToBytes([]int32{0})
	}
	return common.Int32sToBytes(values)
}
