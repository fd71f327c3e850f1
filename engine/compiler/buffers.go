package compiler

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-trace/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// MaterialRef locates a material inside its category buffers.
type MaterialRef struct {
	Type  scene.MaterialType
	Index int
}

// MaterialIndexMap maps a scene-order material index to its category and position within that category.
type MaterialIndexMap []MaterialRef

// Lookup resolves a scene-order material index.
//
// Parameters:
//   - i: the material's index in the scene's material list
//
// Returns:
//   - MaterialRef: the category and in-category index
//   - bool: false if i does not name a compiled material
func (m MaterialIndexMap) Lookup(i int) (MaterialRef, bool) {
	if i < 0 || i >= len(m) {
		return MaterialRef{}, false
	}
	return m[i], true
}

// LambertBuffers holds one entry per Lambert material.
type LambertBuffers struct {
	Color []mgl32.Vec3
}

// MirrorBuffers holds one entry per Mirror material.
type MirrorBuffers struct {
	Gloss []float32
}

// MaterialBuffers groups the per-category material arrays.
type MaterialBuffers struct {
	Lambert LambertBuffers
	Mirror  MirrorBuffers
}

// SphereBuffers holds parallel arrays with one entry per sphere.
type SphereBuffers struct {
	Position      []mgl32.Vec3
	Radius        []float32
	MaterialType  []int32
	MaterialIndex []int32
}

// PlaneBuffers holds parallel arrays with one entry per plane. Normals are unit length.
type PlaneBuffers struct {
	Position      []mgl32.Vec3
	Normal        []mgl32.Vec3
	MaterialType  []int32
	MaterialIndex []int32
}

// GeometryBuffers groups the per-shape geometry arrays.
type GeometryBuffers struct {
	Sphere SphereBuffers
	Plane  PlaneBuffers
}

// SphereLightBuffers holds parallel arrays with one entry per sphere light.
type SphereLightBuffers struct {
	Position  []mgl32.Vec3
	Radius    []float32
	Color     []mgl32.Vec3
	Intensity []float32
}

// LightingBuffers groups the per-category light arrays.
type LightingBuffers struct {
	Sphere SphereLightBuffers
}

// CompiledBuffers is a scene flattened into per-category arrays ready for GPU upload.
// Every parallel array within one category has the same length.
type CompiledBuffers struct {
	Materials MaterialBuffers
	Geometry  GeometryBuffers
	Lighting  LightingBuffers
}

// Counts returns the element count of every category keyed by its shader placeholder.
//
// Parameters:
//   - randomSeeds: the number of random seeds the tracer uploads per render
//
// Returns:
//   - shader.Counts: placeholder to count
func (c *CompiledBuffers) Counts(randomSeeds int) shader.Counts {
	return shader.Counts{
		shader.PlaceholderRandomSeeds:     randomSeeds,
		shader.PlaceholderMaterialLambert: len(c.Materials.Lambert.Color),
		shader.PlaceholderMaterialMirror:  len(c.Materials.Mirror.Gloss),
		shader.PlaceholderGeometrySphere:  len(c.Geometry.Sphere.Position),
		shader.PlaceholderGeometryPlane:   len(c.Geometry.Plane.Position),
		shader.PlaceholderLightingSphere:  len(c.Lighting.Sphere.Position),
	}
}

// MarshalBinary encodes every array in a fixed order as little-endian values, each prefixed by its uint32 byte length.
// Two buffers compiled from the same scene encode to identical bytes.
func (c *CompiledBuffers) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	sections := []any{
		c.Materials.Lambert.Color,
		c.Materials.Mirror.Gloss,
		c.Geometry.Sphere.Position,
		c.Geometry.Sphere.Radius,
		c.Geometry.Sphere.MaterialType,
		c.Geometry.Sphere.MaterialIndex,
		c.Geometry.Plane.Position,
		c.Geometry.Plane.Normal,
		c.Geometry.Plane.MaterialType,
		c.Geometry.Plane.MaterialIndex,
		c.Lighting.Sphere.Position,
		c.Lighting.Sphere.Radius,
		c.Lighting.Sphere.Color,
		c.Lighting.Sphere.Intensity,
	}
	for i, section := range sections {
		n := uint32(binary.Size(section))
		if err := binary.Write(&buf, binary.LittleEndian, n); err != nil {
			return nil, err
		}
		if n == 0 {
			continue
		}
		if err := binary.Write(&buf, binary.LittleEndian, section); err != nil {
			return nil, fmt.Errorf("compiler: marshal section %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
