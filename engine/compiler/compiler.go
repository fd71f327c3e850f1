// Package compiler lowers a scene into flat, category-segregated arrays sized for GPU upload, together with the
// remapping from scene-order material indices to in-category indices.
package compiler

import "github.com/Carmen-Shannon/oxy-trace/engine/scene"

// Compile flattens a scene. Elements keep their scene order within each category and the scene is not modified.
// Unknown variants and unresolvable material references fail the whole call; no partial buffers are returned.
//
// Parameters:
//   - s: the scene to compile
//
// Returns:
//   - *CompiledBuffers: the flattened arrays
//   - MaterialIndexMap: scene-order material index to category and in-category index
//   - error: *UnsupportedVariantError, *UnresolvedMaterialError, or ErrNilScene
func Compile(s scene.Scene) (*CompiledBuffers, MaterialIndexMap, error) {
	if s == nil {
		return nil, nil, ErrNilScene
	}

	out := &CompiledBuffers{}

	materials := s.Materials()
	index := make(MaterialIndexMap, 0, len(materials))
	for i, m := range materials {
		switch m := m.(type) {
		case scene.Lambert:
			out.Materials.Lambert.Color = append(out.Materials.Lambert.Color, m.Color)
			index = append(index, MaterialRef{Type: scene.MaterialTypeLambert, Index: len(out.Materials.Lambert.Color) - 1})
		case scene.Mirror:
			out.Materials.Mirror.Gloss = append(out.Materials.Mirror.Gloss, m.Gloss)
			index = append(index, MaterialRef{Type: scene.MaterialTypeMirror, Index: len(out.Materials.Mirror.Gloss) - 1})
		default:
			return nil, nil, &UnsupportedVariantError{Kind: "material", Index: i, Value: m}
		}
	}

	for i, g := range s.Geometry() {
		ref, ok := index.Lookup(g.MaterialIndex)
		if !ok {
			return nil, nil, &UnresolvedMaterialError{GeometryIndex: i, MaterialIndex: g.MaterialIndex}
		}
		switch shape := g.Shape.(type) {
		case scene.Sphere:
			b := &out.Geometry.Sphere
			b.Position = append(b.Position, shape.Position)
			b.Radius = append(b.Radius, shape.Radius)
			b.MaterialType = append(b.MaterialType, int32(ref.Type))
			b.MaterialIndex = append(b.MaterialIndex, int32(ref.Index))
		case scene.Plane:
			if shape.Normal.Len() == 0 {
				return nil, nil, &UnsupportedVariantError{Kind: "geometry", Index: i, Value: shape, Reason: "plane normal has zero length"}
			}
			b := &out.Geometry.Plane
			b.Position = append(b.Position, shape.Position)
			b.Normal = append(b.Normal, shape.Normal.Normalize())
			b.MaterialType = append(b.MaterialType, int32(ref.Type))
			b.MaterialIndex = append(b.MaterialIndex, int32(ref.Index))
		default:
			return nil, nil, &UnsupportedVariantError{Kind: "geometry", Index: i, Value: g.Shape}
		}
	}

	for i, l := range s.Lights() {
		switch l := l.(type) {
		case scene.SphereLight:
			b := &out.Lighting.Sphere
			b.Position = append(b.Position, l.Position)
			b.Radius = append(b.Radius, l.Radius)
			b.Color = append(b.Color, l.LightColor())
			b.Intensity = append(b.Intensity, l.LightIntensity())
		default:
			return nil, nil, &UnsupportedVariantError{Kind: "light", Index: i, Value: l}
		}
	}

	return out, index, nil
}
