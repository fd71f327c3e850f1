package shader

import (
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// wgslPrimitiveLayoutMap holds size and alignment of the host-shareable primitives the engine's shaders declare.
//
// Reference: https://www.w3.org/TR/WGSL/#alignment-and-size
var wgslPrimitiveLayoutMap = map[string]wgslTypeLayout{
	"f32":         {4, 4},
	"i32":         {4, 4},
	"u32":         {4, 4},
	"vec2<f32>":   {8, 8},
	"vec2f":       {8, 8},
	"vec3<f32>":   {12, 16},
	"vec3f":       {12, 16},
	"vec4<f32>":   {16, 16},
	"vec4f":       {16, 16},
	"vec2<u32>":   {8, 8},
	"vec2u":       {8, 8},
	"vec4<i32>":   {16, 16},
	"vec4i":       {16, 16},
	"mat3x3<f32>": {48, 16},
	"mat4x4<f32>": {64, 16},
	"mat4x4f":     {64, 16},
}

// wgslSampleTypeMap maps a sampled texture's scalar parameter to its binding sample type. Float textures are
// declared unfilterable since RGBA32Float is only filterable behind an optional device feature and the engine
// reads texels with textureLoad.
var wgslSampleTypeMap = map[string]wgpu.TextureSampleType{
	"f32": wgpu.TextureSampleTypeUnfilterableFloat,
	"i32": wgpu.TextureSampleTypeSint,
	"u32": wgpu.TextureSampleTypeUint,
}

func roundUpAlign(alignment, value uint64) uint64 {
	if alignment == 0 {
		return value
	}
	return (value + alignment - 1) &^ (alignment - 1)
}

// resolveTypeLayout resolves a primitive, a known struct, or an array of either. Runtime-sized arrays resolve to
// a single element stride, the smallest useful binding.
//
// Parameters:
//   - typeName: the WGSL type
//   - knownTypes: struct layouts resolved so far
//
// Returns:
//   - wgslTypeLayout: the resolved layout
//   - bool: false for unknown types
func resolveTypeLayout(typeName string, knownTypes map[string]wgslTypeLayout) (wgslTypeLayout, bool) {
	if layout, ok := wgslPrimitiveLayoutMap[typeName]; ok {
		return layout, true
	}
	if layout, ok := knownTypes[typeName]; ok {
		return layout, true
	}

	inner, ok := strings.CutPrefix(typeName, "array<")
	if !ok || !strings.HasSuffix(inner, ">") {
		return wgslTypeLayout{}, false
	}
	elemType, countStr, sized := strings.Cut(strings.TrimSuffix(inner, ">"), ",")
	elem, ok := resolveTypeLayout(strings.TrimSpace(elemType), knownTypes)
	if !ok {
		return wgslTypeLayout{}, false
	}
	stride := roundUpAlign(elem.align, elem.size)
	if !sized {
		return wgslTypeLayout{stride, elem.align}, true
	}
	count, err := strconv.ParseUint(strings.TrimSpace(countStr), 10, 64)
	if err != nil {
		return wgslTypeLayout{}, false
	}
	return wgslTypeLayout{count * stride, elem.align}, true
}

// computeStructLayout applies WGSL struct layout rules: each member starts at its aligned offset and the struct
// size rounds up to the largest member alignment. Builtin members are skipped.
func computeStructLayout(ps parsedStruct, knownTypes map[string]wgslTypeLayout) (wgslTypeLayout, bool) {
	var offset uint64
	maxAlign := uint64(1)
	for _, f := range ps.fields {
		if f.isBuiltin {
			continue
		}
		layout, ok := resolveTypeLayout(f.typeName, knownTypes)
		if !ok {
			return wgslTypeLayout{}, false
		}
		offset = roundUpAlign(layout.align, offset) + layout.size
		maxAlign = max(maxAlign, layout.align)
	}
	return wgslTypeLayout{roundUpAlign(maxAlign, offset), maxAlign}, true
}

// computeStructSizes resolves struct layouts repeatedly until no further struct can be resolved, so structs may
// reference structs declared after them.
func computeStructSizes(structs []parsedStruct) map[string]wgslTypeLayout {
	resolved := make(map[string]wgslTypeLayout, len(structs))
	remaining := structs
	for len(remaining) > 0 {
		var next []parsedStruct
		for _, ps := range remaining {
			if layout, ok := computeStructLayout(ps, resolved); ok {
				resolved[ps.name] = layout
			} else {
				next = append(next, ps)
			}
		}
		if len(next) == len(remaining) {
			break
		}
		remaining = next
	}
	return resolved
}

// layoutEntry converts a parsed binding into a bind group layout entry visible to the given stages.
//
// Parameters:
//   - b: the parsed binding
//   - visibility: shader stages that access the binding
//
// Returns:
//   - wgpu.BindGroupLayoutEntry: the populated entry
func layoutEntry(b Binding, visibility wgpu.ShaderStage) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    uint32(b.Binding),
		Visibility: visibility,
	}
	switch b.Kind {
	case BindingKindUniformBuffer:
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		entry.Buffer.MinBindingSize = b.MinBindingSize
	case BindingKindStorageBuffer:
		entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		if b.ReadWrite {
			entry.Buffer.Type = wgpu.BufferBindingTypeStorage
		}
		entry.Buffer.MinBindingSize = b.MinBindingSize
	case BindingKindSampler:
		entry.Sampler.Type = wgpu.SamplerBindingTypeNonFiltering
	case BindingKindTexture:
		_, param, _ := strings.Cut(b.Type, "<")
		entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
		entry.Texture.SampleType = wgpu.TextureSampleTypeUnfilterableFloat
		if st, ok := wgslSampleTypeMap[strings.TrimSuffix(param, ">")]; ok {
			entry.Texture.SampleType = st
		}
	}
	return entry
}
