package shader

import "github.com/cogentcore/webgpu/wgpu"

// BindingKind classifies a resource binding declared in WGSL.
type BindingKind int

const (
	// BindingKindUniformBuffer is a var<uniform> buffer.
	BindingKindUniformBuffer BindingKind = iota

	// BindingKindStorageBuffer is a var<storage, read> or var<storage, read_write> buffer.
	BindingKindStorageBuffer

	// BindingKindTexture is a sampled texture read with textureLoad.
	BindingKindTexture

	// BindingKindSampler is a sampler.
	BindingKindSampler
)

// String returns a short name for the kind.
func (k BindingKind) String() string {
	switch k {
	case BindingKindUniformBuffer:
		return "uniform"
	case BindingKindStorageBuffer:
		return "storage"
	case BindingKindTexture:
		return "texture"
	case BindingKindSampler:
		return "sampler"
	default:
		return "unknown"
	}
}

// IsBuffer reports whether the kind is backed by a GPU buffer.
func (k BindingKind) IsBuffer() bool {
	return k == BindingKindUniformBuffer || k == BindingKindStorageBuffer
}

// Binding describes one @group/@binding resource declaration.
type Binding struct {
	Group   int
	Binding int
	// Name is the WGSL variable name. Programs address uniforms by this name.
	Name string
	// Type is the declared WGSL type, e.g. "TracerUniforms" or "texture_2d<f32>".
	Type string
	Kind BindingKind
	// ReadWrite is set for var<storage, read_write> buffers.
	ReadWrite bool
	// MinBindingSize is the byte size of the bound type, or of one element for runtime-sized arrays. Zero when
	// the type could not be resolved or the binding is not a buffer.
	MinBindingSize uint64
}

type vertexFormatInfo struct {
	format wgpu.VertexFormat
	size   uint64
}

// wgslTypeLayout is the size and alignment of a WGSL type in host-shareable memory.
type wgslTypeLayout struct {
	size  uint64
	align uint64
}

type parsedField struct {
	name      string
	typeName  string
	location  int
	isBuiltin bool
}

type parsedStruct struct {
	name   string
	fields []parsedField
}
