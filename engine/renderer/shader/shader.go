package shader

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType identifies the pipeline stage a shader module targets.
type ShaderType int

const (
	// ShaderTypeVertex is a module with a @vertex entry point.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is a module with a @fragment entry point.
	ShaderTypeFragment
)

// String returns the stage name.
func (t ShaderType) String() string {
	if t == ShaderTypeFragment {
		return "fragment"
	}
	return "vertex"
}

// Visibility returns the wgpu stage flag for the shader type.
func (t ShaderType) Visibility() wgpu.ShaderStage {
	if t == ShaderTypeFragment {
		return wgpu.ShaderStageFragment
	}
	return wgpu.ShaderStageVertex
}

type shader struct {
	key           string
	source        string
	shaderType    ShaderType
	entryPoint    string
	bindings      []Binding
	vertexLayouts map[int][]wgpu.VertexBufferLayout
	module        *wgpu.ShaderModuleDescriptor

	pp PreProcessor
}

// Shader is a pre-processed and reflected WGSL module. It exposes the entry point, the declared resource bindings,
// and the vertex input layouts a backend needs to build pipelines and bind groups.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the pre-processed WGSL source.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// ShaderType returns the stage the shader targets.
	//
	// Returns:
	//   - ShaderType: ShaderTypeVertex or ShaderTypeFragment
	ShaderType() ShaderType

	// EntryPoint returns the entry point function name.
	//
	// Returns:
	//   - string: the entry point name, e.g. "vs_main"
	EntryPoint() string

	// Bindings returns every resource declaration in the shader, sorted by group then binding.
	//
	// Returns:
	//   - []Binding: the declared bindings
	Bindings() []Binding

	// Binding looks up a declared resource by its WGSL variable name.
	//
	// Parameters:
	//   - name: the variable name
	//
	// Returns:
	//   - Binding: the declaration
	//   - bool: false if the shader declares no such variable
	Binding(name string) (Binding, bool)

	// BindGroupLayoutDescriptors builds layout descriptors for every group the shader declares, visible to the
	// shader's own stage.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// VertexLayouts returns the vertex buffer layouts parsed from vertex input structs. Empty for fragment shaders.
	//
	// Returns:
	//   - map[int][]wgpu.VertexBufferLayout: layouts keyed by buffer slot
	VertexLayouts() map[int][]wgpu.VertexBufferLayout

	// Module returns the shader module descriptor built from the pre-processed source.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the descriptor containing the WGSL code and label
	Module() *wgpu.ShaderModuleDescriptor

	// Declarations returns the @oxy:group annotations the pre-processor expanded.
	//
	// Returns:
	//   - []Annotation: the expanded group annotations
	Declarations() []Annotation
}

var _ Shader = &shader{}

// NewShader pre-processes and reflects WGSL source. Annotations are expanded before reflection, so bindings
// generated from @oxy:group lines are visible through Bindings.
//
// Parameters:
//   - key: a unique identifier for the shader, used for caching and lookups
//   - shaderType: the stage the source targets
//   - source: WGSL source, possibly containing @oxy: annotations
//
// Returns:
//   - Shader: the parsed shader
//   - error: error if pre-processing fails or the source has no entry point for its stage
func NewShader(key string, shaderType ShaderType, source string) (Shader, error) {
	s := &shader{
		key:           key,
		shaderType:    shaderType,
		vertexLayouts: make(map[int][]wgpu.VertexBufferLayout),
		pp:            NewPreProcessor(),
	}

	var err error
	s.source, err = s.pp.Process(source)
	if err != nil {
		return nil, fmt.Errorf("shader %s: pre-process: %w", key, err)
	}
	s.entryPoint = parseEntryPoint(s.source, shaderType)
	if s.entryPoint == "" {
		return nil, fmt.Errorf("shader %s: no @%s entry point", key, shaderType)
	}
	s.module = &wgpu.ShaderModuleDescriptor{
		Label:          key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: s.source},
	}
	if shaderType == ShaderTypeVertex {
		s.vertexLayouts = parseVertexLayouts(s.source)
	}
	s.bindings = parseBindings(s.source)
	return s, nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) Bindings() []Binding {
	return s.bindings
}

func (s *shader) Binding(name string) (Binding, bool) {
	for _, b := range s.bindings {
		if b.Name == name {
			return b, true
		}
	}
	return Binding{}, false
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	result := make(map[int]wgpu.BindGroupLayoutDescriptor)
	for _, b := range s.bindings {
		desc := result[b.Group]
		desc.Entries = append(desc.Entries, layoutEntry(b, s.shaderType.Visibility()))
		result[b.Group] = desc
	}
	return result
}

func (s *shader) VertexLayouts() map[int][]wgpu.VertexBufferLayout {
	return s.vertexLayouts
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

func (s *shader) Declarations() []Annotation {
	return s.pp.Declarations()
}
