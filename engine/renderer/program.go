package renderer

import (
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxy-trace/common"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/shader"
)

// Uniform is a value bound to one named shader resource. It is one of BufferUniform, TextureUniform or TargetUniform.
type Uniform interface {
	isUniform()
}

// BufferUniform holds the raw contents of a uniform or storage buffer.
type BufferUniform struct {
	Data []byte
}

// TextureUniform holds an RGBA32F data texture uploaded to a sampled texture binding.
type TextureUniform struct {
	Texture common.FloatTexture
}

// TargetUniform binds the contents of another render target to a sampled texture binding.
type TargetUniform struct {
	Target Target
}

func (BufferUniform) isUniform()  {}
func (TextureUniform) isUniform() {}
func (TargetUniform) isUniform()  {}

// uniformKindName names a uniform variant in error messages.
func uniformKindName(u Uniform) string {
	switch u.(type) {
	case BufferUniform:
		return "buffer data"
	case TextureUniform:
		return "texture data"
	case TargetUniform:
		return "render target"
	default:
		return fmt.Sprintf("%T", u)
	}
}

// program is the implementation of the Program interface.
type program struct {
	mu *sync.Mutex

	key              string
	vertex, fragment shader.Shader
	bindings         []shader.Binding
	uniforms         map[string]Uniform
	pipeline         pipeline.Pipeline
	providers        map[int]bind_group_provider.BindGroupProvider
}

// Program pairs a vertex and a fragment shader with a table of named uniforms.
// A Program is backend-agnostic: GPU backends realize their pipeline and bind groups lazily on the first
// Render, software backends dispatch on Key.
type Program interface {
	// Key returns the unique key of the program.
	//
	// Returns:
	//   - string: the key
	Key() string

	// Shader returns the shader for the given stage.
	//
	// Parameters:
	//   - shaderType: vertex or fragment
	//
	// Returns:
	//   - shader.Shader: the shader, or nil for an unknown stage
	Shader(shaderType shader.ShaderType) shader.Shader

	// Bindings returns the resource declarations of both stages, deduplicated and sorted by group then binding.
	//
	// Returns:
	//   - []shader.Binding: the declared bindings
	Bindings() []shader.Binding

	// SetUniform assigns a value to a declared uniform. The name must be declared by one of the shaders and
	// the value must fit the binding: BufferUniform for buffers, TextureUniform or TargetUniform for textures.
	//
	// Parameters:
	//   - name: the WGSL variable name
	//   - u: the value to bind
	//
	// Returns:
	//   - error: *UnknownUniformError for an undeclared name, *UniformKindError for a mismatched value
	SetUniform(name string, u Uniform) error

	// Uniform returns the value currently bound to name.
	//
	// Parameters:
	//   - name: the WGSL variable name
	//
	// Returns:
	//   - Uniform: the bound value
	//   - bool: false if nothing has been bound
	Uniform(name string) (Uniform, bool)

	// Uniforms returns a copy of the uniform table.
	//
	// Returns:
	//   - map[string]Uniform: the bound values keyed by name
	Uniforms() map[string]Uniform

	// Pipeline returns the pipeline state GPU backends realize for this program.
	//
	// Returns:
	//   - pipeline.Pipeline: the pipeline
	Pipeline() pipeline.Pipeline

	// Provider returns the bind group provider for a group, creating it on first use.
	//
	// Parameters:
	//   - group: the bind group index
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the provider for the group
	Provider(group int) bind_group_provider.BindGroupProvider

	// Release frees every GPU resource realized for the program. The uniform table is kept.
	Release()
}

var _ Program = &program{}

// NewProgram creates a Program from a vertex and a fragment shader.
//
// Parameters:
//   - key: unique key, used as pipeline label and software kernel lookup
//   - vs: the vertex shader
//   - fs: the fragment shader
//
// Returns:
//   - Program: the new program
//   - error: error if either shader is missing or has the wrong stage
func NewProgram(key string, vs, fs shader.Shader) (Program, error) {
	if vs == nil || fs == nil {
		return nil, fmt.Errorf("renderer: program %s needs both a vertex and a fragment shader", key)
	}
	if vs.ShaderType() != shader.ShaderTypeVertex {
		return nil, fmt.Errorf("renderer: program %s: %s is a %s shader, want vertex", key, vs.Key(), vs.ShaderType())
	}
	if fs.ShaderType() != shader.ShaderTypeFragment {
		return nil, fmt.Errorf("renderer: program %s: %s is a %s shader, want fragment", key, fs.Key(), fs.ShaderType())
	}

	p := &program{
		mu:        &sync.Mutex{},
		key:       key,
		vertex:    vs,
		fragment:  fs,
		uniforms:  make(map[string]Uniform),
		providers: make(map[int]bind_group_provider.BindGroupProvider),
		pipeline: pipeline.NewPipeline(key,
			pipeline.WithVertexShader(vs),
			pipeline.WithFragmentShader(fs),
		),
	}
	p.bindings = mergeBindings(vs.Bindings(), fs.Bindings())
	return p, nil
}

func (p *program) Key() string {
	return p.key
}

func (p *program) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertex
	case shader.ShaderTypeFragment:
		return p.fragment
	default:
		return nil
	}
}

func (p *program) Bindings() []shader.Binding {
	out := make([]shader.Binding, len(p.bindings))
	copy(out, p.bindings)
	return out
}

func (p *program) SetUniform(name string, u Uniform) error {
	b, ok := p.binding(name)
	if !ok {
		return &UnknownUniformError{Program: p.key, Name: name}
	}

	fits := false
	switch u.(type) {
	case BufferUniform:
		fits = b.Kind.IsBuffer()
	case TextureUniform, TargetUniform:
		fits = b.Kind == shader.BindingKindTexture
	}
	if !fits {
		return &UniformKindError{Program: p.key, Name: name, Binding: b.Kind.String(), Value: uniformKindName(u)}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.uniforms[name] = u
	return nil
}

func (p *program) Uniform(name string) (Uniform, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, ok := p.uniforms[name]
	return u, ok
}

func (p *program) Uniforms() map[string]Uniform {
	p.mu.Lock()
	defer p.mu.Unlock()
	return maps.Clone(p.uniforms)
}

func (p *program) Pipeline() pipeline.Pipeline {
	return p.pipeline
}

func (p *program) Provider(group int) bind_group_provider.BindGroupProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	bgp, ok := p.providers[group]
	if !ok {
		bgp = bind_group_provider.NewBindGroupProvider(fmt.Sprintf("%s group %d", p.key, group))
		p.providers[group] = bgp
	}
	return bgp
}

func (p *program) Release() {
	p.mu.Lock()
	providers := p.providers
	p.providers = make(map[int]bind_group_provider.BindGroupProvider)
	p.mu.Unlock()

	for _, bgp := range providers {
		bgp.Release()
	}
	p.pipeline.Release()
}

func (p *program) binding(name string) (shader.Binding, bool) {
	for _, b := range p.bindings {
		if b.Name == name {
			return b, true
		}
	}
	return shader.Binding{}, false
}

// mergeBindings joins the declarations of both stages. A resource declared by both stages appears once.
func mergeBindings(vertex, fragment []shader.Binding) []shader.Binding {
	type slot struct{ group, binding int }
	seen := make(map[slot]bool, len(vertex)+len(fragment))
	out := make([]shader.Binding, 0, len(vertex)+len(fragment))
	for _, list := range [][]shader.Binding{vertex, fragment} {
		for _, b := range list {
			s := slot{b.Group, b.Binding}
			if seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return out[i].Group < out[j].Group
		}
		return out[i].Binding < out[j].Binding
	})
	return out
}
