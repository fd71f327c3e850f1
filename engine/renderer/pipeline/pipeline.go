package pipeline

import (
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// pipeline is the implementation of the Pipeline interface.
// It holds the shaders of one full-screen program and the GPU render pipelines realized for it, one per color target format.
type pipeline struct {
	mu *sync.Mutex

	pipelineKey string

	vertexShader, fragmentShader shader.Shader

	// layout and bindGroupLayouts are shared by every realized render pipeline of this key.
	layout           *wgpu.PipelineLayout
	bindGroupLayouts []*wgpu.BindGroupLayout

	// renderPipelines caches realized pipelines keyed by the color attachment format.
	renderPipelines map[wgpu.TextureFormat]*wgpu.RenderPipeline
}

// Pipeline defines the interface for a GPU render pipeline pairing a vertex and a fragment shader.
// A single Pipeline can be realized against several color formats, the visible surface and the RGBA32Float
// offscreen targets for example, and caches one GPU render pipeline per format.
type Pipeline interface {
	// PipelineKey returns the unique key associated with this pipeline, used for caching and lookups.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Shader retrieves the shader associated with the specified stage if it exists, nil otherwise.
	//
	// Parameters:
	//   - shaderType: the stage of the shader to retrieve (vertex or fragment)
	//
	// Returns:
	//   - shader.Shader: the shader associated with the specified stage, or nil if not set
	Shader(shaderType shader.ShaderType) shader.Shader

	// BindGroupLayoutDescriptors returns the bind group layouts of both stages merged by group index.
	// Bindings declared in both stages have their visibility combined.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: the merged descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// RenderPipeline returns the realized render pipeline for the given color format, or nil if none has been created yet.
	//
	// Parameters:
	//   - format: the color attachment format
	//
	// Returns:
	//   - *wgpu.RenderPipeline: the cached pipeline or nil
	RenderPipeline(format wgpu.TextureFormat) *wgpu.RenderPipeline

	// SetRenderPipeline caches a realized render pipeline for the given color format.
	//
	// Parameters:
	//   - format: the color attachment format
	//   - p: the WebGPU render pipeline to cache
	SetRenderPipeline(format wgpu.TextureFormat, p *wgpu.RenderPipeline)

	// Layout returns the pipeline layout shared by every realized render pipeline, or nil if not created yet.
	//
	// Returns:
	//   - *wgpu.PipelineLayout: the pipeline layout or nil
	Layout() *wgpu.PipelineLayout

	// BindGroupLayouts returns the GPU bind group layouts indexed by group, or nil if not created yet.
	//
	// Returns:
	//   - []*wgpu.BindGroupLayout: the layouts, with nil holes for unused group indices
	BindGroupLayouts() []*wgpu.BindGroupLayout

	// SetLayout stores the pipeline layout and the bind group layouts it was created from.
	//
	// Parameters:
	//   - layout: the created pipeline layout
	//   - bindGroupLayouts: the bind group layouts indexed by group
	SetLayout(layout *wgpu.PipelineLayout, bindGroupLayouts []*wgpu.BindGroupLayout)

	// PrimitiveState returns the primitive state of a full-screen pass: a culling-free triangle list.
	//
	// Returns:
	//   - wgpu.PrimitiveState: the primitive state
	PrimitiveState() wgpu.PrimitiveState

	// ColorTarget returns the single color attachment state for format. Passes overwrite every channel and never
	// blend; float32 targets are not blendable without an optional device feature.
	//
	// Parameters:
	//   - format: the color attachment format
	//
	// Returns:
	//   - wgpu.ColorTargetState: the color target state
	ColorTarget(format wgpu.TextureFormat) wgpu.ColorTargetState

	// Release releases every GPU object held by this pipeline. The pipeline may be realized again afterwards.
	Release()
}

var _ Pipeline = &pipeline{}

// NewPipeline is the entry point to create a new Pipeline interface.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified configuration
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		mu:              &sync.Mutex{},
		pipelineKey:     pipelineKey,
		renderPipelines: make(map[wgpu.TextureFormat]*wgpu.RenderPipeline),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	default:
		return nil
	}
}

func (p *pipeline) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	var vertex, fragment map[int]wgpu.BindGroupLayoutDescriptor
	if p.vertexShader != nil {
		vertex = p.vertexShader.BindGroupLayoutDescriptors()
	}
	if p.fragmentShader != nil {
		fragment = p.fragmentShader.BindGroupLayoutDescriptors()
	}
	return MergeBindGroupLayouts(vertex, fragment)
}

func (p *pipeline) RenderPipeline(format wgpu.TextureFormat) *wgpu.RenderPipeline {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.renderPipelines[format]
}

func (p *pipeline) SetRenderPipeline(format wgpu.TextureFormat, rp *wgpu.RenderPipeline) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if old := p.renderPipelines[format]; old != nil && old != rp {
		old.Release()
	}
	p.renderPipelines[format] = rp
}

func (p *pipeline) Layout() *wgpu.PipelineLayout {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.layout
}

func (p *pipeline) BindGroupLayouts() []*wgpu.BindGroupLayout {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bindGroupLayouts
}

func (p *pipeline) SetLayout(layout *wgpu.PipelineLayout, bindGroupLayouts []*wgpu.BindGroupLayout) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.layout = layout
	p.bindGroupLayouts = bindGroupLayouts
}

func (p *pipeline) PrimitiveState() wgpu.PrimitiveState {
	return wgpu.PrimitiveState{
		Topology:  wgpu.PrimitiveTopologyTriangleList,
		FrontFace: wgpu.FrontFaceCCW,
		CullMode:  wgpu.CullModeNone,
	}
}

func (p *pipeline) ColorTarget(format wgpu.TextureFormat) wgpu.ColorTargetState {
	return wgpu.ColorTargetState{
		Format:    format,
		WriteMask: wgpu.ColorWriteMaskAll,
	}
}

func (p *pipeline) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for format, rp := range p.renderPipelines {
		if rp != nil {
			rp.Release()
		}
		delete(p.renderPipelines, format)
	}
	if p.layout != nil {
		p.layout.Release()
		p.layout = nil
	}
	for _, l := range p.bindGroupLayouts {
		if l != nil {
			l.Release()
		}
	}
	p.bindGroupLayouts = nil
}

// MergeBindGroupLayouts merges the vertex and fragment shader bind group layout descriptors
// into a single set keyed by group index. When both stages declare the same group, entries
// are combined by binding number and the visibility flags of shared bindings are OR-ed.
//
// Parameters:
//   - vertexLayouts: bind group layout descriptors from the vertex shader
//   - fragmentLayouts: bind group layout descriptors from the fragment shader
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: the merged descriptors keyed by group index
func MergeBindGroupLayouts(vertexLayouts, fragmentLayouts map[int]wgpu.BindGroupLayoutDescriptor) map[int]wgpu.BindGroupLayoutDescriptor {
	merged := make(map[int]wgpu.BindGroupLayoutDescriptor, len(vertexLayouts)+len(fragmentLayouts))

	for g, vDesc := range vertexLayouts {
		merged[g] = vDesc
	}
	for g, fDesc := range fragmentLayouts {
		vDesc, ok := merged[g]
		if !ok {
			merged[g] = fDesc
			continue
		}

		entryMap := make(map[uint32]wgpu.BindGroupLayoutEntry, len(vDesc.Entries)+len(fDesc.Entries))
		for _, e := range vDesc.Entries {
			entryMap[e.Binding] = e
		}
		for _, e := range fDesc.Entries {
			if existing, found := entryMap[e.Binding]; found {
				existing.Visibility |= e.Visibility
				entryMap[e.Binding] = existing
			} else {
				entryMap[e.Binding] = e
			}
		}

		entries := make([]wgpu.BindGroupLayoutEntry, 0, len(entryMap))
		for _, e := range entryMap {
			entries = append(entries, e)
		}
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Binding < entries[j].Binding
		})

		merged[g] = wgpu.BindGroupLayoutDescriptor{
			Label:   vDesc.Label,
			Entries: entries,
		}
	}

	return merged
}
