package bind_group_provider

import (
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	mu *sync.Mutex

	// label is a debug label added for convenience.
	label string

	// The following fields are GPU allocated resources owned by this provider. They are populated by the backend, not by user-creation.

	// bindGroup is the GPU bind group created for this provider, or nil if not initialized.
	bindGroup *wgpu.BindGroup
	// entries are the bind group entries bindGroup was created from, used to detect handle changes.
	entries []wgpu.BindGroupEntry
	// buffers holds the owned GPU buffers keyed by binding index, with their allocated sizes.
	buffers     map[int]*wgpu.Buffer
	bufferSizes map[int]uint64
	// textures and textureViews hold owned data textures keyed by binding index, with their extents.
	textures     map[int]*wgpu.Texture
	textureViews map[int]*wgpu.TextureView
	textureSizes map[int][2]uint32
	// samplers holds owned GPU samplers keyed by binding index.
	samplers map[int]*wgpu.Sampler

	// vertexBuffer is the GPU vertex buffer for mesh providers, or nil if not initialized.
	vertexBuffer *wgpu.Buffer
	vertexCount  int
}

// BindGroupProvider holds the GPU resources behind one bind group of a program, or the vertex buffer of a mesh.
// Resources stored here are owned by the provider and released with it. Borrowed resources such as render
// target views are only referenced through the recorded bind group entries.
//
// Usage pattern:
//  1. The backend creates a provider per (program, group) or per mesh on first use
//  2. Owned buffers, textures and samplers are created or resized to fit the bound uniform data
//  3. The backend assembles bind group entries and calls Matches to decide whether the bind group is stale
//  4. SetBindGroup records the new bind group together with the entries it was built from
type BindGroupProvider interface {
	// Release releases every GPU resource owned by this provider.
	Release()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// BindGroup returns the created bind group, or nil if none has been created yet.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group or nil
	BindGroup() *wgpu.BindGroup

	// SetBindGroup replaces the bind group and records the entries it was created from.
	// The previous bind group, if any, is released.
	//
	// Parameters:
	//   - bg: the created bind group
	//   - entries: the entries passed to CreateBindGroup
	SetBindGroup(bg *wgpu.BindGroup, entries []wgpu.BindGroupEntry)

	// Matches reports whether the current bind group was built from exactly these resource handles.
	//
	// Parameters:
	//   - entries: the entries the caller would bind now
	//
	// Returns:
	//   - bool: true if the existing bind group can be reused
	Matches(entries []wgpu.BindGroupEntry) bool

	// Buffer returns the owned buffer for a binding and the size it was allocated with.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	//   - uint64: the allocated size in bytes
	Buffer(binding int) (*wgpu.Buffer, uint64)

	// SetBuffer stores an owned buffer for a binding, releasing any buffer it replaces.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the created buffer
	//   - size: the allocated size in bytes
	SetBuffer(binding int, buf *wgpu.Buffer, size uint64)

	// Texture returns the owned texture view for a binding and the texture extent.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Texture: the texture or nil
	//   - *wgpu.TextureView: the view or nil
	//   - [2]uint32: width and height of the texture
	Texture(binding int) (*wgpu.Texture, *wgpu.TextureView, [2]uint32)

	// SetTexture stores an owned texture and its view for a binding, releasing whatever it replaces.
	//
	// Parameters:
	//   - binding: the binding index
	//   - tex: the created texture
	//   - view: the view onto tex
	//   - size: width and height of tex
	SetTexture(binding int, tex *wgpu.Texture, view *wgpu.TextureView, size [2]uint32)

	// Sampler returns the owned sampler for a binding, or nil if not set.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Sampler: the sampler or nil
	Sampler(binding int) *wgpu.Sampler

	// SetSampler stores an owned sampler for a binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - s: the sampler to store
	SetSampler(binding int, s *wgpu.Sampler)

	// VertexBuffer returns the GPU vertex buffer and its vertex count, or nil if not initialized.
	//
	// Returns:
	//   - *wgpu.Buffer: the vertex buffer or nil
	//   - int: the vertex count
	VertexBuffer() (*wgpu.Buffer, int)

	// SetVertexBuffer stores the GPU vertex buffer after upload.
	//
	// Parameters:
	//   - buf: the created vertex buffer
	//   - count: the number of vertices in buf
	SetVertexBuffer(buf *wgpu.Buffer, count int)
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a new BindGroupProvider with the provided options.
//
// Parameters:
//   - label: debug label used for every GPU object the provider owns
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new instance of BindGroupProvider configured with the provided options
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		mu:           &sync.Mutex{},
		label:        label,
		buffers:      make(map[int]*wgpu.Buffer),
		bufferSizes:  make(map[int]uint64),
		textures:     make(map[int]*wgpu.Texture),
		textureViews: make(map[int]*wgpu.TextureView),
		textureSizes: make(map[int][2]uint32),
		samplers:     make(map[int]*wgpu.Sampler),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bindGroup
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup, entries []wgpu.BindGroupEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bindGroup != nil && p.bindGroup != bg {
		p.bindGroup.Release()
	}
	p.bindGroup = bg
	p.entries = append(p.entries[:0], entries...)
}

func (p *bindGroupProvider) Matches(entries []wgpu.BindGroupEntry) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bindGroup == nil || len(entries) != len(p.entries) {
		return false
	}
	for i, e := range entries {
		old := p.entries[i]
		if e.Binding != old.Binding || e.Buffer != old.Buffer || e.TextureView != old.TextureView ||
			e.Sampler != old.Sampler || e.Size != old.Size {
			return false
		}
	}
	return true
}

func (p *bindGroupProvider) Buffer(binding int) (*wgpu.Buffer, uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buffers[binding], p.bufferSizes[binding]
}

func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer, size uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if old := p.buffers[binding]; old != nil && old != buf {
		old.Release()
	}
	p.buffers[binding] = buf
	p.bufferSizes[binding] = size
}

func (p *bindGroupProvider) Texture(binding int) (*wgpu.Texture, *wgpu.TextureView, [2]uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.textures[binding], p.textureViews[binding], p.textureSizes[binding]
}

func (p *bindGroupProvider) SetTexture(binding int, tex *wgpu.Texture, view *wgpu.TextureView, size [2]uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if old := p.textureViews[binding]; old != nil && old != view {
		old.Release()
	}
	if old := p.textures[binding]; old != nil && old != tex {
		old.Release()
	}
	p.textures[binding] = tex
	p.textureViews[binding] = view
	p.textureSizes[binding] = size
}

func (p *bindGroupProvider) Sampler(binding int) *wgpu.Sampler {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.samplers[binding]
}

func (p *bindGroupProvider) SetSampler(binding int, s *wgpu.Sampler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if old := p.samplers[binding]; old != nil && old != s {
		old.Release()
	}
	p.samplers[binding] = s
}

func (p *bindGroupProvider) VertexBuffer() (*wgpu.Buffer, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.vertexBuffer, p.vertexCount
}

func (p *bindGroupProvider) SetVertexBuffer(buf *wgpu.Buffer, count int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.vertexBuffer != nil && p.vertexBuffer != buf {
		p.vertexBuffer.Release()
	}
	p.vertexBuffer = buf
	p.vertexCount = count
}

func (p *bindGroupProvider) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	p.entries = nil

	for i, tv := range p.textureViews {
		if tv != nil {
			tv.Release()
		}
		delete(p.textureViews, i)
	}
	for i, tex := range p.textures {
		if tex != nil {
			tex.Release()
		}
		delete(p.textures, i)
		delete(p.textureSizes, i)
	}
	for i, s := range p.samplers {
		if s != nil {
			s.Release()
		}
		delete(p.samplers, i)
	}
	for i, buf := range p.buffers {
		if buf != nil {
			buf.Release()
		}
		delete(p.buffers, i)
		delete(p.bufferSizes, i)
	}
	if p.vertexBuffer != nil {
		p.vertexBuffer.Release()
		p.vertexBuffer = nil
		p.vertexCount = 0
	}
}
