package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithVertexBuffer seeds the provider with an already uploaded vertex buffer.
//
// Parameters:
//   - buf: the vertex buffer
//   - count: the number of vertices in buf
//
// Returns:
//   - BindGroupProviderOption: a function that sets the vertex buffer for this provider
func WithVertexBuffer(buf *wgpu.Buffer, count int) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.vertexBuffer = buf
		p.vertexCount = count
	}
}

// WithSampler seeds the provider with an owned sampler for a binding.
//
// Parameters:
//   - binding: the binding index
//   - s: the sampler
//
// Returns:
//   - BindGroupProviderOption: a function that sets the sampler for this provider
func WithSampler(binding int, s *wgpu.Sampler) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.samplers[binding] = s
	}
}
