package pipeline

import "github.com/Carmen-Shannon/oxy-trace/engine/renderer/shader"

// PipelineBuilderOption configures a Pipeline in NewPipeline.
type PipelineBuilderOption func(*pipeline)

// WithVertexShader sets the shader that places the full-screen quad.
//
// Parameters:
//   - s: a vertex stage shader
//
// Returns:
//   - PipelineBuilderOption: option setting the vertex stage
func WithVertexShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexShader = s
	}
}

// WithFragmentShader sets the shader run once per output pixel.
//
// Parameters:
//   - s: a fragment stage shader
//
// Returns:
//   - PipelineBuilderOption: option setting the fragment stage
func WithFragmentShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.fragmentShader = s
	}
}
