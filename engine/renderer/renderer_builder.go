package renderer

// RendererBuilderOption configures a Renderer in NewRenderer.
type RendererBuilderOption func(*renderer)

// WithPresentMode picks how finished frames reach the display.
//
// Parameters:
//   - mode: PresentModeVSync or PresentModeUncapped
//
// Returns:
//   - RendererBuilderOption: option applied before the surface is first configured
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.pendingPresentMode = &mode
	}
}

// WithFallbackAdapter requests the CPU fallback adapter (lavapipe, SwiftShader) instead of a hardware GPU.
// Adapter creation panics if no such driver is installed.
//
// Parameters:
//   - fallback: true to request the fallback adapter
//
// Returns:
//   - RendererBuilderOption: option applied to the adapter request
func WithFallbackAdapter(fallback bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = fallback
	}
}
