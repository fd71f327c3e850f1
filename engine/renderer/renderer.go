package renderer

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-trace/engine/logger"
	"github.com/Carmen-Shannon/oxy-trace/engine/window"
	"go.uber.org/zap"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     wgpuRendererBackend

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
}

// Renderer is the windowed GPU backend. It draws full-screen passes into offscreen targets and the window
// surface, and owns the surface configuration.
//
// Renderer satisfies Backend, so anything that draws through a Backend (screen, tracer, composer) can run on it
// or on a headless backend interchangeably.
type Renderer interface {
	Backend

	// Resize configures the underlying surface to a new size.
	// This should be called when re-sizing the window.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetPresentMode changes the present mode and reconfigures the surface at its current size.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// SurfaceSize returns the current surface size.
	//
	// Returns:
	//   - int: the width in pixels
	//   - int: the height in pixels
	SurfaceSize() (int, int)

	// BackendType returns the backend implementation in use.
	//
	// Returns:
	//   - RendererBackendType: the backend type
	BackendType() RendererBackendType

	// Release frees the GPU device and surface. Programs and targets must be released first.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer instance with the specified backend type for the given window.
// The GPU adapter and device are requested synchronously; failure to obtain either panics.
//
// Parameters:
//   - backendType: the type of rendering backend to use (e.g., WGPU)
//   - window: the window whose surface is rendered to
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
func NewRenderer(backendType RendererBackendType, window window.Window, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:          &sync.Mutex{},
		backendType: backendType,
	}
	for _, opt := range options {
		opt(r)
	}

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend = newWGPURendererBackend(window.SurfaceDescriptor(), r.forceFallbackAdapter)
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}
	r.backend.ConfigureSurface(window.Width(), window.Height())

	logger.Log.Info("renderer ready",
		zap.Int("width", window.Width()),
		zap.Int("height", window.Height()),
		zap.Bool("fallback_adapter", r.forceFallbackAdapter),
	)
	return r
}

func (r *renderer) CreateTarget(label string, width, height int) (Target, error) {
	return r.backend.CreateTarget(label, width, height)
}

func (r *renderer) Render(mesh Mesh, p Program, target Target) error {
	return r.backend.Render(mesh, p, target)
}

func (r *renderer) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.backend.SetPresentMode(mode)
	if w, h := r.backend.SurfaceSize(); w > 0 && h > 0 {
		r.backend.ConfigureSurface(w, h)
	}
}

func (r *renderer) SurfaceSize() (int, int) {
	return r.backend.SurfaceSize()
}

func (r *renderer) BackendType() RendererBackendType {
	return r.backendType
}

func (r *renderer) Release() {
	r.backend.Release()
}
