package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-trace/engine/camera"
	"github.com/Carmen-Shannon/oxy-trace/engine/scene"
	"github.com/Carmen-Shannon/oxy-trace/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables the periodic profiler report.
//
// Parameters:
//   - enabled: if true, logs throughput and memory once per second
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled.Store(enabled)
	}
}

// WithTickRate sets the tick rate in ticks per second. Values <= 0 mean 60.
//
// Parameters:
//   - fps: target ticks per second
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60
		}
		e.engineTickRate.Store(int64(time.Duration(float64(time.Second) / fps)))
	}
}

// WithWindow attaches a window. Its resize events are forwarded to Resize and Run blocks on its message loop.
//
// Parameters:
//   - w: the window
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithRenderFrameLimit caps the render loop in frames per second. 0 leaves it uncapped.
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps > 0 {
			e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
		}
	}
}

// WithMaxPasses stops accumulating after n passes. 0 accumulates forever.
//
// Parameters:
//   - n: the pass cap
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithMaxPasses(n int) EngineBuilderOption {
	return func(e *engine) {
		e.maxPasses = max(n, 0)
	}
}

// WithScene sets the initial scene.
func WithScene(s scene.Scene) EngineBuilderOption {
	return func(e *engine) {
		if s != nil {
			e.scene = s.Clone()
		}
	}
}

// WithCamera sets the initial camera.
func WithCamera(cam camera.Camera) EngineBuilderOption {
	return func(e *engine) {
		e.camera = cam
	}
}
